package overlay

import "image"

// Marker records the last drawn marker for an entity so a caller managing
// frame-to-frame replacement can blank it before the next frame's draw.
type Marker struct {
	Center image.Point
	Radius int
}

// RenderState accumulates per-entity drawing history across one rendering
// session: bounded trail buffers, last-marker handles, and the persistent
// ball trajectory polyline. It is created with the session and discarded with
// it; it is never persisted.
type RenderState struct {
	trailLen  int
	trails    map[int][]image.Point // per entity, oldest first
	lastMarks map[int]Marker
	ballPath  []image.Point
}

func newRenderState(trailLen int) *RenderState {
	return &RenderState{
		trailLen:  trailLen,
		trails:    make(map[int][]image.Point),
		lastMarks: make(map[int]Marker),
	}
}

// pushTrail appends a pixel position to the entity's trail, evicting the
// oldest position once the configured trail length is exceeded.
func (st *RenderState) pushTrail(entityID int, p image.Point) {
	trail := append(st.trails[entityID], p)
	if len(trail) > st.trailLen {
		trail = trail[len(trail)-st.trailLen:]
	}
	st.trails[entityID] = trail
}

// Trail returns the entity's recorded pixel positions, oldest first.
func (st *RenderState) Trail(entityID int) []image.Point {
	trail := st.trails[entityID]
	out := make([]image.Point, len(trail))
	copy(out, trail)
	return out
}

// LastMarker returns the most recent marker drawn for the entity.
func (st *RenderState) LastMarker(entityID int) (Marker, bool) {
	m, ok := st.lastMarks[entityID]
	return m, ok
}

// BallPath returns the ball trajectory recorded so far this session.
func (st *RenderState) BallPath() []image.Point {
	out := make([]image.Point, len(st.ballPath))
	copy(out, st.ballPath)
	return out
}
