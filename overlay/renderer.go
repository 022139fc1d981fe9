package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"fieldsync/calibration"
	"fieldsync/tracking"

	"github.com/google/uuid"
)

// debugMsgFunc is set by the main package to route overlay debug output
// through its unified logging.
var debugMsgFunc func(component, message string)

// SetDebugFunction lets the main package provide the debug logger.
func SetDebugFunction(fn func(component, message string)) {
	debugMsgFunc = fn
}

func debugMsg(component, message string) {
	if debugMsgFunc != nil {
		debugMsgFunc(component, message)
	}
}

// Separation tiers in yards. These are fixed compatibility constants, not
// configuration: downstream tooling keys on the exact tier colors.
const (
	tightSeparationYds    = 2.0
	moderateSeparationYds = 5.0
)

// Velocity arrows grow 5 px per yd/s and are hard-capped so an extreme speed
// can never push the arrow tip off frame.
const (
	velocityScalePx  = 5.0
	velocityMaxLenPx = 50
)

const (
	markerRadius    = 15
	trailThickness  = 3
	trailMaxAlpha   = 0.6
	jerseyFontScale = 0.5
	labelFontScale  = 0.6
	speedFontScale  = 0.4
	defaultTrailLen = 10
	ydsPerSecToMPH  = 2.04545
	panelLineHeight = 30
	panelWidth      = 280
	panelAlpha      = 0.7
)

var (
	colorWhite    = color.RGBA{255, 255, 255, 255}
	colorBlack    = color.RGBA{0, 0, 0, 255}
	colorTight    = color.RGBA{255, 0, 0, 255}   // under 2 yds: tight coverage
	colorModerate = color.RGBA{255, 255, 0, 255} // 2-5 yds: moderate separation
	colorOpen     = color.RGBA{0, 255, 0, 255}   // over 5 yds: open
)

// defaultTeamColors returns the stock palette. Offense, defense and the ball
// get distinct hues; unrecognized teams fall back to white.
func defaultTeamColors() map[string]color.RGBA {
	return map[string]color.RGBA{
		"offense":         {255, 107, 75, 255},
		"defense":         {78, 205, 196, 255},
		tracking.BallTeam: {255, 217, 61, 255},
	}
}

// ErrFrameOrder is returned when frames are rendered out of order. A session
// renders its tracking frames in non-decreasing order only; there is no
// backward transition, and a new play needs a new session.
var ErrFrameOrder = errors.New("overlay: tracking frames must be rendered in non-decreasing order")

// SeparationColor returns the fixed tier color for a separation distance:
// under 2 yards tight, 2 to 5 moderate, over 5 open.
func SeparationColor(distance float64) color.RGBA {
	switch {
	case distance < tightSeparationYds:
		return colorTight
	case distance < moderateSeparationYds:
		return colorModerate
	default:
		return colorOpen
	}
}

// Config tunes a rendering session.
type Config struct {
	// TrailLength is the number of recent positions kept per entity.
	// Zero means the default of 10.
	TrailLength int
	// TeamColors overrides the stock palette when non-nil.
	TeamColors map[string]color.RGBA
}

// Renderer composes tracking overlays onto the video frames of one play. It
// is stateless per draw call apart from the RenderState history, works
// against any Canvas backend, and never owns the frame buffer it draws on.
//
// A session moves Uninitialized -> Calibrated (transformer supplied at
// construction) -> Rendering and never backward. Sessions share no mutable
// state, so independent plays parallelize by holding one session each.
type Renderer struct {
	transformer *calibration.Transformer
	teamColors  map[string]color.RGBA
	fallback    color.RGBA
	state       *RenderState
	sessionID   string

	rendering         bool
	lastTrackingFrame int
}

// NewRenderer starts a rendering session over a calibrated transformer. An
// uncalibrated transformer is refused: drawing before calibration is an
// error state, not a no-op.
func NewRenderer(t *calibration.Transformer, cfg Config) (*Renderer, error) {
	if t == nil || !t.Calibrated() {
		return nil, calibration.ErrNotCalibrated
	}
	trailLen := cfg.TrailLength
	if trailLen <= 0 {
		trailLen = defaultTrailLen
	}
	colors := cfg.TeamColors
	if colors == nil {
		colors = defaultTeamColors()
	}
	r := &Renderer{
		transformer: t,
		teamColors:  colors,
		fallback:    colorWhite,
		state:       newRenderState(trailLen),
		sessionID:   uuid.NewString(),
	}
	debugMsg("OVERLAY", fmt.Sprintf("render session %s started (trail=%d)", r.sessionID, trailLen))
	return r, nil
}

// SessionID identifies this rendering session in logs and output paths.
func (r *Renderer) SessionID() string {
	return r.sessionID
}

// State exposes the session's accumulated drawing history.
func (r *Renderer) State() *RenderState {
	return r.state
}

// BeginFrame advances the session to trackingFrame. Frames must arrive in
// non-decreasing tracking order; repeating a frame is allowed so a caller
// can redraw after a failed read.
func (r *Renderer) BeginFrame(trackingFrame int) error {
	if r.rendering && trackingFrame < r.lastTrackingFrame {
		return fmt.Errorf("overlay: frame %d after frame %d: %w",
			trackingFrame, r.lastTrackingFrame, ErrFrameOrder)
	}
	r.rendering = true
	r.lastTrackingFrame = trackingFrame
	return nil
}

// DrawMarker draws a filled team-colored circle with a white ring at the
// entity's field position and centers the jersey number on it when jersey is
// positive. The pixel position is recorded into the entity's trail and, for
// the ball, into the session ball path. Redrawing draws again; there is no
// deduplication, which is why LastMarker handles exist for callers that
// clear between frames.
func (r *Renderer) DrawMarker(c Canvas, entityID int, fieldX, fieldY float64, team string, jersey int) error {
	px, py, err := r.transformer.Transform(fieldX, fieldY)
	if err != nil {
		return err
	}
	center := image.Pt(px, py)
	col := r.teamColor(team)

	c.FillCircle(center, markerRadius, col)
	c.StrokeCircle(center, markerRadius, 2, colorWhite)

	if jersey > 0 {
		text := strconv.Itoa(jersey)
		size := c.TextSize(text, jerseyFontScale, 2)
		org := image.Pt(center.X-size.X/2, center.Y+size.Y/2)
		c.Text(text, org, jerseyFontScale, colorBlack, 3) // outline
		c.Text(text, org, jerseyFontScale, colorWhite, 2)
	}

	r.state.pushTrail(entityID, center)
	r.state.lastMarks[entityID] = Marker{Center: center, Radius: markerRadius}
	if team == tracking.BallTeam {
		r.state.ballPath = append(r.state.ballPath, center)
	}
	return nil
}

// DrawTrail draws a polyline through the entity's last recorded positions
// with opacity falling strictly from the newest segment to the oldest, so
// recency reads directly off the frame. Fewer than two recorded positions
// draw nothing.
func (r *Renderer) DrawTrail(c Canvas, entityID int, team string) {
	trail := r.state.trails[entityID]
	n := len(trail)
	if n < 2 {
		return
	}
	col := r.teamColor(team)
	// Segment 0 joins the two newest points; alpha decays linearly with age
	// and never reaches zero.
	for s := 0; s <= n-2; s++ {
		from := trail[n-2-s]
		to := trail[n-1-s]
		alpha := trailMaxAlpha * float64(n-1-s) / float64(n-1)
		c.BlendLine(from, to, col, trailThickness, alpha)
	}
}

// DrawBallPath draws the full ball trajectory recorded so far this session
// as a persistent polyline.
func (r *Renderer) DrawBallPath(c Canvas) {
	path := r.state.ballPath
	if len(path) < 2 {
		return
	}
	col := r.teamColor(tracking.BallTeam)
	for i := 0; i < len(path)-1; i++ {
		c.Line(path[i], path[i+1], col, 2)
	}
}

// DrawSeparation connects two field positions with a line colored by the
// fixed separation tiers and labels the distance at the midpoint on a black
// box for readability.
func (r *Renderer) DrawSeparation(c Canvas, ax, ay, bx, by, distance float64) error {
	apx, apy, err := r.transformer.Transform(ax, ay)
	if err != nil {
		return err
	}
	bpx, bpy, err := r.transformer.Transform(bx, by)
	if err != nil {
		return err
	}
	col := SeparationColor(distance)
	from := image.Pt(apx, apy)
	to := image.Pt(bpx, bpy)
	c.Line(from, to, col, 2)

	mid := image.Pt((from.X+to.X)/2, (from.Y+to.Y)/2)
	text := fmt.Sprintf("%.1f yds", distance)
	size := c.TextSize(text, labelFontScale, 2)
	c.FillRect(image.Rect(mid.X-5, mid.Y-size.Y-5, mid.X+size.X+5, mid.Y+5), colorBlack)
	c.Text(text, mid, labelFontScale, col, 2)
	return nil
}

// DrawVelocityVector draws a directional arrow at the entity's position
// whose length is proportional to speed but capped at velocityMaxLenPx, with
// the speed in mph labeled beside the tail.
func (r *Renderer) DrawVelocityVector(c Canvas, fieldX, fieldY, speed, dir float64, team string) error {
	px, py, err := r.transformer.Transform(fieldX, fieldY)
	if err != nil {
		return err
	}
	col := r.teamColor(team)

	length := speed * velocityScalePx
	if length > velocityMaxLenPx {
		length = velocityMaxLenPx
	}
	rad := dir * math.Pi / 180
	from := image.Pt(px, py)
	to := image.Pt(
		px+int(math.Round(length*math.Cos(rad))),
		py+int(math.Round(length*math.Sin(rad))),
	)
	c.Arrow(from, to, col, 2)

	text := fmt.Sprintf("%.1f mph", speed*ydsPerSecToMPH)
	org := image.Pt(px+5, py-10)
	c.Text(text, org, speedFontScale, colorBlack, 2) // outline
	c.Text(text, org, speedFontScale, col, 1)
	return nil
}

// Corner anchors an info panel to a frame corner.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

// DrawInfoPanel draws key/value lines over a semi-transparent black box in
// the chosen corner. Keys render in the order given so output is stable
// across frames.
func (r *Renderer) DrawInfoPanel(c Canvas, keys []string, info map[string]string, corner Corner) {
	if len(keys) == 0 {
		return
	}
	frame := c.Size()
	var x, y int
	switch corner {
	case TopLeft:
		x, y = 20, 40
	case TopRight:
		x, y = frame.X-panelWidth-20, 40
	case BottomLeft:
		x, y = 20, frame.Y-len(keys)*panelLineHeight-20
	default: // BottomRight
		x, y = frame.X-panelWidth-20, frame.Y-len(keys)*panelLineHeight-20
	}

	box := image.Rect(x-10, y-30, x+panelWidth, y+len(keys)*panelLineHeight-10)
	c.BlendRect(box, colorBlack, panelAlpha)

	lineY := y
	for _, key := range keys {
		c.Text(fmt.Sprintf("%s: %s", key, info[key]), image.Pt(x, lineY), 0.7, colorWhite, 2)
		lineY += panelLineHeight
	}
}

func (r *Renderer) teamColor(team string) color.RGBA {
	if col, ok := r.teamColors[team]; ok {
		return col
	}
	debugMsg("OVERLAY", fmt.Sprintf("no color for team %q, using fallback", team))
	return r.fallback
}
