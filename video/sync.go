package video

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrSyncNotConfigured is returned by Resolve before SetAnchors has run.
var ErrSyncNotConfigured = errors.New("video: sync anchors not set")

// Anchor pairs a tracking frame with the video frame an operator confirmed it
// on, for example "pass_forward happened on broadcast frame 45".
type Anchor struct {
	TrackingFrame int
	VideoFrame    int
}

// SyncMapper maps tracking-stream frame indices onto video frame numbers from
// a sparse anchor set. One anchor fixes a constant offset; two or more fit a
// piecewise-linear model that passes exactly through every anchor and
// extrapolates beyond the anchor range.
type SyncMapper struct {
	anchors    []Anchor // ascending by TrackingFrame
	frameCount int
	configured bool
}

// NewSyncMapper returns a mapper for a video of frameCount frames.
// frameCount must be at least 1.
func NewSyncMapper(frameCount int) *SyncMapper {
	return &SyncMapper{frameCount: frameCount}
}

// SetAnchors installs the anchor correspondences, keyed by tracking frame.
// The map form makes duplicate tracking frames last-write-wins by
// construction. An empty set is an error.
func (m *SyncMapper) SetAnchors(anchors map[int]int) error {
	if len(anchors) == 0 {
		return fmt.Errorf("video: anchor set is empty")
	}
	m.anchors = m.anchors[:0]
	for t, v := range anchors {
		m.anchors = append(m.anchors, Anchor{TrackingFrame: t, VideoFrame: v})
	}
	sort.Slice(m.anchors, func(i, j int) bool {
		return m.anchors[i].TrackingFrame < m.anchors[j].TrackingFrame
	})
	m.configured = true
	return nil
}

// Resolve returns the video frame for trackingFrame, clamped into
// [0, frameCount-1]. Clamping is deliberate: a tracking frame outside the
// video's temporal extent still yields a valid boundary frame, because for a
// visualization tool a boundary render beats no render.
func (m *SyncMapper) Resolve(trackingFrame int) (int, error) {
	if !m.configured {
		return 0, ErrSyncNotConfigured
	}

	var mapped float64
	if len(m.anchors) == 1 {
		offset := m.anchors[0].VideoFrame - m.anchors[0].TrackingFrame
		mapped = float64(trackingFrame + offset)
	} else {
		mapped = m.interpolate(float64(trackingFrame))
	}

	frame := int(math.Round(mapped))
	if frame < 0 {
		frame = 0
	}
	if max := m.frameCount - 1; frame > max {
		frame = max
	}
	return frame, nil
}

// interpolate evaluates the anchor polyline at tf, extrapolating from the
// edge segments outside the anchor range. Requires >= 2 anchors.
func (m *SyncMapper) interpolate(tf float64) float64 {
	a := m.anchors
	n := len(a)
	segment := func(lo, hi Anchor) float64 {
		span := float64(hi.TrackingFrame - lo.TrackingFrame)
		if span == 0 {
			return float64(hi.VideoFrame)
		}
		factor := (tf - float64(lo.TrackingFrame)) / span
		return float64(lo.VideoFrame) + factor*float64(hi.VideoFrame-lo.VideoFrame)
	}
	if tf <= float64(a[0].TrackingFrame) {
		return segment(a[0], a[1])
	}
	if tf >= float64(a[n-1].TrackingFrame) {
		return segment(a[n-2], a[n-1])
	}
	for i := 0; i < n-1; i++ {
		if tf >= float64(a[i].TrackingFrame) && tf <= float64(a[i+1].TrackingFrame) {
			return segment(a[i], a[i+1])
		}
	}
	return float64(a[n-1].VideoFrame)
}
