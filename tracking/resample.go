package tracking

import (
	"fmt"
	"math"
	"sort"
)

// ResampledSample is one entity position on the retimed output timeline.
type ResampledSample struct {
	Index       int     // ordinal on the target-rate timeline, 0-based
	NativeFrame float64 // fractional native frame this point corresponds to
	EntityID    int
	X           float64
	Y           float64
	Speed       float64
	Dir         float64
	Orientation float64
	Team        string
	Jersey      int
}

// IsBall reports whether the resampled point belongs to the ball.
func (s ResampledSample) IsBall() bool {
	return s.EntityID == BallEntityID
}

// ResampleReport aggregates the soft failures of one resampling pass.
// Entities with fewer than two native samples cannot be interpolated and are
// dropped from the output; the drop is counted here rather than thrown,
// because a partial result still renders.
type ResampleReport struct {
	TimelinePoints  int
	DroppedEntities int
	DroppedIDs      []int
}

// Resample retimes every entity's trajectory from the native tracking rate
// onto a uniform timeline at targetFPS spanning the play's first-to-last
// native frame. Each numeric channel (x, y, speed, dir, orientation) is
// linearly interpolated per entity, with extrapolation at the range edges.
// Team and jersey are held constant per entity from its first native sample.
// The ball is its own entity group.
//
// Output is deterministic: entities are emitted in ascending ID order (ball
// first) and the same input always produces bit-identical output.
func Resample(samples []Sample, targetFPS float64) ([]ResampledSample, ResampleReport, error) {
	var report ResampleReport
	if targetFPS <= 0 {
		return nil, report, fmt.Errorf("tracking: target fps must be positive, got %v", targetFPS)
	}
	if len(samples) == 0 {
		return nil, report, fmt.Errorf("tracking: no samples to resample")
	}

	// The distinct native frames define the play's duration at the feed rate.
	frameSet := make(map[int]struct{})
	byEntity := make(map[int][]Sample)
	for _, s := range samples {
		frameSet[s.FrameID] = struct{}{}
		byEntity[s.EntityID] = append(byEntity[s.EntityID], s)
	}
	frames := make([]int, 0, len(frameSet))
	for f := range frameSet {
		frames = append(frames, f)
	}
	sort.Ints(frames)

	duration := float64(len(frames)) / NativeFPS
	points := int(math.Round(duration * targetFPS))
	if points < 1 {
		return nil, report, fmt.Errorf("tracking: target fps %v too low for a %.1fs play", targetFPS, duration)
	}
	report.TimelinePoints = points

	first := float64(frames[0])
	last := float64(frames[len(frames)-1])
	timeline := make([]float64, points)
	if points == 1 {
		timeline[0] = first
	} else {
		step := (last - first) / float64(points-1)
		for i := range timeline {
			timeline[i] = first + step*float64(i)
		}
	}

	ids := make([]int, 0, len(byEntity))
	for id := range byEntity {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]ResampledSample, 0, points*len(ids))
	for _, id := range ids {
		es := dedupeByFrame(byEntity[id])
		if len(es) < 2 {
			report.DroppedEntities++
			report.DroppedIDs = append(report.DroppedIDs, id)
			continue
		}

		xs := make([]float64, len(es))
		chX := make([]float64, len(es))
		chY := make([]float64, len(es))
		chS := make([]float64, len(es))
		chDir := make([]float64, len(es))
		chO := make([]float64, len(es))
		for i, s := range es {
			xs[i] = float64(s.FrameID)
			chX[i] = s.X
			chY[i] = s.Y
			chS[i] = s.Speed
			chDir[i] = s.Dir
			chO[i] = s.Orientation
		}

		for i, tf := range timeline {
			out = append(out, ResampledSample{
				Index:       i,
				NativeFrame: tf,
				EntityID:    id,
				X:           lerpSeries(xs, chX, tf),
				Y:           lerpSeries(xs, chY, tf),
				Speed:       lerpSeries(xs, chS, tf),
				Dir:         lerpSeries(xs, chDir, tf),
				Orientation: lerpSeries(xs, chO, tf),
				Team:        es[0].Team,
				Jersey:      es[0].Jersey,
			})
		}
	}
	return out, report, nil
}

// dedupeByFrame sorts an entity's samples by frame and keeps the last record
// per frame ID.
func dedupeByFrame(es []Sample) []Sample {
	sorted := make([]Sample, len(es))
	copy(sorted, es)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].FrameID < sorted[j].FrameID })
	deduped := sorted[:0]
	for _, s := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].FrameID == s.FrameID {
			deduped[n-1] = s
			continue
		}
		deduped = append(deduped, s)
	}
	return deduped
}

// lerpSeries evaluates the piecewise-linear series ys over ascending xs at x.
// Outside the sampled range the edge segments extrapolate. Requires
// len(xs) == len(ys) >= 2 with strictly ascending xs.
func lerpSeries(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if x <= xs[0] {
		return ys[0] + (x-xs[0])*(ys[1]-ys[0])/(xs[1]-xs[0])
	}
	if x >= xs[n-1] {
		return ys[n-1] + (x-xs[n-1])*(ys[n-1]-ys[n-2])/(xs[n-1]-xs[n-2])
	}
	for i := 0; i < n-1; i++ {
		if x >= xs[i] && x <= xs[i+1] {
			factor := (x - xs[i]) / (xs[i+1] - xs[i])
			return ys[i] + factor*(ys[i+1]-ys[i])
		}
	}
	return ys[n-1]
}
