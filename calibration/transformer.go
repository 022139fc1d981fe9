package calibration

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Field dimensions in yards, end zones included.
const (
	FieldLength = 120.0
	FieldWidth  = 53.3
)

// MinPoints is the smallest point set that determines a planar homography.
const MinPoints = 4

// ErrNotCalibrated is returned by Transform when no homography has been set.
var ErrNotCalibrated = errors.New("calibration: transformer not calibrated")

// CalibrationError reports a point set that cannot produce a usable
// homography. It is always fatal to the Calibrate call; the transformer is
// never left on a silent identity transform.
type CalibrationError struct {
	Reason string
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("calibration: %s", e.Reason)
}

// Point is a 2-D point in field space (yards) or video space (pixels).
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Transformer maps field coordinates (yards) into video pixel coordinates
// through a planar homography learned from operator-marked point pairs.
//
// The homography is owned by exactly one Transformer and is set exactly once.
// It is scene-specific: a new camera angle or broadcast cut needs a fresh
// Transformer.
type Transformer struct {
	h          [3][3]float64
	calibrated bool
}

// NewTransformer returns an uncalibrated transformer.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Calibrated reports whether Calibrate has succeeded.
func (t *Transformer) Calibrated() bool {
	return t.calibrated
}

// Calibrate computes the least-squares planar homography mapping fieldPts
// onto videoPts. Both slices must hold the same N >= 4 points. A perspective
// transform is fitted, not an affine one, because the broadcast camera is not
// orthogonal to the field. Collinear or otherwise rank-deficient point
// configurations return a *CalibrationError.
func (t *Transformer) Calibrate(fieldPts, videoPts []Point) error {
	if t.calibrated {
		return &CalibrationError{Reason: "homography already set; use a new transformer for a new scene"}
	}
	if len(fieldPts) != len(videoPts) {
		return &CalibrationError{Reason: fmt.Sprintf(
			"point count mismatch: %d field vs %d video", len(fieldPts), len(videoPts))}
	}
	if len(fieldPts) < MinPoints {
		return &CalibrationError{Reason: fmt.Sprintf(
			"need at least %d point pairs, got %d", MinPoints, len(fieldPts))}
	}

	// Direct linear transform with h33 pinned to 1. Each pair contributes two
	// rows, so four pairs give an exactly determined 8x8 system and more give
	// an overdetermined one solved least-squares.
	n := len(fieldPts)
	a := mat.NewDense(2*n, 8, nil)
	b := mat.NewVecDense(2*n, nil)
	for i, fp := range fieldPts {
		vp := videoPts[i]
		a.SetRow(2*i, []float64{fp.X, fp.Y, 1, 0, 0, 0, -fp.X * vp.X, -fp.Y * vp.X})
		b.SetVec(2*i, vp.X)
		a.SetRow(2*i+1, []float64{0, 0, 0, fp.X, fp.Y, 1, -fp.X * vp.Y, -fp.Y * vp.Y})
		b.SetVec(2*i+1, vp.Y)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return &CalibrationError{Reason: fmt.Sprintf("degenerate point configuration: %v", err)}
	}
	for i := 0; i < 8; i++ {
		if v := h.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return &CalibrationError{Reason: "degenerate point configuration: solve produced non-finite homography"}
		}
	}

	t.h = [3][3]float64{
		{h.AtVec(0), h.AtVec(1), h.AtVec(2)},
		{h.AtVec(3), h.AtVec(4), h.AtVec(5)},
		{h.AtVec(6), h.AtVec(7), 1},
	}
	t.calibrated = true
	return nil
}

// Transform converts a field position in yards to video pixel coordinates by
// projective transformation: multiply the homogeneous point, divide by w, and
// round to the nearest pixel. Rounding, not truncation, avoids a systematic
// half-pixel bias. Results are not clamped; callers bounds-check against the
// actual frame before drawing.
func (t *Transformer) Transform(x, y float64) (int, int, error) {
	if !t.calibrated {
		return 0, 0, ErrNotCalibrated
	}
	w := t.h[2][0]*x + t.h[2][1]*y + t.h[2][2]
	if math.Abs(w) < 1e-12 {
		return 0, 0, fmt.Errorf("calibration: field point (%.2f, %.2f) projects to infinity", x, y)
	}
	px := (t.h[0][0]*x + t.h[0][1]*y + t.h[0][2]) / w
	py := (t.h[1][0]*x + t.h[1][1]*y + t.h[1][2]) / w
	return int(math.Round(px)), int(math.Round(py)), nil
}

// Matrix returns a copy of the homography for persistence and diagnostics.
func (t *Transformer) Matrix() ([3][3]float64, error) {
	if !t.calibrated {
		return [3][3]float64{}, ErrNotCalibrated
	}
	return t.h, nil
}
