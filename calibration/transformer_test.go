package calibration

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Standard broadcast calibration: the four visible field corners mapped onto
// an axis-aligned region of a 1920x1080 frame.
func cornerPoints() (field, videoPts []Point) {
	field = []Point{{10, 0}, {110, 0}, {10, 53.3}, {110, 53.3}}
	videoPts = []Point{{100, 50}, {1800, 50}, {100, 1000}, {1800, 1000}}
	return field, videoPts
}

func TestCalibrateRoundTripAtAnchors(t *testing.T) {
	field, videoPts := cornerPoints()
	tr := NewTransformer()
	if err := tr.Calibrate(field, videoPts); err != nil {
		t.Fatalf("Calibrate: %v", err)
	}

	for i, fp := range field {
		px, py, err := tr.Transform(fp.X, fp.Y)
		if err != nil {
			t.Fatalf("Transform(%v): %v", fp, err)
		}
		if math.Abs(float64(px)-videoPts[i].X) > 1 || math.Abs(float64(py)-videoPts[i].Y) > 1 {
			t.Errorf("point %d: Transform(%v, %v) = (%d, %d), want near (%v, %v)",
				i, fp.X, fp.Y, px, py, videoPts[i].X, videoPts[i].Y)
		}
	}
}

func TestTransformFieldCenter(t *testing.T) {
	field, videoPts := cornerPoints()
	tr := NewTransformer()
	if err := tr.Calibrate(field, videoPts); err != nil {
		t.Fatalf("Calibrate: %v", err)
	}

	// Field center should land near the visual center of the mapped region.
	px, py, err := tr.Transform(60, 26.65)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if math.Abs(float64(px)-950) > 2 {
		t.Errorf("center x = %d, want ~950", px)
	}
	if math.Abs(float64(py)-525) > 2 {
		t.Errorf("center y = %d, want ~525", py)
	}
}

func TestCalibratePerspective(t *testing.T) {
	// A trapezoid: the far sideline is foreshortened, like a real broadcast
	// angle. The homography must still hit every anchor exactly.
	field := []Point{{0, 0}, {100, 0}, {0, 53.3}, {100, 53.3}}
	videoPts := []Point{{400, 100}, {1500, 100}, {100, 1000}, {1800, 1000}}
	tr := NewTransformer()
	if err := tr.Calibrate(field, videoPts); err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	for i, fp := range field {
		px, py, err := tr.Transform(fp.X, fp.Y)
		if err != nil {
			t.Fatalf("Transform: %v", err)
		}
		if math.Abs(float64(px)-videoPts[i].X) > 1 || math.Abs(float64(py)-videoPts[i].Y) > 1 {
			t.Errorf("anchor %d: got (%d, %d), want near (%v, %v)", i, px, py, videoPts[i].X, videoPts[i].Y)
		}
	}
}

func TestCalibrateRejectsCollinear(t *testing.T) {
	field := []Point{{0, 0}, {10, 0}, {20, 0}, {30, 0}}
	videoPts := []Point{{0, 0}, {100, 0}, {200, 0}, {300, 0}}
	tr := NewTransformer()
	err := tr.Calibrate(field, videoPts)
	var calErr *CalibrationError
	if !errors.As(err, &calErr) {
		t.Fatalf("Calibrate with collinear points: got %v, want *CalibrationError", err)
	}
	if tr.Calibrated() {
		t.Error("transformer must not be calibrated after a degenerate point set")
	}
}

func TestCalibrateRejectsBadInput(t *testing.T) {
	cases := []struct {
		name     string
		field    []Point
		videoPts []Point
	}{
		{"too few points", []Point{{0, 0}, {1, 0}, {0, 1}}, []Point{{0, 0}, {10, 0}, {0, 10}}},
		{"length mismatch", []Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, []Point{{0, 0}, {10, 0}, {0, 10}}},
		{"empty", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := NewTransformer()
			err := tr.Calibrate(tc.field, tc.videoPts)
			var calErr *CalibrationError
			if !errors.As(err, &calErr) {
				t.Fatalf("got %v, want *CalibrationError", err)
			}
		})
	}
}

func TestTransformBeforeCalibrate(t *testing.T) {
	tr := NewTransformer()
	_, _, err := tr.Transform(60, 26.65)
	if !errors.Is(err, ErrNotCalibrated) {
		t.Fatalf("got %v, want ErrNotCalibrated", err)
	}
}

func TestCalibrateOnlyOnce(t *testing.T) {
	field, videoPts := cornerPoints()
	tr := NewTransformer()
	if err := tr.Calibrate(field, videoPts); err != nil {
		t.Fatalf("first Calibrate: %v", err)
	}
	err := tr.Calibrate(field, videoPts)
	var calErr *CalibrationError
	if !errors.As(err, &calErr) {
		t.Fatalf("second Calibrate: got %v, want *CalibrationError", err)
	}
}

func TestSessionSaveLoad(t *testing.T) {
	field, videoPts := cornerPoints()
	tr := NewTransformer()
	require.NoError(t, tr.Calibrate(field, videoPts))

	path := filepath.Join(t.TempDir(), "field-cal.json")
	require.NoError(t, SaveSession(path, field, videoPts, tr))

	loaded, session, err := LoadSession(path)
	require.NoError(t, err)
	require.Equal(t, field, session.FieldPoints)
	require.True(t, loaded.Calibrated())

	// The reloaded transformer must agree with the original.
	wantX, wantY, err := tr.Transform(60, 26.65)
	require.NoError(t, err)
	gotX, gotY, err := loaded.Transform(60, 26.65)
	require.NoError(t, err)
	require.Equal(t, wantX, gotX)
	require.Equal(t, wantY, gotY)
}

func TestSaveSessionRequiresCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field-cal.json")
	err := SaveSession(path, nil, nil, NewTransformer())
	require.ErrorIs(t, err, ErrNotCalibrated)
}
