package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Session captures a completed field calibration so a play can be re-rendered
// later without re-marking points. Field space is yards (120 x 53.3 including
// end zones), video space is pixels.
type Session struct {
	CalibrationType string        `json:"calibration_type"`
	Timestamp       time.Time     `json:"timestamp"`
	FieldPoints     []Point       `json:"field_points"`
	VideoPoints     []Point       `json:"video_points"`
	Homography      [3][3]float64 `json:"homography"`
}

// SaveSession writes the calibration point pairs and the derived homography
// of a calibrated transformer to path as JSON.
func SaveSession(path string, fieldPts, videoPts []Point, t *Transformer) error {
	h, err := t.Matrix()
	if err != nil {
		return err
	}
	session := Session{
		CalibrationType: "field_homography",
		Timestamp:       time.Now(),
		FieldPoints:     fieldPts,
		VideoPoints:     videoPts,
		Homography:      h,
	}
	jsonData, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal calibration session: %w", err)
	}
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to save calibration session: %w", err)
	}
	return nil
}

// LoadSession reads a saved calibration session and rebuilds a calibrated
// transformer from its point pairs. The homography is recomputed rather than
// trusted from disk so a hand-edited point file stays consistent.
func LoadSession(path string) (*Transformer, *Session, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read calibration session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, nil, fmt.Errorf("failed to parse calibration session %s: %w", path, err)
	}
	t := NewTransformer()
	if err := t.Calibrate(session.FieldPoints, session.VideoPoints); err != nil {
		return nil, nil, err
	}
	session.Homography, _ = t.Matrix()
	return t, &session, nil
}
