package video

import (
	"fmt"

	"gocv.io/x/gocv"
)

// FrameReadError reports a frame the capture backend could not produce. It is
// returned per frame so the caller can substitute a blank frame, retry, or
// abort the play; the source itself never retries or skips silently.
type FrameReadError struct {
	Frame int
}

func (e *FrameReadError) Error() string {
	return fmt.Sprintf("video: failed to read frame %d", e.Frame)
}

// Source is a sequential seek-and-read view over one play's broadcast video.
// It is built for single-session, single-thread use; concurrent plays each
// open their own Source.
type Source struct {
	capture *gocv.VideoCapture
	path    string

	FPS        float64
	FrameCount int
	Width      int
	Height     int
}

// Open opens the video at path and captures its timing and geometry.
func Open(path string) (*Source, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	s := &Source{
		capture:    capture,
		path:       path,
		FPS:        capture.Get(gocv.VideoCaptureFPS),
		FrameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
		Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}
	if s.FPS <= 0 || s.FrameCount <= 0 {
		capture.Close()
		return nil, fmt.Errorf("video: %s reports no readable frames (fps=%.2f frames=%d)", path, s.FPS, s.FrameCount)
	}
	return s, nil
}

// ReadFrame seeks to frame n and decodes it into dst. The read is synchronous
// with no retry; a failure comes back as a *FrameReadError.
func (s *Source) ReadFrame(n int, dst *gocv.Mat) error {
	s.capture.Set(gocv.VideoCapturePosFrames, float64(n))
	if ok := s.capture.Read(dst); !ok || dst.Empty() {
		return &FrameReadError{Frame: n}
	}
	return nil
}

// SyncedFrame resolves trackingFrame through m and reads the matching video
// frame into dst, returning the resolved video frame number.
func (s *Source) SyncedFrame(m *SyncMapper, trackingFrame int, dst *gocv.Mat) (int, error) {
	n, err := m.Resolve(trackingFrame)
	if err != nil {
		return 0, err
	}
	return n, s.ReadFrame(n, dst)
}

// Close releases the capture device.
func (s *Source) Close() error {
	return s.capture.Close()
}
