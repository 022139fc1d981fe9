package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"fieldsync/calibration"
	"fieldsync/tracking"
)

// canvasOp records one draw call against the fake canvas.
type canvasOp struct {
	kind      string
	from, to  image.Point
	center    image.Point
	radius    int
	thickness int
	color     color.RGBA
	alpha     float64
	text      string
	rect      image.Rectangle
}

// fakeCanvas records draw calls so tests can assert on the renderer's output
// without a graphics backend.
type fakeCanvas struct {
	ops  []canvasOp
	size image.Point
}

func newFakeCanvas() *fakeCanvas {
	return &fakeCanvas{size: image.Pt(1920, 1080)}
}

func (f *fakeCanvas) FillCircle(center image.Point, radius int, c color.RGBA) {
	f.ops = append(f.ops, canvasOp{kind: "fillCircle", center: center, radius: radius, color: c})
}

func (f *fakeCanvas) StrokeCircle(center image.Point, radius, thickness int, c color.RGBA) {
	f.ops = append(f.ops, canvasOp{kind: "strokeCircle", center: center, radius: radius, thickness: thickness, color: c})
}

func (f *fakeCanvas) Line(from, to image.Point, c color.RGBA, thickness int) {
	f.ops = append(f.ops, canvasOp{kind: "line", from: from, to: to, color: c, thickness: thickness})
}

func (f *fakeCanvas) BlendLine(from, to image.Point, c color.RGBA, thickness int, alpha float64) {
	f.ops = append(f.ops, canvasOp{kind: "blendLine", from: from, to: to, color: c, thickness: thickness, alpha: alpha})
}

func (f *fakeCanvas) Arrow(from, to image.Point, c color.RGBA, thickness int) {
	f.ops = append(f.ops, canvasOp{kind: "arrow", from: from, to: to, color: c, thickness: thickness})
}

func (f *fakeCanvas) Text(s string, org image.Point, scale float64, c color.RGBA, thickness int) {
	f.ops = append(f.ops, canvasOp{kind: "text", text: s, from: org, color: c, thickness: thickness})
}

func (f *fakeCanvas) TextSize(s string, scale float64, thickness int) image.Point {
	return image.Pt(10*len(s), 20)
}

func (f *fakeCanvas) FillRect(r image.Rectangle, c color.RGBA) {
	f.ops = append(f.ops, canvasOp{kind: "fillRect", rect: r, color: c})
}

func (f *fakeCanvas) BlendRect(r image.Rectangle, c color.RGBA, alpha float64) {
	f.ops = append(f.ops, canvasOp{kind: "blendRect", rect: r, color: c, alpha: alpha})
}

func (f *fakeCanvas) Size() image.Point {
	return f.size
}

func (f *fakeCanvas) byKind(kind string) []canvasOp {
	var out []canvasOp
	for _, op := range f.ops {
		if op.kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// scaleTransformer maps field yards onto pixels at 10 px per yard.
func scaleTransformer(t *testing.T) *calibration.Transformer {
	t.Helper()
	tr := calibration.NewTransformer()
	err := tr.Calibrate(
		[]calibration.Point{{0, 0}, {100, 0}, {0, 50}, {100, 50}},
		[]calibration.Point{{0, 0}, {1000, 0}, {0, 500}, {1000, 500}},
	)
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	return tr
}

func newTestRenderer(t *testing.T, cfg Config) *Renderer {
	t.Helper()
	r, err := NewRenderer(scaleTransformer(t), cfg)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestNewRendererRequiresCalibration(t *testing.T) {
	if _, err := NewRenderer(nil, Config{}); !errors.Is(err, calibration.ErrNotCalibrated) {
		t.Fatalf("nil transformer: got %v, want ErrNotCalibrated", err)
	}
	if _, err := NewRenderer(calibration.NewTransformer(), Config{}); !errors.Is(err, calibration.ErrNotCalibrated) {
		t.Fatalf("uncalibrated transformer: got %v, want ErrNotCalibrated", err)
	}
}

func TestDrawMarker(t *testing.T) {
	r := newTestRenderer(t, Config{})
	c := newFakeCanvas()

	if err := r.DrawMarker(c, 101, 25, 10, "offense", 15); err != nil {
		t.Fatalf("DrawMarker: %v", err)
	}

	fills := c.byKind("fillCircle")
	if len(fills) != 1 {
		t.Fatalf("fillCircle count = %d, want 1", len(fills))
	}
	if fills[0].center != image.Pt(250, 100) {
		t.Errorf("marker center = %v, want (250, 100)", fills[0].center)
	}
	if fills[0].color != defaultTeamColors()["offense"] {
		t.Errorf("marker color = %v, want offense color", fills[0].color)
	}

	texts := c.byKind("text")
	if len(texts) != 2 {
		t.Fatalf("jersey text count = %d, want 2 (outline + fill)", len(texts))
	}
	if texts[0].text != "15" {
		t.Errorf("jersey text = %q, want \"15\"", texts[0].text)
	}

	mark, ok := r.State().LastMarker(101)
	if !ok || mark.Center != image.Pt(250, 100) {
		t.Errorf("LastMarker = %v, %v; want recorded at (250, 100)", mark, ok)
	}
}

func TestDrawMarkerUnknownTeamFallback(t *testing.T) {
	r := newTestRenderer(t, Config{})
	c := newFakeCanvas()

	if err := r.DrawMarker(c, 5, 10, 10, "mystery", 0); err != nil {
		t.Fatalf("DrawMarker: %v", err)
	}
	fills := c.byKind("fillCircle")
	if fills[0].color != colorWhite {
		t.Errorf("unknown team color = %v, want white fallback", fills[0].color)
	}
	if len(c.byKind("text")) != 0 {
		t.Error("no jersey text expected when jersey is absent")
	}
}

func TestTrailOpacityStrictlyDecreasing(t *testing.T) {
	r := newTestRenderer(t, Config{TrailLength: 8})
	c := newFakeCanvas()

	for i := 0; i < 6; i++ {
		if err := r.DrawMarker(c, 101, float64(i*5), 10, "offense", 15); err != nil {
			t.Fatalf("DrawMarker: %v", err)
		}
	}
	c.ops = nil
	r.DrawTrail(c, 101, "offense")

	segments := c.byKind("blendLine")
	if len(segments) != 5 {
		t.Fatalf("segment count = %d, want 5", len(segments))
	}
	// Segments are drawn newest first; opacity must fall strictly along the
	// trail toward the oldest position.
	for i := 1; i < len(segments); i++ {
		if segments[i].alpha >= segments[i-1].alpha {
			t.Fatalf("segment %d alpha %v >= newer segment alpha %v: opacity not strictly decreasing",
				i, segments[i].alpha, segments[i-1].alpha)
		}
	}
	if last := segments[len(segments)-1].alpha; last <= 0 {
		t.Errorf("oldest segment alpha = %v, must stay positive", last)
	}
}

func TestTrailBounded(t *testing.T) {
	r := newTestRenderer(t, Config{TrailLength: 4})
	c := newFakeCanvas()

	for i := 0; i < 10; i++ {
		if err := r.DrawMarker(c, 101, float64(i), 10, "offense", 15); err != nil {
			t.Fatalf("DrawMarker: %v", err)
		}
	}
	trail := r.State().Trail(101)
	if len(trail) != 4 {
		t.Fatalf("trail length = %d, want 4 (oldest evicted)", len(trail))
	}
	// The survivors are the most recent positions.
	if trail[len(trail)-1] != image.Pt(90, 100) {
		t.Errorf("newest trail point = %v, want (90, 100)", trail[len(trail)-1])
	}

	c.ops = nil
	r.DrawTrail(c, 101, "offense")
	if got := len(c.byKind("blendLine")); got != 3 {
		t.Errorf("segment count = %d, want 3", got)
	}
}

func TestSeparationColorTiers(t *testing.T) {
	cases := []struct {
		distance float64
		want     color.RGBA
		tier     string
	}{
		{1.5, colorTight, "tight"},
		{3.0, colorModerate, "moderate"},
		{8.0, colorOpen, "open"},
		{2.0, colorModerate, "moderate at boundary"},
		{5.0, colorOpen, "open at boundary"},
	}
	for _, tc := range cases {
		if got := SeparationColor(tc.distance); got != tc.want {
			t.Errorf("SeparationColor(%v) = %v, want %v (%s)", tc.distance, got, tc.want, tc.tier)
		}
	}
}

func TestDrawSeparation(t *testing.T) {
	r := newTestRenderer(t, Config{})
	c := newFakeCanvas()

	if err := r.DrawSeparation(c, 10, 10, 10, 18, 8.0); err != nil {
		t.Fatalf("DrawSeparation: %v", err)
	}

	lines := c.byKind("line")
	if len(lines) != 1 {
		t.Fatalf("line count = %d, want 1", len(lines))
	}
	if lines[0].color != colorOpen {
		t.Errorf("separation line color = %v, want open tier", lines[0].color)
	}

	texts := c.byKind("text")
	if len(texts) != 1 || !strings.Contains(texts[0].text, "8.0 yds") {
		t.Fatalf("separation label = %v, want one \"8.0 yds\" label", texts)
	}
	if len(c.byKind("fillRect")) != 1 {
		t.Error("label background rectangle missing")
	}
}

func TestVelocityVectorCapped(t *testing.T) {
	r := newTestRenderer(t, Config{})

	cases := []struct {
		speed   float64
		wantLen float64
	}{
		{2, 10},   // 5 px per yd/s
		{8, 40},
		{10, 50},  // exactly at the cap
		{100, 50}, // absurd speed still capped
	}
	for _, tc := range cases {
		c := newFakeCanvas()
		if err := r.DrawVelocityVector(c, 50, 25, tc.speed, 30, "offense"); err != nil {
			t.Fatalf("DrawVelocityVector: %v", err)
		}
		arrows := c.byKind("arrow")
		if len(arrows) != 1 {
			t.Fatalf("arrow count = %d, want 1", len(arrows))
		}
		dx := float64(arrows[0].to.X - arrows[0].from.X)
		dy := float64(arrows[0].to.Y - arrows[0].from.Y)
		length := math.Hypot(dx, dy)
		if math.Abs(length-tc.wantLen) > 1.5 {
			t.Errorf("speed %v: arrow length = %.1f, want ~%.1f", tc.speed, length, tc.wantLen)
		}
	}
}

func TestBallPathPersists(t *testing.T) {
	r := newTestRenderer(t, Config{TrailLength: 3})
	c := newFakeCanvas()

	// The trail buffer is bounded but the ball path keeps every position.
	for i := 0; i < 8; i++ {
		if err := r.DrawMarker(c, tracking.BallEntityID, float64(i*10), 25, tracking.BallTeam, 0); err != nil {
			t.Fatalf("DrawMarker: %v", err)
		}
	}
	if got := len(r.State().BallPath()); got != 8 {
		t.Fatalf("ball path length = %d, want 8", got)
	}

	c.ops = nil
	r.DrawBallPath(c)
	if got := len(c.byKind("line")); got != 7 {
		t.Errorf("ball polyline segments = %d, want 7", got)
	}
}

func TestBeginFrameOrder(t *testing.T) {
	r := newTestRenderer(t, Config{})

	if err := r.BeginFrame(5); err != nil {
		t.Fatalf("BeginFrame(5): %v", err)
	}
	if err := r.BeginFrame(5); err != nil {
		t.Fatalf("BeginFrame(5) repeat: %v", err)
	}
	if err := r.BeginFrame(9); err != nil {
		t.Fatalf("BeginFrame(9): %v", err)
	}
	if err := r.BeginFrame(3); !errors.Is(err, ErrFrameOrder) {
		t.Fatalf("BeginFrame(3) after 9: got %v, want ErrFrameOrder", err)
	}
}

func TestDrawInfoPanel(t *testing.T) {
	r := newTestRenderer(t, Config{})
	c := newFakeCanvas()

	keys := []string{"Play", "Frame"}
	info := map[string]string{"Play": "64", "Frame": "12"}
	r.DrawInfoPanel(c, keys, info, TopLeft)

	if len(c.byKind("blendRect")) != 1 {
		t.Fatal("panel background missing")
	}
	texts := c.byKind("text")
	if len(texts) != 2 {
		t.Fatalf("panel line count = %d, want 2", len(texts))
	}
	for i, key := range keys {
		want := fmt.Sprintf("%s: %s", key, info[key])
		if texts[i].text != want {
			t.Errorf("panel line %d = %q, want %q", i, texts[i].text, want)
		}
	}
}

func TestSessionIDsUnique(t *testing.T) {
	a := newTestRenderer(t, Config{})
	b := newTestRenderer(t, Config{})
	if a.SessionID() == b.SessionID() {
		t.Error("two sessions share an ID")
	}
}
