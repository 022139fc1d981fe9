package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// MatCanvas implements Canvas on a gocv.Mat video frame. The Mat stays owned
// by the caller, which closes it; MatCanvas only draws.
type MatCanvas struct {
	Mat *gocv.Mat
}

// NewMatCanvas wraps frame for drawing.
func NewMatCanvas(frame *gocv.Mat) *MatCanvas {
	return &MatCanvas{Mat: frame}
}

func (mc *MatCanvas) FillCircle(center image.Point, radius int, c color.RGBA) {
	gocv.Circle(mc.Mat, center, radius, c, -1)
}

func (mc *MatCanvas) StrokeCircle(center image.Point, radius, thickness int, c color.RGBA) {
	gocv.Circle(mc.Mat, center, radius, c, thickness)
}

func (mc *MatCanvas) Line(from, to image.Point, c color.RGBA, thickness int) {
	gocv.Line(mc.Mat, from, to, c, thickness)
}

// BlendLine draws the segment on a scratch copy and alpha-blends it back so
// the line itself is translucent rather than just thin.
func (mc *MatCanvas) BlendLine(from, to image.Point, c color.RGBA, thickness int, alpha float64) {
	scratch := mc.Mat.Clone()
	defer scratch.Close()
	gocv.Line(&scratch, from, to, c, thickness)
	gocv.AddWeighted(scratch, alpha, *mc.Mat, 1-alpha, 0, mc.Mat)
}

func (mc *MatCanvas) Arrow(from, to image.Point, c color.RGBA, thickness int) {
	gocv.ArrowedLine(mc.Mat, from, to, c, thickness)
}

func (mc *MatCanvas) Text(s string, org image.Point, scale float64, c color.RGBA, thickness int) {
	gocv.PutText(mc.Mat, s, org, gocv.FontHersheySimplex, scale, c, thickness)
}

func (mc *MatCanvas) TextSize(s string, scale float64, thickness int) image.Point {
	return gocv.GetTextSize(s, gocv.FontHersheySimplex, scale, thickness)
}

func (mc *MatCanvas) FillRect(r image.Rectangle, c color.RGBA) {
	gocv.Rectangle(mc.Mat, r, c, -1)
}

func (mc *MatCanvas) BlendRect(r image.Rectangle, c color.RGBA, alpha float64) {
	scratch := mc.Mat.Clone()
	defer scratch.Close()
	gocv.Rectangle(&scratch, r, c, -1)
	gocv.AddWeighted(scratch, alpha, *mc.Mat, 1-alpha, 0, mc.Mat)
}

func (mc *MatCanvas) Size() image.Point {
	return image.Pt(mc.Mat.Cols(), mc.Mat.Rows())
}
