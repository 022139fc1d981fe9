package overlay

import (
	"image"
	"image/color"
)

// Canvas is the drawing capability the renderer needs from a frame backend.
// Implementations mutate a caller-owned frame buffer in place; the renderer
// never copies or retains the buffer itself. Keeping the renderer against
// this interface decouples the overlay algorithms from any particular
// graphics library.
type Canvas interface {
	// FillCircle draws a filled circle.
	FillCircle(center image.Point, radius int, c color.RGBA)
	// StrokeCircle draws a circle outline.
	StrokeCircle(center image.Point, radius, thickness int, c color.RGBA)
	// Line draws a solid line segment.
	Line(from, to image.Point, c color.RGBA, thickness int)
	// BlendLine draws a line blended over the frame at the given opacity,
	// 0 transparent through 1 opaque.
	BlendLine(from, to image.Point, c color.RGBA, thickness int, alpha float64)
	// Arrow draws a directional arrow from tail to tip.
	Arrow(from, to image.Point, c color.RGBA, thickness int)
	// Text draws s with its baseline-left corner at org.
	Text(s string, org image.Point, scale float64, c color.RGBA, thickness int)
	// TextSize reports the rendered width and height of s.
	TextSize(s string, scale float64, thickness int) image.Point
	// FillRect draws a filled rectangle.
	FillRect(r image.Rectangle, c color.RGBA)
	// BlendRect draws a filled rectangle blended at the given opacity.
	BlendRect(r image.Rectangle, c color.RGBA, alpha float64)
	// Size reports the frame width and height in pixels.
	Size() image.Point
}
