package render

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Stroke describes how a line or arrow is drawn
type Stroke struct {
	Color     string
	Width     float64
	HeadSize  float64 // Arrow head length, ignored by Line
	DashArray string  // Empty for solid lines
}

// Fill describes how a node shape is drawn
type Fill struct {
	Color       string
	Stroke      string
	StrokeWidth float64
}

// Surface is a 2D drawing target. All coordinates are screen space.
//
// A frame is one Begin call, any number of primitives, then End. Surfaces
// are not safe for concurrent use.
type Surface interface {
	Begin(width, height float64, background string)
	Line(from, to r2.Vec, stroke Stroke)
	Arrow(from, to r2.Vec, stroke Stroke) // Head is drawn at to
	Circle(center r2.Vec, radius float64, fill Fill)
	Text(at r2.Vec, text string, size float64, color string)
	End() error
}
