package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Op kinds recorded by DrawList
const (
	OpLine   = "line"
	OpArrow  = "arrow"
	OpCircle = "circle"
	OpText   = "text"
)

// Op is one recorded drawing primitive. Coordinates are screen space,
// rounded to two decimals so frames serialise compactly.
type Op struct {
	Kind        string  `json:"kind"`
	X1          float64 `json:"x1,omitempty"`
	Y1          float64 `json:"y1,omitempty"`
	X2          float64 `json:"x2,omitempty"`
	Y2          float64 `json:"y2,omitempty"`
	R           float64 `json:"r,omitempty"`
	Color       string  `json:"color,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	HeadSize    float64 `json:"headSize,omitempty"`
	Size        float64 `json:"size,omitempty"`
	Text        string  `json:"text,omitempty"`
}

// DrawList records a frame as a list of primitives. It is the surface used
// to stream frames to browser clients, which replay the ops on a canvas.
type DrawList struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Background string  `json:"background"`
	Ops        []Op    `json:"ops"`
}

// Begin resets the list for a new frame
func (d *DrawList) Begin(width, height float64, background string) {
	d.Width = width
	d.Height = height
	d.Background = background
	d.Ops = d.Ops[:0]
}

// Line records a segment
func (d *DrawList) Line(from, to r2.Vec, stroke Stroke) {
	d.Ops = append(d.Ops, Op{
		Kind:        OpLine,
		X1:          round(from.X),
		Y1:          round(from.Y),
		X2:          round(to.X),
		Y2:          round(to.Y),
		Color:       stroke.Color,
		StrokeWidth: stroke.Width,
	})
}

// Arrow records a segment with a head at to
func (d *DrawList) Arrow(from, to r2.Vec, stroke Stroke) {
	d.Ops = append(d.Ops, Op{
		Kind:        OpArrow,
		X1:          round(from.X),
		Y1:          round(from.Y),
		X2:          round(to.X),
		Y2:          round(to.Y),
		Color:       stroke.Color,
		StrokeWidth: stroke.Width,
		HeadSize:    stroke.HeadSize,
	})
}

// Circle records a node disc
func (d *DrawList) Circle(center r2.Vec, radius float64, fill Fill) {
	d.Ops = append(d.Ops, Op{
		Kind:        OpCircle,
		X1:          round(center.X),
		Y1:          round(center.Y),
		R:           round(radius),
		Color:       fill.Color,
		Stroke:      fill.Stroke,
		StrokeWidth: fill.StrokeWidth,
	})
}

// Text records a label
func (d *DrawList) Text(at r2.Vec, text string, size float64, color string) {
	d.Ops = append(d.Ops, Op{
		Kind:  OpText,
		X1:    round(at.X),
		Y1:    round(at.Y),
		Size:  round(size),
		Color: color,
		Text:  text,
	})
}

// End is a no-op; the list is complete once the last primitive is recorded
func (d *DrawList) End() error {
	return nil
}

// Count returns the number of recorded ops of the given kind
func (d *DrawList) Count(kind string) int {
	n := 0
	for _, op := range d.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// round keeps two decimals and maps non-finite values to zero so the list
// always encodes as JSON
func round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
