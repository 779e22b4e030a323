package render

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// SVGSurface draws into an in-memory SVG document
type SVGSurface struct {
	buf    bytes.Buffer
	body   bytes.Buffer
	out    []byte
	width  float64
	height float64
	bg     string
}

// NewSVGSurface creates an empty SVG surface
func NewSVGSurface() *SVGSurface {
	return &SVGSurface{}
}

// Begin starts a new document, discarding any previous frame
func (s *SVGSurface) Begin(width, height float64, background string) {
	s.buf.Reset()
	s.body.Reset()
	s.width, s.height, s.bg = width, height, background
}

// Line draws a plain segment
func (s *SVGSurface) Line(from, to r2.Vec, stroke Stroke) {
	fmt.Fprintf(&s.body, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.2f"%s/>`+"\n",
		from.X, from.Y, to.X, to.Y, html.EscapeString(stroke.Color), stroke.Width, dash(stroke))
}

// Arrow draws a segment with a filled head at to
func (s *SVGSurface) Arrow(from, to r2.Vec, stroke Stroke) {
	s.Line(from, to, stroke)
	if stroke.HeadSize <= 0 {
		return
	}
	d := r2.Sub(to, from)
	n := r2.Norm(d)
	if n == 0 {
		return
	}
	head := arrowHead(to, r2.Scale(1/n, d), stroke.HeadSize)
	fmt.Fprintf(&s.body, `<path d="M%.2f,%.2f L%.2f,%.2f L%.2f,%.2f z" fill="%s"/>`+"\n",
		head[0].X, head[0].Y, head[1].X, head[1].Y, head[2].X, head[2].Y, html.EscapeString(stroke.Color))
}

// Circle draws a filled node disc
func (s *SVGSurface) Circle(center r2.Vec, radius float64, fill Fill) {
	fmt.Fprintf(&s.body, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"`,
		center.X, center.Y, radius, html.EscapeString(fill.Color))
	if fill.Stroke != "" {
		fmt.Fprintf(&s.body, ` stroke="%s" stroke-width="%.2f"`, html.EscapeString(fill.Stroke), fill.StrokeWidth)
	}
	s.body.WriteString("/>\n")
}

// Text draws a label centred on at
func (s *SVGSurface) Text(at r2.Vec, text string, size float64, color string) {
	fmt.Fprintf(&s.body, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%.2f" fill="%s" text-anchor="middle">%s</text>`+"\n",
		at.X, at.Y, size, html.EscapeString(color), html.EscapeString(text))
}

// End closes the document
func (s *SVGSurface) End() error {
	fmt.Fprintf(&s.buf, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%g" height="%g" viewBox="0 0 %g %g" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
`, s.width, s.height, s.width, s.height, html.EscapeString(s.bg))
	s.buf.Write(s.body.Bytes())
	s.buf.WriteString("</svg>\n")
	s.out = append(s.out[:0], s.buf.Bytes()...)
	return nil
}

// Bytes returns the last completed document
func (s *SVGSurface) Bytes() []byte {
	return s.out
}

func dash(stroke Stroke) string {
	if stroke.DashArray == "" {
		return ""
	}
	return fmt.Sprintf(` stroke-dasharray="%s"`, html.EscapeString(stroke.DashArray))
}

// arrowHead returns the tip and two base corners of a head of the given
// length pointing along the unit vector dir
func arrowHead(tip, dir r2.Vec, size float64) [3]r2.Vec {
	base := r2.Sub(tip, r2.Scale(size, dir))
	normal := r2.Vec{X: -dir.Y, Y: dir.X}
	half := size * math.Tan(math.Pi/7)
	return [3]r2.Vec{
		tip,
		r2.Add(base, r2.Scale(half, normal)),
		r2.Sub(base, r2.Scale(half, normal)),
	}
}
