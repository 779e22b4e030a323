package models

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Viewport maps graph coordinates to screen coordinates:
//
//	screen = graph*Scale + Offset
//
// Graph space is centred on the origin, so a fresh viewport places the
// origin in the middle of the drawing surface.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
	Offset r2.Vec  `json:"offset"`
}

// NewViewport creates an unzoomed viewport centred on the graph origin
func NewViewport(width, height float64) Viewport {
	return Viewport{
		Width:  width,
		Height: height,
		Scale:  1,
		Offset: r2.Vec{X: width / 2, Y: height / 2},
	}
}

func (v Viewport) scale() float64 {
	if v.Scale <= 0 {
		return 1
	}
	return v.Scale
}

// ToScreen converts a graph-space point to screen space
func (v Viewport) ToScreen(p r2.Vec) r2.Vec {
	return r2.Add(r2.Scale(v.scale(), p), v.Offset)
}

// ToGraph converts a screen-space point to graph space
func (v Viewport) ToGraph(p r2.Vec) r2.Vec {
	return r2.Scale(1/v.scale(), r2.Sub(p, v.Offset))
}

// Center returns the middle of the drawing surface in screen space
func (v Viewport) Center() r2.Vec {
	return r2.Vec{X: v.Width / 2, Y: v.Height / 2}
}

// Selection is the single-node selection state. The zero value selects
// nothing.
type Selection struct {
	ID  int  `json:"id"`
	Set bool `json:"set"`
}

// Selected returns a selection holding id
func Selected(id int) Selection {
	return Selection{ID: id, Set: true}
}

// Is reports whether id is the selected node
func (s Selection) Is(id int) bool {
	return s.Set && s.ID == id
}
