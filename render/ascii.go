package render

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Terminal cells are roughly twice as tall as they are wide.
const (
	cellWidth  = 10.0
	cellHeight = 20.0
)

// ASCIISurface rasterises a frame onto a character grid for terminals
type ASCIISurface struct {
	grid [][]rune
	out  []byte
}

// NewASCIISurface creates an empty ASCII surface
func NewASCIISurface() *ASCIISurface {
	return &ASCIISurface{}
}

// Begin allocates a grid for the frame; the background is ignored
func (s *ASCIISurface) Begin(width, height float64, _ string) {
	cols := max(int(width/cellWidth), 20)
	rows := max(int(height/cellHeight), 10)
	s.grid = make([][]rune, rows)
	for i := range s.grid {
		s.grid[i] = []rune(strings.Repeat(" ", cols))
	}
}

func (s *ASCIISurface) cell(p r2.Vec) (int, int) {
	return int(math.Floor(p.X / cellWidth)), int(math.Floor(p.Y / cellHeight))
}

func (s *ASCIISurface) set(x, y int, r rune, overwrite bool) {
	if y < 0 || y >= len(s.grid) || x < 0 || x >= len(s.grid[y]) {
		return
	}
	if !overwrite && s.grid[y][x] != ' ' {
		return
	}
	s.grid[y][x] = r
}

// Line plots the segment with Bresenham's algorithm
func (s *ASCIISurface) Line(from, to r2.Vec, _ Stroke) {
	if !finiteVec(from) || !finiteVec(to) {
		return
	}
	x1, y1 := s.cell(from)
	x2, y2 := s.cell(to)

	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 >= x2 {
		sx = -1
	}
	if y1 >= y2 {
		sy = -1
	}
	err := dx + dy
	for steps := 0; steps <= dx-dy; steps++ {
		s.set(x1, y1, '·', false)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

// Arrow plots the segment and marks the head cell with its direction
func (s *ASCIISurface) Arrow(from, to r2.Vec, stroke Stroke) {
	s.Line(from, to, stroke)
	if !finiteVec(from) || !finiteVec(to) {
		return
	}
	d := r2.Sub(to, from)
	var head rune
	if math.Abs(d.X)/cellWidth >= math.Abs(d.Y)/cellHeight {
		head = '>'
		if d.X < 0 {
			head = '<'
		}
	} else {
		head = 'v'
		if d.Y < 0 {
			head = '^'
		}
	}
	x, y := s.cell(to)
	s.set(x, y, head, true)
}

// Circle marks the node's cell
func (s *ASCIISurface) Circle(center r2.Vec, _ float64, fill Fill) {
	if !finiteVec(center) {
		return
	}
	x, y := s.cell(center)
	mark := 'O'
	if fill.StrokeWidth > 1 {
		mark = '@'
	}
	s.set(x, y, mark, true)
}

// Text writes the label centred on at, clipped to the grid
func (s *ASCIISurface) Text(at r2.Vec, text string, _ float64, _ string) {
	if !finiteVec(at) {
		return
	}
	runes := []rune(text)
	x, y := s.cell(at)
	x -= len(runes) / 2
	for i, r := range runes {
		s.set(x+i, y, r, true)
	}
}

// End flattens the grid
func (s *ASCIISurface) End() error {
	var b strings.Builder
	for _, row := range s.grid {
		b.WriteString(strings.TrimRight(string(row), " "))
		b.WriteByte('\n')
	}
	s.out = []byte(b.String())
	return nil
}

// Bytes returns the last completed frame
func (s *ASCIISurface) Bytes() []byte {
	return s.out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func finiteVec(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
