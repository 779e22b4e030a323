package render

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/cognilink/models"
)

// Zoom limits for ZoomAt and Fit
const (
	MinScale = 0.05
	MaxScale = 20.0
)

// SelectedScale enlarges the selected node's radius
const SelectedScale = 1.3

type edgeKey struct{ source, target int }

// Adapter draws a graph onto a Surface and owns the viewport.
//
// Render never mutates the graph or the selection. Resize may be called
// from any goroutine; the new size is applied by ApplyPending at the start
// of the next frame so a frame is never drawn with a half-updated viewport.
// Every other method must be called from the frame loop.
type Adapter struct {
	surface  Surface
	theme    *Theme
	viewport models.Viewport

	mu      sync.Mutex
	pending *r2.Vec
}

// NewAdapter creates an adapter for a surface of the given size
func NewAdapter(surface Surface, width, height float64, theme *Theme) *Adapter {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Adapter{
		surface:  surface,
		theme:    theme,
		viewport: models.NewViewport(width, height),
	}
}

// Viewport returns the current viewport
func (a *Adapter) Viewport() models.Viewport {
	return a.viewport
}

// Theme returns the theme in use
func (a *Adapter) Theme() *Theme {
	return a.theme
}

// NodeRadius returns the rendered node radius in graph units
func (a *Adapter) NodeRadius() float64 {
	return a.theme.NodeRadius
}

// SelectedRadius returns the selected node's rendered radius in graph units
func (a *Adapter) SelectedRadius() float64 {
	return a.theme.NodeRadius * SelectedScale
}

// Resize queues a container size change
func (a *Adapter) Resize(width, height float64) {
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return
	}
	a.mu.Lock()
	a.pending = &r2.Vec{X: width, Y: height}
	a.mu.Unlock()
}

// ApplyPending applies a queued resize. The graph origin is kept at the same
// place relative to the container centre, so any pan survives the resize and
// node positions are untouched. It reports whether the viewport changed.
func (a *Adapter) ApplyPending() bool {
	a.mu.Lock()
	size := a.pending
	a.pending = nil
	a.mu.Unlock()

	if size == nil || (size.X == a.viewport.Width && size.Y == a.viewport.Height) {
		return false
	}

	oldCenter := a.viewport.Center()
	a.viewport.Width = size.X
	a.viewport.Height = size.Y
	a.viewport.Offset = r2.Add(a.viewport.Offset, r2.Sub(a.viewport.Center(), oldCenter))
	return true
}

// Pan moves the camera by delta screen pixels
func (a *Adapter) Pan(delta r2.Vec) {
	if math.IsNaN(delta.X) || math.IsNaN(delta.Y) || math.IsInf(delta.X, 0) || math.IsInf(delta.Y, 0) {
		return
	}
	a.viewport.Offset = r2.Add(a.viewport.Offset, delta)
}

// ZoomAt multiplies the zoom by factor keeping the graph point under the
// screen point anchor fixed
func (a *Adapter) ZoomAt(anchor r2.Vec, factor float64) {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return
	}
	scale := clampScale(a.viewport.Scale * factor)
	pivot := a.viewport.ToGraph(anchor)
	a.viewport.Scale = scale
	a.viewport.Offset = r2.Sub(anchor, r2.Scale(scale, pivot))
}

// Fit zooms and pans so every node is visible with padding screen pixels
// around the graph. An empty graph resets the viewport.
func (a *Adapter) Fit(g *models.Graph, padding float64) {
	w, h := a.viewport.Width, a.viewport.Height
	if g.Len() == 0 {
		a.viewport = models.NewViewport(w, h)
		return
	}

	box := r2.Box{Min: g.Nodes[0].Position, Max: g.Nodes[0].Position}
	for _, n := range g.Nodes[1:] {
		box.Min.X = math.Min(box.Min.X, n.Position.X)
		box.Min.Y = math.Min(box.Min.Y, n.Position.Y)
		box.Max.X = math.Max(box.Max.X, n.Position.X)
		box.Max.Y = math.Max(box.Max.Y, n.Position.Y)
	}
	margin := a.theme.NodeRadius + a.theme.FontSize*2
	box.Min = r2.Sub(box.Min, r2.Vec{X: margin, Y: margin})
	box.Max = r2.Add(box.Max, r2.Vec{X: margin, Y: margin})

	size := box.Size()
	availW := math.Max(w-2*padding, 1)
	availH := math.Max(h-2*padding, 1)
	scale := clampScale(math.Min(availW/size.X, availH/size.Y))

	middle := r2.Scale(0.5, r2.Add(box.Min, box.Max))
	a.viewport.Scale = scale
	a.viewport.Offset = r2.Sub(a.viewport.Center(), r2.Scale(scale, middle))
}

// LabelFontSize returns the label size in graph units: inversely
// proportional to the zoom so labels keep their on-screen size, but never
// below the theme's minimum.
func (a *Adapter) LabelFontSize() float64 {
	scale := a.viewport.Scale
	if scale <= 0 {
		scale = 1
	}
	return math.Max(a.theme.FontSize/scale, a.theme.MinFontSize)
}

// Render draws one frame of g
func (a *Adapter) Render(g *models.Graph, selection models.Selection) error {
	v := a.viewport
	t := a.theme
	a.surface.Begin(v.Width, v.Height, t.Background)

	if g.Len() == 0 {
		return a.surface.End()
	}

	radius := t.NodeRadius * v.Scale

	present := make(map[edgeKey]bool, len(g.Edges))
	for _, e := range g.Edges {
		present[edgeKey{e.Source, e.Target}] = true
	}

	stroke := Stroke{Color: t.EdgeColor, Width: t.EdgeWidth, HeadSize: t.ArrowSize}
	drawn := make(map[edgeKey]bool, len(g.Edges))
	for _, e := range g.Edges {
		key := edgeKey{e.Source, e.Target}
		if drawn[key] || !g.Valid(e.Source) || !g.Valid(e.Target) || e.Source == e.Target {
			continue
		}
		drawn[key] = true

		from := v.ToScreen(g.Nodes[e.Source].Position)
		to := v.ToScreen(g.Nodes[e.Target].Position)
		delta := r2.Sub(to, from)
		d := r2.Norm(delta)
		if d == 0 {
			continue
		}
		dir := r2.Scale(1/d, delta)

		if present[edgeKey{e.Target, e.Source}] {
			// Each direction of a pair is shifted to its own side.
			normal := r2.Vec{X: -dir.Y, Y: dir.X}
			shift := r2.Scale(t.PairOffset, normal)
			from = r2.Add(from, shift)
			to = r2.Add(to, shift)
		}
		if d > 2*radius {
			from = r2.Add(from, r2.Scale(radius, dir))
			to = r2.Sub(to, r2.Scale(radius, dir))
		}

		if t.Arrows {
			a.surface.Arrow(from, to, stroke)
		} else {
			a.surface.Line(from, to, stroke)
		}
	}

	// Nodes are drawn in id order; the highest id ends up on top.
	for _, n := range g.Nodes {
		center := v.ToScreen(n.Position)
		fill := Fill{Color: t.NodeColor(n.ID), Stroke: "rgba(0,0,0,0.3)", StrokeWidth: 0.5}
		r := radius
		if selection.Is(n.ID) {
			fill = Fill{Color: t.SelectedColor, Stroke: t.SelectedStroke, StrokeWidth: 2}
			r = radius * SelectedScale
		}
		a.surface.Circle(center, r, fill)
	}

	if t.Labels {
		font := a.LabelFontSize() * v.Scale
		for _, n := range g.Nodes {
			if n.Label == "" {
				continue
			}
			center := v.ToScreen(n.Position)
			at := r2.Vec{X: center.X, Y: center.Y + radius + font}
			a.surface.Text(at, n.Label, font, t.LabelColor)
		}
	}

	return a.surface.End()
}

func clampScale(s float64) float64 {
	if math.IsNaN(s) {
		return 1
	}
	return math.Max(MinScale, math.Min(MaxScale, s))
}
