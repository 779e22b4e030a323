package render

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/cognilink/models"
)

func chain(c *qt.C) *models.Graph {
	g, err := models.Build(5, []string{"A", "B", "C", "D", "E"}, [][]int{
		{0, 1, 0, 0, 0},
		{0, 0, 1, 0, 0},
		{0, 0, 0, 1, 1},
		{1, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})
	c.Assert(err, qt.IsNil)
	return g
}

func pair(c *qt.C) *models.Graph {
	g, err := models.Build(2, []string{"A", "B"}, [][]int{{0, 1}, {1, 0}})
	c.Assert(err, qt.IsNil)
	return g
}

func TestRenderChain(t *testing.T) {
	c := qt.New(t)

	g := chain(c)
	var d DrawList
	a := NewAdapter(&d, 800, 600, nil)
	c.Assert(a.Render(g, models.Selection{}), qt.IsNil)

	c.Assert(d.Width, qt.Equals, 800.0)
	c.Assert(d.Background, qt.Equals, "#023047")
	c.Assert(d.Count(OpArrow), qt.Equals, 5)
	c.Assert(d.Count(OpCircle), qt.Equals, 5)
	c.Assert(d.Count(OpText), qt.Equals, 5)
	for _, op := range d.Ops {
		if op.Kind == OpCircle {
			c.Assert(op.Color, qt.Not(qt.Equals), DefaultTheme().SelectedColor)
		}
	}
}

func TestRenderDoesNotMutate(t *testing.T) {
	c := qt.New(t)

	g := chain(c)
	before := append([]models.Node(nil), g.Nodes...)
	edges := append([]models.Edge(nil), g.Edges...)
	sel := models.Selected(2)

	a := NewAdapter(&DrawList{}, 800, 600, nil)
	c.Assert(a.Render(g, sel), qt.IsNil)
	c.Assert(g.Nodes, qt.DeepEquals, before)
	c.Assert(g.Edges, qt.DeepEquals, edges)
	c.Assert(sel, qt.Equals, models.Selected(2))
}

func TestRenderSelectedNode(t *testing.T) {
	c := qt.New(t)

	g := chain(c)
	var d DrawList
	a := NewAdapter(&d, 800, 600, nil)
	c.Assert(a.Render(g, models.Selected(3)), qt.IsNil)

	var selected []Op
	for _, op := range d.Ops {
		if op.Kind == OpCircle && op.Color == DefaultTheme().SelectedColor {
			selected = append(selected, op)
		}
	}
	c.Assert(selected, qt.HasLen, 1)
	want := a.Viewport().ToScreen(g.Nodes[3].Position)
	c.Assert(selected[0].X1, qt.Equals, round(want.X))
	c.Assert(selected[0].Y1, qt.Equals, round(want.Y))
}

func TestRenderBidirectionalPairIsDistinguishable(t *testing.T) {
	c := qt.New(t)

	var d DrawList
	a := NewAdapter(&d, 800, 600, nil)
	c.Assert(a.Render(pair(c), models.Selection{}), qt.IsNil)
	c.Assert(d.Count(OpArrow), qt.Equals, 2)

	var arrows []Op
	for _, op := range d.Ops {
		if op.Kind == OpArrow {
			arrows = append(arrows, op)
		}
	}
	// The reverse arrow must not retrace the forward one.
	fwd, rev := arrows[0], arrows[1]
	c.Assert(fwd.X1 == rev.X2 && fwd.Y1 == rev.Y2 && fwd.X2 == rev.X1 && fwd.Y2 == rev.Y1, qt.IsFalse)
	c.Assert(math.Abs(fwd.Y1-rev.Y1), qt.Equals, 2*DefaultTheme().PairOffset)
}

func TestRenderTrimsArrowsToNodeBoundary(t *testing.T) {
	c := qt.New(t)

	g, err := models.Build(2, []string{"A", "B"}, [][]int{{0, 1}, {0, 0}})
	c.Assert(err, qt.IsNil)

	var d DrawList
	a := NewAdapter(&d, 800, 600, nil)
	c.Assert(a.Render(g, models.Selection{}), qt.IsNil)

	target := a.Viewport().ToScreen(g.Nodes[1].Position)
	arrow := d.Ops[0]
	c.Assert(arrow.Kind, qt.Equals, OpArrow)
	tip := r2.Vec{X: arrow.X2, Y: arrow.Y2}
	c.Assert(math.Abs(r2.Norm(r2.Sub(tip, target))-DefaultTheme().NodeRadius) < 0.02, qt.IsTrue)
}

func TestRenderEmptyGraph(t *testing.T) {
	c := qt.New(t)

	var d DrawList
	a := NewAdapter(&d, 320, 240, nil)
	c.Assert(a.Render(&models.Graph{}, models.Selection{}), qt.IsNil)
	c.Assert(d.Ops, qt.HasLen, 0)
	c.Assert(d.Height, qt.Equals, 240.0)

	c.Assert(a.Render(nil, models.Selection{}), qt.IsNil)
	c.Assert(d.Ops, qt.HasLen, 0)
}

func TestLabelFontSize(t *testing.T) {
	c := qt.New(t)

	a := NewAdapter(&DrawList{}, 800, 600, nil)
	c.Assert(a.LabelFontSize(), qt.Equals, 12.0)

	a.ZoomAt(r2.Vec{X: 400, Y: 300}, 2)
	c.Assert(a.LabelFontSize(), qt.Equals, 6.0)

	// Zoomed far in the label bottoms out at the minimum size.
	a.ZoomAt(r2.Vec{X: 400, Y: 300}, 4)
	c.Assert(a.LabelFontSize(), qt.Equals, 4.0)

	a.ZoomAt(r2.Vec{X: 400, Y: 300}, 1.0/16)
	c.Assert(a.LabelFontSize(), qt.Equals, 24.0)
}

func TestResizeIsAppliedAtFrameStart(t *testing.T) {
	c := qt.New(t)

	a := NewAdapter(&DrawList{}, 800, 600, nil)
	a.Pan(r2.Vec{X: 10, Y: -5})

	a.Resize(1000, 400)
	c.Assert(a.Viewport().Width, qt.Equals, 800.0)

	c.Assert(a.ApplyPending(), qt.IsTrue)
	v := a.Viewport()
	c.Assert(v.Width, qt.Equals, 1000.0)
	c.Assert(v.Height, qt.Equals, 400.0)
	// The pan survives; the origin moves with the container centre.
	c.Assert(v.Offset, qt.Equals, r2.Vec{X: 510, Y: 195})

	c.Assert(a.ApplyPending(), qt.IsFalse)

	a.Resize(0, 100)
	a.Resize(math.NaN(), 100)
	c.Assert(a.ApplyPending(), qt.IsFalse)
}

func TestZoomAtKeepsAnchorFixed(t *testing.T) {
	c := qt.New(t)

	a := NewAdapter(&DrawList{}, 800, 600, nil)
	anchor := r2.Vec{X: 123, Y: 456}
	before := a.Viewport().ToGraph(anchor)

	a.ZoomAt(anchor, 3)
	after := a.Viewport().ToGraph(anchor)
	c.Assert(math.Abs(before.X-after.X) < 1e-9, qt.IsTrue)
	c.Assert(math.Abs(before.Y-after.Y) < 1e-9, qt.IsTrue)

	a.ZoomAt(anchor, 1e9)
	c.Assert(a.Viewport().Scale, qt.Equals, MaxScale)
	a.ZoomAt(anchor, 0)
	c.Assert(a.Viewport().Scale, qt.Equals, MaxScale)
}

func TestFitShowsEveryNode(t *testing.T) {
	c := qt.New(t)

	g := chain(c)
	g.Nodes[4].Position = r2.Vec{X: 2000, Y: -1500}

	a := NewAdapter(&DrawList{}, 800, 600, nil)
	a.Fit(g, 20)
	v := a.Viewport()
	for _, n := range g.Nodes {
		p := v.ToScreen(n.Position)
		c.Assert(p.X >= 20 && p.X <= 780, qt.IsTrue, qt.Commentf("node %d at %v", n.ID, p))
		c.Assert(p.Y >= 20 && p.Y <= 580, qt.IsTrue, qt.Commentf("node %d at %v", n.ID, p))
	}
}
