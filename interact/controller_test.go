package interact

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/cognilink/models"
	"github.com/TFMV/cognilink/render"
)

var cmpApprox = cmpopts.EquateApprox(0, 1e-9)

type countingWaker struct{ n int }

func (w *countingWaker) Wake() { w.n++ }

func setup(c *qt.C, opts ...Option) (*models.Graph, *render.Adapter, *Controller) {
	g, err := models.Build(8, []string{"0", "1", "2", "3", "4", "5", "6", "7"}, [][]int{
		{0, 1, 0, 0, 0, 0, 0, 0},
		{0, 0, 1, 0, 0, 0, 0, 0},
		{0, 0, 0, 1, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 0, 0, 0},
		{0, 0, 0, 0, 0, 1, 0, 0},
		{0, 0, 0, 0, 0, 0, 1, 0},
		{0, 0, 0, 0, 0, 0, 0, 1},
		{0, 0, 0, 0, 0, 0, 0, 0},
	})
	c.Assert(err, qt.IsNil)
	a := render.NewAdapter(&render.DrawList{}, 800, 600, nil)
	return g, a, NewController(g, a, opts...)
}

func record(ctl *Controller) *[]SelectionChange {
	var got []SelectionChange
	ctl.Subscribe(func(ch SelectionChange) { got = append(got, ch) })
	return &got
}

func TestSelectToggles(t *testing.T) {
	c := qt.New(t)

	_, _, ctl := setup(c)
	changes := record(ctl)

	ctl.Select(5)
	c.Assert(ctl.Selection(), qt.Equals, models.Selected(5))
	ctl.Select(5)
	c.Assert(ctl.Selection(), qt.Equals, models.Selection{})

	ctl.Select(5)
	ctl.Select(7)
	c.Assert(ctl.Selection(), qt.Equals, models.Selected(7))

	c.Assert(*changes, qt.DeepEquals, []SelectionChange{
		{Previous: models.Selection{}, Current: models.Selected(5)},
		{Previous: models.Selected(5), Current: models.Selection{}},
		{Previous: models.Selection{}, Current: models.Selected(5)},
		{Previous: models.Selected(5), Current: models.Selected(7)},
	})
}

func TestSelectInvalidIDIsNoop(t *testing.T) {
	c := qt.New(t)

	_, _, ctl := setup(c)
	changes := record(ctl)

	ctl.Select(3)
	ctl.Select(-1)
	ctl.Select(8)
	c.Assert(ctl.Selection(), qt.Equals, models.Selected(3))
	c.Assert(*changes, qt.HasLen, 1)

	// Clearing an empty selection emits nothing.
	ctl.ClearSelection()
	ctl.ClearSelection()
	c.Assert(*changes, qt.HasLen, 2)
}

func TestSubscribeCancel(t *testing.T) {
	c := qt.New(t)

	_, _, ctl := setup(c)
	var a, b int
	cancelA := ctl.Subscribe(func(SelectionChange) { a++ })
	ctl.Subscribe(func(SelectionChange) { b++ })

	ctl.Select(1)
	cancelA()
	cancelA()
	ctl.Select(2)
	c.Assert(a, qt.Equals, 1)
	c.Assert(b, qt.Equals, 2)
}

func TestHitTest(t *testing.T) {
	c := qt.New(t)

	g, a, ctl := setup(c)

	for _, n := range g.Nodes {
		id, ok := ctl.HitTest(a.Viewport().ToScreen(n.Position))
		c.Assert(ok, qt.IsTrue)
		c.Assert(id, qt.Equals, n.ID)
	}

	_, ok := ctl.HitTest(r2.Vec{X: 400, Y: 300})
	c.Assert(ok, qt.IsFalse)

	// Overlapping nodes resolve to the one drawn last.
	g.Nodes[2].Position = g.Nodes[6].Position
	id, ok := ctl.HitTest(a.Viewport().ToScreen(g.Nodes[6].Position))
	c.Assert(ok, qt.IsTrue)
	c.Assert(id, qt.Equals, 6)
}

func TestHitTestFollowsViewport(t *testing.T) {
	c := qt.New(t)

	g, a, ctl := setup(c)
	a.ZoomAt(r2.Vec{X: 100, Y: 100}, 3)
	a.Pan(r2.Vec{X: -40, Y: 25})

	target := a.Viewport().ToScreen(g.Nodes[4].Position)
	// Three graph units away is inside the radius at any zoom.
	id, ok := ctl.HitTest(r2.Add(target, r2.Vec{X: 3 * a.Viewport().Scale}))
	c.Assert(ok, qt.IsTrue)
	c.Assert(id, qt.Equals, 4)

	_, ok = ctl.HitTest(r2.Add(target, r2.Vec{X: 8 * a.Viewport().Scale}))
	c.Assert(ok, qt.IsFalse)
}

func TestHitTestSelectedRing(t *testing.T) {
	c := qt.New(t)

	g, a, ctl := setup(c)
	a.ZoomAt(r2.Vec{X: 400, Y: 300}, 2)

	// Between the plain and the selected radius.
	gap := (a.NodeRadius() + a.SelectedRadius()) / 2
	ring := r2.Add(a.Viewport().ToScreen(g.Nodes[4].Position), r2.Vec{X: gap * a.Viewport().Scale})

	_, ok := ctl.HitTest(ring)
	c.Assert(ok, qt.IsFalse)

	ctl.Select(4)
	id, ok := ctl.HitTest(ring)
	c.Assert(ok, qt.IsTrue)
	c.Assert(id, qt.Equals, 4)

	// Clicking the ring reaches the selected node and toggles it off.
	ctl.PointerDown(ring)
	ctl.PointerUp(ring)
	c.Assert(ctl.Selection(), qt.Equals, models.Selection{})
}

func TestDragPinsNode(t *testing.T) {
	c := qt.New(t)

	w := &countingWaker{}
	g, a, ctl := setup(c, WithWaker(w))

	ctl.BeginDrag(3)
	c.Assert(g.Nodes[3].Pinned, qt.IsTrue)

	screen := r2.Vec{X: 650, Y: 120}
	ctl.UpdateDrag(screen)
	c.Assert(g.Nodes[3].Position, qt.Equals, a.Viewport().ToGraph(screen))
	c.Assert(g.Nodes[3].Velocity, qt.Equals, r2.Vec{})

	ctl.EndDrag()
	c.Assert(g.Nodes[3].Pinned, qt.IsTrue)
	_, dragging := ctl.Dragging()
	c.Assert(dragging, qt.IsFalse)
	c.Assert(w.n, qt.Equals, 3)

	// Without an active drag further updates are ignored.
	ctl.UpdateDrag(r2.Vec{X: 1, Y: 1})
	c.Assert(g.Nodes[3].Position, qt.Equals, a.Viewport().ToGraph(screen))

	ctl.Unpin(3)
	c.Assert(g.Nodes[3].Pinned, qt.IsFalse)
}

func TestDragAutoUnpin(t *testing.T) {
	c := qt.New(t)

	g, _, ctl := setup(c, WithReleasePolicy(AutoUnpin))
	ctl.BeginDrag(1)
	c.Assert(g.Nodes[1].Pinned, qt.IsTrue)
	ctl.EndDrag()
	c.Assert(g.Nodes[1].Pinned, qt.IsFalse)
}

func TestDragInvalidIDIsNoop(t *testing.T) {
	c := qt.New(t)

	g, _, ctl := setup(c)
	before := append([]models.Node(nil), g.Nodes...)

	ctl.BeginDrag(42)
	ctl.UpdateDrag(r2.Vec{X: 10, Y: 10})
	ctl.EndDrag()
	ctl.Unpin(-3)
	c.Assert(g.Nodes, qt.DeepEquals, before)
}

func TestPointerClickSelects(t *testing.T) {
	c := qt.New(t)

	g, a, ctl := setup(c)
	at := a.Viewport().ToScreen(g.Nodes[5].Position)

	ctl.PointerDown(at)
	ctl.PointerMove(r2.Add(at, r2.Vec{X: 1, Y: 1}))
	ctl.PointerUp(at)
	c.Assert(ctl.Selection(), qt.Equals, models.Selected(5))
	c.Assert(g.Nodes[5].Pinned, qt.IsFalse)

	ctl.PointerDown(at)
	ctl.PointerUp(at)
	c.Assert(ctl.Selection(), qt.Equals, models.Selection{})
}

func TestPointerDragMovesNode(t *testing.T) {
	c := qt.New(t)

	g, a, ctl := setup(c)
	at := a.Viewport().ToScreen(g.Nodes[2].Position)
	end := r2.Add(at, r2.Vec{X: 60, Y: -30})

	ctl.PointerDown(at)
	ctl.PointerMove(r2.Add(at, r2.Vec{X: 30}))
	ctl.PointerMove(end)
	ctl.PointerUp(end)

	c.Assert(g.Nodes[2].Position, qt.Equals, a.Viewport().ToGraph(end))
	c.Assert(g.Nodes[2].Pinned, qt.IsTrue)
	c.Assert(ctl.Selection(), qt.Equals, models.Selection{})
}

func TestPointerBackgroundDragPans(t *testing.T) {
	c := qt.New(t)

	g, a, ctl := setup(c)
	before := append([]models.Node(nil), g.Nodes...)
	offset := a.Viewport().Offset

	ctl.PointerDown(r2.Vec{X: 400, Y: 300})
	ctl.PointerMove(r2.Vec{X: 420, Y: 300})
	ctl.PointerMove(r2.Vec{X: 450, Y: 280})
	ctl.PointerUp(r2.Vec{X: 450, Y: 280})

	c.Assert(a.Viewport().Offset, qt.Equals, r2.Add(offset, r2.Vec{X: 50, Y: -20}))
	c.Assert(g.Nodes, qt.DeepEquals, before)
}

func TestWheelZoomsAboutPointer(t *testing.T) {
	c := qt.New(t)

	_, a, ctl := setup(c)
	at := r2.Vec{X: 200, Y: 150}
	pivot := a.Viewport().ToGraph(at)

	ctl.Wheel(at, -250)
	c.Assert(a.Viewport().Scale > 1, qt.IsTrue)
	got := a.Viewport().ToGraph(at)
	c.Assert(got.X, qt.CmpEquals(cmpApprox), pivot.X)
	c.Assert(got.Y, qt.CmpEquals(cmpApprox), pivot.Y)

	ctl.Wheel(at, 500)
	c.Assert(a.Viewport().Scale < 1, qt.IsTrue)
}
