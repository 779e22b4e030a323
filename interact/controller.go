// Package interact turns pointer input into selection, drag and camera
// changes on a graph.
package interact

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/cognilink/models"
)

// Camera is the view capability the controller drives. render.Adapter
// implements it.
type Camera interface {
	Viewport() models.Viewport
	Pan(delta r2.Vec)
	ZoomAt(anchor r2.Vec, factor float64)
	NodeRadius() float64 // Graph units
	SelectedRadius() float64
}

// Waker restarts a settled layout. physics.LayoutAlgorithm implements it.
type Waker interface {
	Wake()
}

// ReleasePolicy decides what EndDrag does to the dragged node
type ReleasePolicy int

const (
	// StickyPin leaves a dragged node pinned where it was dropped
	StickyPin ReleasePolicy = iota
	// AutoUnpin hands the node back to the layout on release
	AutoUnpin
)

func (p ReleasePolicy) String() string {
	switch p {
	case StickyPin:
		return "sticky"
	case AutoUnpin:
		return "auto-unpin"
	default:
		return "unknown"
	}
}

// SelectionChange is delivered to subscribers whenever the selection changes
type SelectionChange struct {
	Previous models.Selection
	Current  models.Selection
}

// Option configures a Controller
type Option func(*Controller)

// WithReleasePolicy sets the drag release policy
func WithReleasePolicy(p ReleasePolicy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

// WithClickSlop sets how far, in screen pixels, the pointer may travel
// between down and up and still count as a click
func WithClickSlop(px float64) Option {
	return func(c *Controller) {
		if px >= 0 {
			c.slop = px
		}
	}
}

// WithWaker sets the layout woken by drags
func WithWaker(w Waker) Option {
	return func(c *Controller) {
		c.waker = w
	}
}

type subscriber struct {
	id int
	fn func(SelectionChange)
}

type pointer struct {
	down   bool
	moved  bool
	at     r2.Vec
	last   r2.Vec
	target int
	hit    bool
}

// Controller owns the selection state and applies drags to node
// positions. It is not safe for concurrent use; drive it from the frame
// loop goroutine.
type Controller struct {
	graph  *models.Graph
	camera Camera
	waker  Waker
	policy ReleasePolicy
	slop   float64

	selection models.Selection
	drag      int
	dragging  bool
	ptr       pointer

	subs   []subscriber
	nextID int
}

// NewController creates a controller for g viewed through camera
func NewController(g *models.Graph, camera Camera, opts ...Option) *Controller {
	c := &Controller{
		graph:  g,
		camera: camera,
		policy: StickyPin,
		slop:   4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Selection returns the current selection
func (c *Controller) Selection() models.Selection {
	return c.selection
}

// Policy returns the drag release policy in effect
func (c *Controller) Policy() ReleasePolicy {
	return c.policy
}

// Dragging returns the node being dragged, if any
func (c *Controller) Dragging() (int, bool) {
	return c.drag, c.dragging
}

// Subscribe registers fn for selection changes. The returned function
// removes the subscription and may be called more than once.
func (c *Controller) Subscribe(fn func(SelectionChange)) (cancel func()) {
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// HitTest returns the topmost node under a screen point. Nodes are drawn
// in id order, so among overlapping nodes the highest id wins. The selected
// node is hit across its enlarged radius.
func (c *Controller) HitTest(screen r2.Vec) (int, bool) {
	if c.graph.Len() == 0 || !finite(screen) {
		return 0, false
	}
	p := c.camera.Viewport().ToGraph(screen)
	radius := c.camera.NodeRadius()
	for i := len(c.graph.Nodes) - 1; i >= 0; i-- {
		r := radius
		if c.selection.Is(i) {
			r = c.camera.SelectedRadius()
		}
		if r2.Norm(r2.Sub(p, c.graph.Nodes[i].Position)) <= r {
			return i, true
		}
	}
	return 0, false
}

// Select toggles id: selecting the selected node clears the selection,
// any other node replaces it.
func (c *Controller) Select(id int) {
	if !c.graph.Valid(id) {
		return
	}
	next := models.Selected(id)
	if c.selection.Is(id) {
		next = models.Selection{}
	}
	c.setSelection(next)
}

// ClearSelection deselects any node
func (c *Controller) ClearSelection() {
	c.setSelection(models.Selection{})
}

func (c *Controller) setSelection(next models.Selection) {
	if next == c.selection {
		return
	}
	change := SelectionChange{Previous: c.selection, Current: next}
	c.selection = next
	for _, s := range append([]subscriber(nil), c.subs...) {
		s.fn(change)
	}
}

// BeginDrag pins id and makes it the drag target
func (c *Controller) BeginDrag(id int) {
	if !c.graph.Valid(id) {
		return
	}
	if c.dragging && c.drag != id {
		c.EndDrag()
	}
	n := c.graph.Node(id)
	n.Pinned = true
	n.Velocity = r2.Vec{}
	c.drag = id
	c.dragging = true
	c.wake()
}

// UpdateDrag moves the drag target to the pointer
func (c *Controller) UpdateDrag(screen r2.Vec) {
	if !c.dragging || !finite(screen) {
		return
	}
	p := c.camera.Viewport().ToGraph(screen)
	if !finite(p) {
		return
	}
	n := c.graph.Node(c.drag)
	n.Position = p
	n.Velocity = r2.Vec{}
	c.wake()
}

// EndDrag releases the drag target according to the release policy
func (c *Controller) EndDrag() {
	if !c.dragging {
		return
	}
	if c.policy == AutoUnpin {
		c.graph.Node(c.drag).Pinned = false
	}
	c.dragging = false
	c.wake()
}

// Unpin hands id back to the layout
func (c *Controller) Unpin(id int) {
	if !c.graph.Valid(id) || (c.dragging && c.drag == id) {
		return
	}
	n := c.graph.Node(id)
	if !n.Pinned {
		return
	}
	n.Pinned = false
	c.wake()
}

// UnpinAll releases every pinned node
func (c *Controller) UnpinAll() {
	for i := range c.graph.Nodes {
		c.Unpin(i)
	}
}

// PointerDown starts a gesture at a screen point
func (c *Controller) PointerDown(screen r2.Vec) {
	if !finite(screen) {
		return
	}
	id, ok := c.HitTest(screen)
	c.ptr = pointer{down: true, at: screen, last: screen, target: id, hit: ok}
}

// PointerMove drags the node under the gesture, or pans the view when the
// gesture started on the background. Movement within the click slop is
// ignored.
func (c *Controller) PointerMove(screen r2.Vec) {
	if !c.ptr.down || !finite(screen) {
		return
	}
	if !c.ptr.moved {
		if r2.Norm(r2.Sub(screen, c.ptr.at)) <= c.slop {
			return
		}
		c.ptr.moved = true
		if c.ptr.hit {
			c.BeginDrag(c.ptr.target)
		}
	}
	if c.dragging {
		c.UpdateDrag(screen)
	} else {
		c.camera.Pan(r2.Sub(screen, c.ptr.last))
	}
	c.ptr.last = screen
}

// PointerUp ends a gesture. A gesture that never left the click slop is a
// click and toggles the node it started on.
func (c *Controller) PointerUp(screen r2.Vec) {
	if !c.ptr.down {
		return
	}
	p := c.ptr
	c.ptr = pointer{}
	if p.moved {
		if c.dragging {
			c.UpdateDrag(screen)
			c.EndDrag()
		}
		return
	}
	if p.hit {
		c.Select(p.target)
	}
}

// Wheel zooms about the pointer. Positive deltaY zooms out, as browsers
// report scrolling down.
func (c *Controller) Wheel(at r2.Vec, deltaY float64) {
	if !finite(at) || math.IsNaN(deltaY) || math.IsInf(deltaY, 0) || deltaY == 0 {
		return
	}
	c.camera.ZoomAt(at, math.Exp(-deltaY*0.002))
}

func (c *Controller) wake() {
	if c.waker != nil {
		c.waker.Wake()
	}
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
