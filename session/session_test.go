package session

import (
	"context"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/TFMV/cognilink/models"
	"github.com/TFMV/cognilink/physics"
	"github.com/TFMV/cognilink/render"
)

const frame = 1.0 / 60

func chain(c *qt.C) *models.Graph {
	g, err := models.Build(3, []string{"A", "B", "C"}, [][]int{
		{0, 1, 0},
		{0, 0, 1},
		{0, 0, 0},
	})
	c.Assert(err, qt.IsNil)
	return g
}

func TestFrameRendersUntilSettled(t *testing.T) {
	c := qt.New(t)

	d := &render.DrawList{}
	s := New(chain(c), Config{Surface: d, Width: 400, Height: 300})

	drawn, err := s.Frame(frame)
	c.Assert(err, qt.IsNil)
	c.Assert(drawn, qt.IsTrue)
	c.Assert(d.Count(render.OpCircle), qt.Equals, 3)
	c.Assert(d.Count(render.OpArrow), qt.Equals, 2)

	for i := 0; i < 5000 && !s.Layout.Settled(); i++ {
		_, err := s.Frame(frame)
		c.Assert(err, qt.IsNil)
	}
	c.Assert(s.Layout.Settled(), qt.IsTrue)

	// One last frame draws the settled positions, then drawing stops.
	s.Frame(frame)
	frames := s.Frames()
	drawn, err = s.Frame(frame)
	c.Assert(err, qt.IsNil)
	c.Assert(drawn, qt.IsFalse)
	c.Assert(s.Frames(), qt.Equals, frames)

	s.Adapter.Resize(800, 600)
	drawn, err = s.Frame(frame)
	c.Assert(err, qt.IsNil)
	c.Assert(drawn, qt.IsTrue)
	c.Assert(d.Width, qt.Equals, 800.0)
}

func TestDragWakesSettledLayout(t *testing.T) {
	c := qt.New(t)

	s := New(chain(c), Config{Surface: &render.DrawList{}, Width: 400, Height: 300})
	s.Settle(10000, frame)
	c.Assert(s.Layout.Settled(), qt.IsTrue)

	s.Controller.BeginDrag(0)
	c.Assert(s.Layout.Settled(), qt.IsFalse)
	s.Controller.EndDrag()

	drawn, err := s.Frame(frame)
	c.Assert(err, qt.IsNil)
	c.Assert(drawn, qt.IsTrue)
	c.Assert(s.Graph.Nodes[0].Pinned, qt.IsTrue)
}

func TestSettleFrozenLayout(t *testing.T) {
	c := qt.New(t)

	s := New(chain(c), Config{Layout: physics.FrozenLayout{}, Surface: &render.DrawList{}, Width: 10, Height: 10})
	c.Assert(s.Settle(100, frame), qt.Equals, 1)
}

func TestRunAppliesEventsBetweenFrames(t *testing.T) {
	c := qt.New(t)

	d := &render.DrawList{}
	s := New(chain(c), Config{Surface: d, Width: 400, Height: 300})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	selected := make(chan string, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- s.Run(ctx, 200, func(s *Session) error {
			if s.Controller.Selection().Is(1) {
				for _, op := range d.Ops {
					if op.Kind == render.OpCircle && op.Color == s.Adapter.Theme().SelectedColor {
						select {
						case selected <- op.Color:
						default:
						}
					}
				}
			}
			return nil
		})
	}()

	c.Assert(s.Post(ctx, func(s *Session) { s.Controller.Select(1) }), qt.IsNil)

	select {
	case color := <-selected:
		c.Assert(color, qt.Equals, s.Adapter.Theme().SelectedColor)
	case <-time.After(5 * time.Second):
		c.Fatal("selected node was never drawn")
	}

	cancel()
	c.Assert(<-errc, qt.IsNil)
	c.Assert(s.Post(context.Background(), func(*Session) {}), qt.Equals, ErrClosed)
}

func TestRunStopsOnFrameError(t *testing.T) {
	c := qt.New(t)

	s := New(chain(c), Config{Surface: &render.DrawList{}, Width: 400, Height: 300})
	boom := errors.New("client went away")
	err := s.Run(context.Background(), 500, func(*Session) error { return boom })
	c.Assert(err, qt.Equals, boom)
}
