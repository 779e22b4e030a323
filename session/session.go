// Package session drives one visualization: a single goroutine steps the
// layout, renders, and applies input events between frames.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/TFMV/cognilink/interact"
	"github.com/TFMV/cognilink/models"
	"github.com/TFMV/cognilink/physics"
	"github.com/TFMV/cognilink/render"
)

// DefaultFPS is the frame rate used by Run when none is given
const DefaultFPS = 60

// ErrClosed is returned by Post once the session loop has stopped
var ErrClosed = errors.New("session closed")

// Event is input applied on the loop goroutine between frames
type Event func(*Session)

// Config holds what a session needs beyond the graph
type Config struct {
	Layout     physics.LayoutAlgorithm // ForceDirectedLayout with defaults when nil
	Surface    render.Surface
	Width      float64
	Height     float64
	Theme      *render.Theme
	Controller []interact.Option
	Logger     *slog.Logger
}

// Session owns one graph and everything that mutates it. Graph, selection
// and viewport are only touched from the goroutine running Run (or the
// caller of Frame when driven manually).
type Session struct {
	Graph      *models.Graph
	Layout     physics.LayoutAlgorithm
	Adapter    *render.Adapter
	Controller *interact.Controller

	logger *slog.Logger
	events chan Event
	done   chan struct{}
	dirty  bool
	frames int
}

// New creates a session for g
func New(g *models.Graph, cfg Config) *Session {
	layout := cfg.Layout
	if layout == nil {
		layout = physics.NewForceDirectedLayout(physics.DefaultParameters())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	layout.Initialize(g)
	adapter := render.NewAdapter(cfg.Surface, cfg.Width, cfg.Height, cfg.Theme)
	opts := append([]interact.Option{interact.WithWaker(layout)}, cfg.Controller...)

	s := &Session{
		Graph:      g,
		Layout:     layout,
		Adapter:    adapter,
		Controller: interact.NewController(g, adapter, opts...),
		logger:     logger,
		events:     make(chan Event, 64),
		done:       make(chan struct{}),
		dirty:      true,
	}
	s.Controller.Subscribe(func(ch interact.SelectionChange) {
		s.logger.Debug("selection changed",
			"previous", ch.Previous.ID, "had_previous", ch.Previous.Set,
			"current", ch.Current.ID, "has_current", ch.Current.Set)
	})
	return s
}

// Frames returns the number of frames drawn so far
func (s *Session) Frames() int {
	return s.frames
}

// Invalidate forces the next frame to be drawn even if nothing moved
func (s *Session) Invalidate() {
	s.dirty = true
}

// Frame runs one frame: apply a pending resize, advance the layout by dt
// seconds, then render. Once the layout has settled and nothing else
// changed the render is skipped; drawn reports whether it happened.
func (s *Session) Frame(dt float64) (drawn bool, err error) {
	if s.Adapter.ApplyPending() {
		s.dirty = true
	}
	wasSettled := s.Layout.Settled()
	s.Layout.Advance(dt)

	if wasSettled && !s.dirty {
		return false, nil
	}
	s.dirty = false
	s.frames++
	if err := s.Adapter.Render(s.Graph, s.Controller.Selection()); err != nil {
		return false, err
	}
	return true, nil
}

// Settle advances the layout with a fixed step until it settles or maxSteps
// is reached, without rendering. It returns the number of steps taken.
func (s *Session) Settle(maxSteps int, dt float64) int {
	return physics.Settle(s.Layout, maxSteps, dt)
}

// Post queues ev for the loop goroutine. It blocks while the queue is full
// and fails with ErrClosed once Run has returned.
func (s *Session) Post(ctx context.Context, ev Event) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the session at fps frames per second until ctx is cancelled.
// onFrame, when non-nil, is called after every drawn frame; an error from
// it or from rendering stops the loop.
func (s *Session) Run(ctx context.Context, fps int, onFrame func(*Session) error) error {
	defer close(s.done)

	if fps <= 0 {
		fps = DefaultFPS
	}
	interval := time.Second / time.Duration(fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Debug("session started", "nodes", s.Graph.Len(), "edges", len(s.Graph.Edges), "fps", fps)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("session stopped", "frames", s.frames)
			return nil

		case ev := <-s.events:
			ev(s)
			s.dirty = true

		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			drawn, err := s.Frame(dt)
			if err != nil {
				return err
			}
			if drawn && onFrame != nil {
				if err := onFrame(s); err != nil {
					return err
				}
			}
		}
	}
}
