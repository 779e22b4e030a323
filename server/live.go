package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/cognilink/interact"
	"github.com/TFMV/cognilink/models"
	"github.com/TFMV/cognilink/render"
	"github.com/TFMV/cognilink/session"
	"github.com/TFMV/cognilink/store"
)

const (
	writeWait   = 10 * time.Second
	maxEventLen = 4096
)

// clientEvent is an input message from the viewer
type clientEvent struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	ID     int     `json:"id"`
}

// frameMessage carries one rendered frame
type frameMessage struct {
	Type  string           `json:"type"`
	Frame *render.DrawList `json:"frame"`
}

// selectionMessage reports the selected topic, resolved against the
// record's label and summary tables
type selectionMessage struct {
	Type     string `json:"type"`
	Selected bool   `json:"selected"`
	ID       int    `json:"id"`
	Label    string `json:"label,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

func newSelectionMessage(rec *models.GraphRecord, sel models.Selection) selectionMessage {
	msg := selectionMessage{Type: "selection", Selected: sel.Set, ID: -1}
	if sel.Set {
		msg.ID = sel.ID
		msg.Label = rec.Label(sel.ID)
		msg.Summary = rec.Summary(sel.ID)
	}
	return msg
}

// apply turns a client message into a session event. Resizes go straight
// to the adapter, which queues them for the next frame.
func (ev clientEvent) apply(sess *session.Session) session.Event {
	at := r2.Vec{X: ev.X, Y: ev.Y}
	switch ev.Type {
	case "pointerdown":
		return func(s *session.Session) { s.Controller.PointerDown(at) }
	case "pointermove":
		return func(s *session.Session) { s.Controller.PointerMove(at) }
	case "pointerup":
		return func(s *session.Session) { s.Controller.PointerUp(at) }
	case "wheel":
		return func(s *session.Session) { s.Controller.Wheel(at, ev.DeltaY) }
	case "select":
		return func(s *session.Session) { s.Controller.Select(ev.ID) }
	case "clear":
		return func(s *session.Session) { s.Controller.ClearSelection() }
	case "unpin":
		if ev.ID < 0 {
			return func(s *session.Session) { s.Controller.UnpinAll() }
		}
		return func(s *session.Session) { s.Controller.Unpin(ev.ID) }
	case "resize":
		sess.Adapter.Resize(ev.Width, ev.Height)
		return nil
	default:
		return nil
	}
}

// liveConn pumps messages to one websocket. Frames are latest-wins; other
// notes are delivered in order.
type liveConn struct {
	conn   *websocket.Conn
	logger *slog.Logger
	frames chan []byte
	notes  chan []byte
}

func newLiveConn(conn *websocket.Conn, logger *slog.Logger) *liveConn {
	return &liveConn{
		conn:   conn,
		logger: logger,
		frames: make(chan []byte, 1),
		notes:  make(chan []byte, 16),
	}
}

// frame replaces any frame the writer has not picked up yet
func (l *liveConn) frame(data []byte) {
	select {
	case <-l.frames:
	default:
	}
	select {
	case l.frames <- data:
	default:
	}
}

func (l *liveConn) note(ctx context.Context, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.logger.Error("encode note", "error", err)
		return
	}
	select {
	case l.notes <- data:
	case <-ctx.Done():
	}
}

func (l *liveConn) write(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()
	send := func(data []byte) bool {
		l.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := l.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			l.logger.Debug("websocket write failed", "error", err)
			return false
		}
		return true
	}
	for {
		select {
		case <-ctx.Done():
			l.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case data := <-l.notes:
			if !send(data) {
				return
			}
		case data := <-l.frames:
			if !send(data) {
				return
			}
		}
	}
}

func (l *liveConn) read(ctx context.Context, cancel context.CancelFunc, s *session.Session) {
	defer cancel()
	l.conn.SetReadLimit(maxEventLen)
	for {
		var ev clientEvent
		if err := l.conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		fn := ev.apply(s)
		if fn == nil {
			continue
		}
		if err := s.Post(ctx, fn); err != nil {
			return
		}
	}
}

// handleLive runs a session for /ws/graphs/{id} and streams its frames
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	g, rec, err := store.Load(r.Context(), s.store, id, s.cfg.BuildOptions...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	layout, err := s.newLayout()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger := s.logger.With("graph", id)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	surface := &render.DrawList{}
	sess := session.New(g, session.Config{
		Layout:     layout,
		Surface:    surface,
		Width:      s.cfg.Width,
		Height:     s.cfg.Height,
		Theme:      s.cfg.Theme,
		Controller: []interact.Option{interact.WithReleasePolicy(s.cfg.Release)},
		Logger:     logger,
	})

	live := newLiveConn(conn, logger)
	sess.Controller.Subscribe(func(ch interact.SelectionChange) {
		live.note(ctx, newSelectionMessage(rec, ch.Current))
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		live.write(ctx, cancel)
	}()
	go func() {
		defer wg.Done()
		live.read(ctx, cancel, sess)
	}()

	logger.Info("live session opened", "topics", g.Len())
	err = sess.Run(ctx, s.cfg.FPS, func(sess *session.Session) error {
		data, err := json.Marshal(frameMessage{Type: "frame", Frame: surface})
		if err != nil {
			return err
		}
		live.frame(data)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("live session failed", "error", err)
	}
	cancel()
	// unblock the reader
	conn.SetReadDeadline(time.Now())
	wg.Wait()
	logger.Info("live session closed", "frames", sess.Frames())
}
