// Package server shares graphs over HTTP: upload, static renders, a live
// websocket viewer and the study assistant.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TFMV/cognilink/auth"
	"github.com/TFMV/cognilink/ingest"
	"github.com/TFMV/cognilink/interact"
	"github.com/TFMV/cognilink/models"
	"github.com/TFMV/cognilink/physics"
	"github.com/TFMV/cognilink/qa"
	"github.com/TFMV/cognilink/render"
	"github.com/TFMV/cognilink/store"
)

//go:embed static/*
var staticFS embed.FS

var dashboardPage = template.Must(template.ParseFS(staticFS, "static/dashboard.html"))

// maxUpload bounds request bodies
const maxUpload = 10 << 20

// Config for the server
type Config struct {
	Addr            string
	FPS             int
	Width           float64 // Initial live viewer size, until the client reports its own
	Height          float64
	Steps           int // Layout steps for static renders
	Padding         float64
	Theme           *render.Theme
	Parameters      physics.Parameters
	Algorithm       string
	BuildOptions    []models.BuildOption
	Release         interact.ReleasePolicy
	Rules           auth.Rules
	SecureCookies   bool
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a config serving on :8080 with default physics
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		FPS:             60,
		Width:           800,
		Height:          600,
		Steps:           3000,
		Padding:         20,
		Theme:           render.DefaultTheme(),
		Parameters:      physics.DefaultParameters(),
		Algorithm:       "force",
		Rules:           auth.DefaultRules(),
		ShutdownTimeout: 5 * time.Second,
	}
}

// Server serves shared graphs
type Server struct {
	cfg      Config
	store    store.GraphStore
	auth     auth.Provider
	qa       qa.Provider
	logger   *slog.Logger
	upgrader websocket.Upgrader
	handler  http.Handler
}

// New creates a server. A nil logger uses slog.Default.
func New(cfg Config, graphs store.GraphStore, users auth.Provider, answers qa.Provider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Theme == nil {
		cfg.Theme = render.DefaultTheme()
	}
	s := &Server{
		cfg:    cfg,
		store:  graphs,
		auth:   users,
		qa:     answers,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("POST /api/graphs", auth.Require(http.HandlerFunc(s.handleShare)))
	mux.HandleFunc("GET /api/graphs/{id}", s.handleGraph)
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("GET /share/{id}", s.handleViewer)
	mux.HandleFunc("GET /ws/graphs/{id}", s.handleLive)
	mux.HandleFunc("GET "+cfg.Rules.DashboardPath, s.handleDashboard)
	mux.Handle(cfg.Rules.LoginPath, auth.LoginHandler(users, cfg.Rules, cfg.SecureCookies))
	mux.Handle("/logout", auth.LogoutHandler(cfg.Rules))

	s.handler = auth.Middleware(users, cfg.Rules, logger)(s.logRequests(mux))
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.cfg.Addr, "qa", s.qa.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") != "" {
			// websocket upgrades need the raw writer to hijack
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps store and model errors onto HTTP statuses
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, store.ErrNotFound.Error())
	case errors.Is(err, models.ErrMalformedInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.cfg.Rules.DashboardPath, http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	dashboardPage.Execute(w, user)
}

// uploadFormat picks the ingest format from ?format= or the content type
func uploadFormat(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "text/csv":
		return "csv"
	case "text/plain":
		return "edges"
	default:
		return "json"
	}
}

type shareResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	processor, err := ingest.GetProcessor(uploadFormat(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpload))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "graph too large")
		return
	}
	rec, err := processor.ProcessData(data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rec.SharedBy = user.Email

	id, err := s.store.Put(r.Context(), rec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("graph shared", "id", id, "topics", rec.N, "by", user.Email)
	writeJSON(w, http.StatusCreated, shareResponse{ID: id, URL: "/share/" + id})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleViewer serves the live viewer page for /share/{id}, or a static
// SVG for /share/{id}.svg
func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if base, ok := strings.CutSuffix(id, ".svg"); ok {
		s.handleSVG(w, r, base)
		return
	}
	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := staticFS.ReadFile("static/viewer.html")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(page)
}

func (s *Server) newLayout() (physics.LayoutAlgorithm, error) {
	return physics.GetLayoutAlgorithm(s.cfg.Algorithm, s.cfg.Parameters)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request, id string) {
	g, _, err := store.Load(r.Context(), s.store, id, s.cfg.BuildOptions...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	layout, err := s.newLayout()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	layout.Initialize(g)
	physics.Settle(layout, s.cfg.Steps, 1.0/60)

	opts := render.NewDefaultOptions("svg")
	opts.Width, opts.Height = s.cfg.Width, s.cfg.Height
	opts.Theme = s.cfg.Theme
	opts.Padding = s.cfg.Padding
	out, err := (&render.SVGRenderer{}).Render(g, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(out)
}

type askRequest struct {
	Question string `json:"question"`
	GraphID  string `json:"graphId,omitempty"`
	Focus    *int   `json:"focus,omitempty"`
}

type askResponse struct {
	Answer   string `json:"answer"`
	Provider string `json:"provider"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpload)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q := qa.Question{Text: req.Question}
	if err := q.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.GraphID != "" {
		rec, err := s.store.Get(r.Context(), req.GraphID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		q.Graph = rec
		if req.Focus != nil && *req.Focus >= 0 && *req.Focus < rec.N {
			q.Focus = models.Selected(*req.Focus)
		}
	}

	answer, err := s.qa.Answer(r.Context(), q)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, askResponse{Answer: answer, Provider: s.qa.Name()})
	case errors.Is(err, qa.ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Warn("ask failed", "provider", s.qa.Name(), "error", err)
		writeError(w, http.StatusBadGateway, "the study assistant is unavailable")
	}
}
