package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/quill/pkg/view"
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHandler mounts an extra handler, such as a metrics endpoint.
func WithHandler(pattern string, h http.Handler) ServerOption {
	return func(s *Server) {
		s.router.Handle(pattern, h)
	}
}

// Server serves an Inspector over HTTP.
type Server struct {
	inspector *Inspector
	hub       *Hub
	router    chi.Router
	logger    *slog.Logger
}

// NewServer creates a server for ins. Live streaming is enabled when the
// inspector was created with a hub.
func NewServer(ins *Inspector, opts ...ServerOption) *Server {
	s := &Server{
		inspector: ins,
		hub:       ins.Hub(),
		router:    chi.NewRouter(),
		logger:    slog.Default().With("component", "devtools"),
	}

	s.router.Use(middleware.Recoverer)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/ticks", s.handleTicks)
	s.router.Get("/ticks/{tick}", s.handleTick)
	s.router.Get("/tree", s.handleTree)
	s.router.Get("/graph", s.handleGraph)
	s.router.Get("/instances", s.handleInstances)
	if s.hub != nil {
		s.router.Get("/ws", s.hub.HandleWebSocket)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("devtools listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.hub != nil {
		s.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *Server) handleTicks(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	s.writeJSON(w, s.inspector.Ticks(limit))
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	tick, err := strconv.ParseUint(chi.URLParam(r, "tick"), 10, 64)
	if err != nil {
		http.Error(w, "invalid tick", http.StatusBadRequest)
		return
	}
	summary, ok := s.inspector.Tick(tick)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, summary)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	tree := s.inspector.Tree()
	if r.URL.Query().Get("format") == "json" {
		s.writeJSON(w, tree)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(view.Format(tree)))
}

func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.inspector.Graph())
}

func (s *Server) handleInstances(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.inspector.Instances())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
