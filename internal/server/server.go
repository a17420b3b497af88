package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"teikipass/internal/config"
	"teikipass/internal/handler"
	"teikipass/internal/planner"
	"teikipass/internal/realtime"
)

// Server is the HTTP server for the JSON API.
type Server struct {
	mux    *http.ServeMux
	cfg    *config.Config
	logger *slog.Logger
	ready  chan struct{} // closed when a dataset is loaded
}

// New creates a new Server with all routes registered. rt may be nil.
func New(cfg *config.Config, p *planner.Planner, rt *realtime.Store, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	h := handler.New(p, rt, cfg, logger)

	ready := make(chan struct{})
	if p.Ready() {
		close(ready)
	}

	s := &Server{mux: mux, cfg: cfg, logger: logger, ready: ready}

	mux.HandleFunc("GET /api/stations", h.Stations)
	mux.HandleFunc("GET /api/route", h.Route)
	mux.HandleFunc("GET /api/fares", h.Fares)
	mux.HandleFunc("GET /api/alerts", h.Alerts)
	mux.HandleFunc("GET /healthz", h.Health)

	return s
}

// SetReady signals that a dataset is loaded and the API can serve requests.
func (s *Server) SetReady() {
	select {
	case <-s.ready:
		// already closed
	default:
		close(s.ready)
	}
}

// Handler returns the routes wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return withMiddleware(s.mux, s.logger, s.cfg.AllowedOrigins, s.ready)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
