// Package server exposes the ordering conversation over HTTP: one chat
// endpoint, session diagnostics, a health check, and optional Prometheus
// metrics exposition.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/orchestrator"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
)

// Conversations drives one chat turn. *orchestrator.Orchestrator satisfies it.
type Conversations interface {
	HandleMessage(ctx context.Context, sessionID, message string) (*orchestrator.Turn, error)
}

// Sessions is the read/reset surface behind the session endpoints.
// *db.SessionStore satisfies it.
type Sessions interface {
	Get(ctx context.Context, sessionID string) (*session.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// Server is the HTTP front of the service.
type Server struct {
	conversations Conversations
	sessions      Sessions
	metrics       http.Handler
	metricsPath   string
	cfg           config.ServerConfig
	httpServer    *http.Server
}

// New builds the server from the full configuration. metrics may be nil,
// which leaves the metrics endpoint unregistered.
func New(conversations Conversations, sessions Sessions, metrics http.Handler, cfg *config.Config) *Server {
	s := &Server{
		conversations: conversations,
		sessions:      sessions,
		metrics:       metrics,
		metricsPath:   cfg.Metrics.Path,
		cfg:           cfg.Server,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler. Tests drive it directly without a
// listener.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(recoverer)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		path := s.metricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/sessions/{sessionID}", s.handleGetSession)
		r.Delete("/sessions/{sessionID}", s.handleDeleteSession)
	})

	return r
}

// Start serves until ctx is cancelled or the listener fails, then drains
// in-flight requests within the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	slog.Info("http server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return <-errCh
}
