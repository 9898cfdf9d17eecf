// Package server exposes the advice pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/edgard/finadvisor/internal/config"
)

// Server owns the HTTP listener lifecycle.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New constructs a Server serving handler on the configured address.
func New(logger *slog.Logger, cfg config.HTTPConfig, handler http.Handler) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With("component", "http_server"),
	}
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start listens until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully drains active connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
