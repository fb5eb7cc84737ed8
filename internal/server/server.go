// Package server implements the HTTP server that receives forge webhook
// deliveries and hands them to the ControllerActor.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sevigo/wikiconflictbot/internal/config"
	"github.com/sevigo/wikiconflictbot/internal/controller"
)

// Server wraps an HTTP server with graceful shutdown capabilities.
type Server struct {
	ctx    context.Context
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server bound to cfg.Server and routing webhook
// deliveries to handle.
func NewServer(ctx context.Context, cfg *config.Config, handle *controller.Handle, logger *slog.Logger) *Server {
	router := NewRouter(cfg, handle, cfg.GitHub.WebhookSecret, logger)
	addr := cfg.Server.BindIP + ":" + strconv.Itoa(cfg.Server.Port)

	return &Server{
		ctx: ctx,
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// Start starts the HTTP server and blocks until shutdown or error.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server with a 30-second timeout.
func (s *Server) Stop() error {
	s.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
