// Package app wires together configuration, the GitHub App forge client, the
// ControllerActor, and the HTTP server into a single running process.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/wikiconflictbot/internal/config"
	"github.com/sevigo/wikiconflictbot/internal/controller"
	"github.com/sevigo/wikiconflictbot/internal/githubapp"
	"github.com/sevigo/wikiconflictbot/internal/server"
)

// App holds the composed runtime components.
type App struct {
	Cfg *config.Config

	logger *slog.Logger
	server *server.Server
	handle *controller.Handle
}

// NewApp authenticates against the configured GitHub App, performs the
// controller's cold-start load, and builds the HTTP server that will feed it
// webhook events. onFatal, if non-nil, is invoked when the controller
// observes an unrecoverable forge error (HTTP 501); the caller is expected to
// abort the process (spec §7.6) — typically by cancelling ctx.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, onFatal func(error)) (*App, error) {
	logger.Info("initializing wiki-conflict-bot",
		"app_id", cfg.GitHub.AppID,
		"post_comments", cfg.Controller.PostComments,
	)

	auth, err := githubapp.NewAppAuth(cfg.GitHub.AppID, cfg.GitHub.AppKeyPath, logger)
	if err != nil {
		return nil, err
	}

	appForge, err := auth.NewAppForgeClient()
	if err != nil {
		return nil, fmt.Errorf("create app-scoped forge client: %w", err)
	}

	actor := controller.New(appForge, auth.NewInstallationForgeClient, cfg.Controller.PostComments, logger, onFatal)
	handle := controller.Run(ctx, actor)

	if err := handle.Init(ctx); err != nil {
		return nil, fmt.Errorf("controller cold start: %w", err)
	}

	httpServer := server.NewServer(ctx, cfg, handle, logger)

	logger.Info("wiki-conflict-bot initialized successfully")
	return &App{
		Cfg:    cfg,
		logger: logger,
		server: httpServer,
		handle: handle,
	}, nil
}

// Start runs the HTTP server and blocks until it stops.
func (a *App) Start() error {
	a.logger.Info("starting wiki-conflict-bot", "bind_ip", a.Cfg.Server.BindIP, "port", a.Cfg.Server.Port)

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the HTTP server. The controller's event loop is stopped by
// cancelling the context it was run with.
func (a *App) Stop() error {
	a.logger.Info("shutting down wiki-conflict-bot")
	if err := a.server.Stop(); err != nil {
		a.logger.Error("error during HTTP server shutdown", "error", err)
		return err
	}
	a.logger.Info("wiki-conflict-bot stopped successfully")
	return nil
}
