package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sevigo/wikiconflictbot/internal/app"
	"github.com/sevigo/wikiconflictbot/internal/config"
	"github.com/sevigo/wikiconflictbot/internal/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application failed to run", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out, err := cfg.Logging.Writer()
	if err != nil {
		return fmt.Errorf("failed to open log output: %w", err)
	}
	log := logger.NewLogger(cfg.Logging.ToLoggerConfig(), out)
	slog.SetDefault(log)

	log.Info("starting wiki-conflict-bot")

	application, err := app.NewApp(ctx, cfg, log, func(err error) {
		log.Error("aborting due to fatal upstream error", "error", err)
		cancel()
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	go func() {
		if err := application.Start(); err != nil {
			log.Error("server error", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info("received shutdown signal")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	if err := application.Stop(); err != nil {
		log.Error("failed to stop application", "error", err)
		return fmt.Errorf("failed to stop application: %w", err)
	}
	return nil
}
