package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/wikiconflictbot/internal/config"
	"github.com/sevigo/wikiconflictbot/internal/controller"
	"github.com/sevigo/wikiconflictbot/internal/server/handler"
)

// NewRouter creates and configures the HTTP router with middleware and routes.
func NewRouter(cfg *config.Config, handle *controller.Handle, webhookSecret string, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("wiki-conflict-bot is running\n"))
	})

	webhookHandler := handler.NewWebhookHandler(webhookSecret, handle, logger)
	r.Post(cfg.Server.EventsEndpoint, webhookHandler.Handle)

	return r
}
