// Package handler provides HTTP handlers for the wiki-conflict-bot webhook
// receiver.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/wikiconflictbot/internal/controller"
	"github.com/sevigo/wikiconflictbot/internal/githubapp"
	"github.com/sevigo/wikiconflictbot/internal/wikierr"
)

// maxWebhookBodyBytes caps the webhook request body the handler will read.
const maxWebhookBodyBytes = 10 << 20 // 10 MiB

// WebhookHandler verifies and dispatches GitHub webhook deliveries onto the
// ControllerActor's event queue.
type WebhookHandler struct {
	webhookSecret []byte
	handle        *controller.Handle
	logger        *slog.Logger
}

// NewWebhookHandler creates a webhook handler bound to handle.
func NewWebhookHandler(webhookSecret string, handle *controller.Handle, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{webhookSecret: []byte(webhookSecret), handle: handle, logger: logger}
}

// Handle validates the request's HMAC signature, parses the event payload,
// and dispatches recognized event types onto the controller's event queue.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)

	payload, err := github.ValidatePayload(r, h.webhookSecret)
	if err != nil {
		h.logger.Error("webhook signature validation failed", "error", fmt.Errorf("%w: %w", wikierr.ErrValidation, err))
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		h.logger.Error("could not parse webhook payload", "error", fmt.Errorf("%w: %w", wikierr.ErrValidation, err))
		http.Error(w, "could not parse payload", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	switch e := event.(type) {
	case *github.PullRequestEvent:
		h.handlePullRequest(ctx, e)
	case *github.InstallationEvent:
		h.handleInstallation(ctx, e)
	case *github.InstallationRepositoriesEvent:
		h.handleInstallationRepositories(ctx, e)
	default:
		h.logger.Debug("ignoring unhandled webhook event type", "type", github.WebHookType(r))
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "ok")
}

func (h *WebhookHandler) handlePullRequest(ctx context.Context, e *github.PullRequestEvent) {
	repo := e.GetRepo().GetFullName()
	pr := toForgePull(e.GetPullRequest())

	switch e.GetAction() {
	case "opened", "reopened", "synchronize":
		if err := h.handle.PullRequestUpdated(ctx, repo, pr, true); err != nil {
			h.logger.Error("failed to enqueue pull request event", "repo", repo, "pr", pr.Number, "error", err)
		}
	case "closed":
		if err := h.handle.PullRequestClosed(ctx, repo, pr); err != nil {
			h.logger.Error("failed to enqueue pull request closed event", "repo", repo, "pr", pr.Number, "error", err)
		}
	default:
		h.logger.Debug("ignoring pull_request action", "action", e.GetAction())
	}
}

func (h *WebhookHandler) handleInstallation(ctx context.Context, e *github.InstallationEvent) {
	id := e.GetInstallation().GetID()
	switch e.GetAction() {
	case "created":
		repos := make([]string, 0, len(e.Repositories))
		for _, r := range e.Repositories {
			repos = append(repos, r.GetFullName())
		}
		if err := h.handle.InstallationCreated(ctx, id, repos); err != nil {
			h.logger.Error("failed to enqueue installation created event", "installation_id", id, "error", err)
		}
	case "deleted":
		if err := h.handle.InstallationDeleted(ctx, id); err != nil {
			h.logger.Error("failed to enqueue installation deleted event", "installation_id", id, "error", err)
		}
	default:
		h.logger.Debug("ignoring installation action", "action", e.GetAction())
	}
}

func (h *WebhookHandler) handleInstallationRepositories(ctx context.Context, e *github.InstallationRepositoriesEvent) {
	id := e.GetInstallation().GetID()
	switch e.GetAction() {
	case "added":
		repos := make([]string, 0, len(e.RepositoriesAdded))
		for _, r := range e.RepositoriesAdded {
			repos = append(repos, r.GetFullName())
		}
		if err := h.handle.InstallationRepositoriesAdded(ctx, id, repos); err != nil {
			h.logger.Error("failed to enqueue repositories added event", "installation_id", id, "error", err)
		}
	case "removed":
		repos := make([]string, 0, len(e.RepositoriesRemoved))
		for _, r := range e.RepositoriesRemoved {
			repos = append(repos, r.GetFullName())
		}
		if err := h.handle.InstallationRepositoriesRemoved(ctx, id, repos); err != nil {
			h.logger.Error("failed to enqueue repositories removed event", "installation_id", id, "error", err)
		}
	default:
		h.logger.Debug("ignoring installation_repositories action", "action", e.GetAction())
	}
}

func toForgePull(pr *github.PullRequest) githubapp.PullRequest {
	return githubapp.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Author:    pr.GetUser().GetLogin(),
		HTMLURL:   pr.GetHTMLURL(),
		State:     pr.GetState(),
		Merged:    pr.GetMerged(),
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
	}
}
