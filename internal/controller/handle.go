package controller

import (
	"context"

	"github.com/sevigo/wikiconflictbot/internal/githubapp"
)

// queueDepth bounds the actor's inbound message queue. Producers (webhook
// handlers) block once it fills, applying backpressure to the forge's
// webhook delivery rather than unbounded buffering.
const queueDepth = 10

// Handle is the producer-side facade webhook handlers and the composition
// root use to talk to the single ControllerActor running in this process.
type Handle struct {
	events chan Event
}

func newHandle() *Handle {
	return &Handle{events: make(chan Event, queueDepth)}
}

// Notify enqueues ev without waiting for it to be processed. It blocks until
// queue space is available or ctx is cancelled.
func (h *Handle) Notify(ctx context.Context, ev Event) error {
	select {
	case h.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// request enqueues ev and waits for the actor to report the outcome.
func (h *Handle) request(ctx context.Context, ev Event) error {
	reply := make(chan error, 1)
	ev.reply = reply
	select {
	case h.events <- ev:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Init requests the cold-start load and blocks until it completes or fails.
func (h *Handle) Init(ctx context.Context) error {
	return h.request(ctx, Event{Kind: EventInit})
}

// PullRequestCreated notifies the actor that repo's pull request pr was
// opened. trigger gates whether the resulting conflicts are reconciled into
// forge comments immediately.
func (h *Handle) PullRequestCreated(ctx context.Context, repo string, pr githubapp.PullRequest, trigger bool) error {
	return h.Notify(ctx, Event{Kind: EventPullRequestCreated, Repo: repo, Pull: pr, Trigger: trigger})
}

// PullRequestUpdated notifies the actor that repo's pull request pr changed.
func (h *Handle) PullRequestUpdated(ctx context.Context, repo string, pr githubapp.PullRequest, trigger bool) error {
	return h.Notify(ctx, Event{Kind: EventPullRequestUpdated, Repo: repo, Pull: pr, Trigger: trigger})
}

// PullRequestClosed notifies the actor that repo's pull request pr closed
// (merged or not).
func (h *Handle) PullRequestClosed(ctx context.Context, repo string, pr githubapp.PullRequest) error {
	return h.Notify(ctx, Event{Kind: EventPullRequestClosed, Repo: repo, Pull: pr})
}

// InstallationCreated notifies the actor of a new app installation.
func (h *Handle) InstallationCreated(ctx context.Context, installationID int64, repos []string) error {
	return h.Notify(ctx, Event{Kind: EventInstallationCreated, InstallationID: installationID, Repositories: repos})
}

// InstallationDeleted notifies the actor that an installation was revoked.
func (h *Handle) InstallationDeleted(ctx context.Context, installationID int64) error {
	return h.Notify(ctx, Event{Kind: EventInstallationDeleted, InstallationID: installationID})
}

// InstallationRepositoriesAdded notifies the actor that repos were granted
// to an existing installation.
func (h *Handle) InstallationRepositoriesAdded(ctx context.Context, installationID int64, repos []string) error {
	return h.Notify(ctx, Event{Kind: EventInstallationRepositoriesAdded, InstallationID: installationID, Repositories: repos})
}

// InstallationRepositoriesRemoved notifies the actor that repos were revoked
// from an existing installation.
func (h *Handle) InstallationRepositoriesRemoved(ctx context.Context, installationID int64, repos []string) error {
	return h.Notify(ctx, Event{Kind: EventInstallationRepositoriesRemoved, InstallationID: installationID, Repositories: repos})
}

// Reconcile requests a full resync: refresh_conflicts reruns across every
// cached open pull in every repository and any resulting comment writes are
// issued. It is not part of the webhook-driven event set; it exists for
// operator-triggered or periodic drift correction.
func (h *Handle) Reconcile(ctx context.Context) error {
	return h.request(ctx, Event{Kind: EventReconcile})
}
