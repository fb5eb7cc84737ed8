// Package controller implements the ControllerActor: the single-consumer
// event loop that owns per-repository pull and conflict state, runs the
// conflict classifier on every relevant event, and drives the comment
// reconciler's forge writes.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/wikiconflictbot/internal/classifier"
	"github.com/sevigo/wikiconflictbot/internal/conflict"
	"github.com/sevigo/wikiconflictbot/internal/conflictstore"
	"github.com/sevigo/wikiconflictbot/internal/diffmodel"
	"github.com/sevigo/wikiconflictbot/internal/githubapp"
	"github.com/sevigo/wikiconflictbot/internal/pullcache"
	"github.com/sevigo/wikiconflictbot/internal/reconciler"
	"github.com/sevigo/wikiconflictbot/internal/wikierr"
)

// diffFetchConcurrency bounds how many ReadPullDiff calls a repository's
// cold-start load issues in flight at once. Diffs are fetched concurrently
// but inserted into the cache back on the actor's own goroutine, one at a
// time, preserving the single-writer mutation model: no other goroutine ever
// touches the PullCache or ConflictStore directly.
const diffFetchConcurrency = 4

// Mint obtains an installation-scoped forge client for installationID.
type Mint func(ctx context.Context, installationID int64) (githubapp.Client, error)

// Actor is the ControllerActor: it owns the PullCache and ConflictStore and
// is the only goroutine that ever mutates them.
type Actor struct {
	appForge     githubapp.Client
	mint         Mint
	postComments bool
	logger       *slog.Logger
	onFatal      func(error)

	pulls     *pullcache.Cache
	conflicts *conflictstore.Store

	app              githubapp.App
	installations    map[int64]githubapp.Installation
	repoClient       map[string]githubapp.Client
	repoInstallation map[string]int64
}

// New creates an Actor in the Uninitialized state. appForge is used only for
// App identity and Installation enumeration; mint obtains a repository-
// capable client scoped to a specific installation. postComments gates all
// forge comment writes (set false to run in dry-run/shadow mode). onFatal,
// if non-nil, is invoked from the actor's own goroutine each time a handled
// event surfaces a wikierr.ErrFatalUpstream — a forge 501 — so the process
// owner can abort per spec §7.6; pass nil to only log it.
func New(appForge githubapp.Client, mint Mint, postComments bool, logger *slog.Logger, onFatal func(error)) *Actor {
	return &Actor{
		appForge:         appForge,
		mint:             mint,
		postComments:     postComments,
		logger:           logger,
		onFatal:          onFatal,
		pulls:            pullcache.New(),
		conflicts:        conflictstore.New(),
		installations:    make(map[int64]githubapp.Installation),
		repoClient:       make(map[string]githubapp.Client),
		repoInstallation: make(map[string]int64),
	}
}

// Run starts the actor's single-consumer event loop and a Handle for
// producers to send events through. The loop runs on its own goroutine until
// ctx is cancelled; Run itself returns immediately.
func Run(ctx context.Context, a *Actor) *Handle {
	h := newHandle()
	go a.loop(ctx, h.events)
	return h
}

func (a *Actor) loop(ctx context.Context, events chan Event) {
	for {
		select {
		case ev := <-events:
			err := a.handle(ctx, ev)
			if err != nil && errors.Is(err, wikierr.ErrFatalUpstream) {
				a.logger.Error("fatal upstream error, aborting", "error", err)
				if a.onFatal != nil {
					a.onFatal(err)
				}
			} else if err != nil {
				a.logger.Error("failed to handle event, dropping it", "event_kind", ev.Kind, "error", err)
			}
			if ev.reply != nil {
				ev.reply <- err
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *Actor) handle(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventInit:
		return a.init(ctx)
	case EventPullRequestCreated:
		return a.upsertPull(ctx, ev.Repo, ev.Pull, ev.Trigger)
	case EventPullRequestUpdated:
		if !a.knowsRepo(ev.Repo) {
			a.logger.Info("update for unknown repository, dropping", "repo", ev.Repo, "pr", ev.Pull.Number)
			return nil
		}
		return a.upsertPull(ctx, ev.Repo, ev.Pull, ev.Trigger)
	case EventPullRequestClosed:
		return a.finalizePull(ctx, ev.Repo, ev.Pull)
	case EventInstallationCreated:
		return a.installationCreated(ctx, ev.InstallationID, ev.Repositories)
	case EventInstallationDeleted:
		a.installationDeleted(ev.InstallationID)
		return nil
	case EventInstallationRepositoriesAdded:
		return a.repositoriesAdded(ctx, ev.InstallationID, ev.Repositories)
	case EventInstallationRepositoriesRemoved:
		a.repositoriesRemoved(ev.Repositories)
		return nil
	case EventReconcile:
		return a.reconcileAll(ctx)
	default:
		return nil
	}
}

// init performs the cold-start load: app identity, installations, every
// installation's repositories, and every repository's open pulls with their
// diffs attached. No comment writes are issued during cold start.
func (a *Actor) init(ctx context.Context) error {
	app, err := a.appForge.App(ctx)
	if err != nil {
		return err
	}
	a.app = app

	installs, err := a.appForge.Installations(ctx)
	if err != nil {
		return err
	}

	for _, inst := range installs {
		a.installations[inst.ID] = inst
		client, err := a.mint(ctx, inst.ID)
		if err != nil {
			a.logger.Error("failed to mint installation client", "installation_id", inst.ID, "error", err)
			continue
		}
		for _, repo := range inst.Repositories {
			a.repoClient[repo] = client
			a.repoInstallation[repo] = inst.ID
			if err := a.loadRepository(ctx, client, repo); err != nil {
				a.logger.Error("failed to load repository", "repo", repo, "error", err)
			}
		}
	}
	return nil
}

// loadRepository fetches repo's open pulls and their diffs and inserts them
// into the cache without running the classifier or issuing comment writes.
// Diffs are fetched with bounded concurrency; cache insertion itself happens
// back on the caller's goroutine (the actor), one pull at a time.
func (a *Actor) loadRepository(ctx context.Context, client githubapp.Client, repo string) error {
	prs, err := client.Pulls(ctx, repo)
	if err != nil {
		return err
	}

	diffs := make([]diffmodel.Diff, len(prs))
	fetched := make([]bool, len(prs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(diffFetchConcurrency)
	for i, pr := range prs {
		i, pr := i, pr
		g.Go(func() error {
			diff, err := client.ReadPullDiff(gctx, repo, pr.Number)
			if err != nil {
				skipErr := fmt.Errorf("%w: missing diff for %s#%d: %w", wikierr.ErrInternal, repo, pr.Number, err)
				a.logger.Error("failed to read pull diff, skipping pull", "repo", repo, "pr", pr.Number, "error", skipErr)
				return nil
			}
			diffs[i] = diff
			fetched[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, pr := range prs {
		if !fetched[i] {
			continue
		}
		a.pulls.Insert(repo, toCachedPull(pr, diffs[i]))
	}
	return nil
}

// BotLogin returns the comment-author login owned by this process's app
// identity. It is empty until Init has completed.
func (a *Actor) BotLogin() string {
	return a.app.BotLogin()
}

func toCachedPull(pr githubapp.PullRequest, diff diffmodel.Diff) pullcache.Pull {
	return pullcache.Pull{
		Number:    pr.Number,
		Title:     pr.Title,
		Author:    pr.Author,
		HTMLURL:   pr.HTMLURL,
		CreatedAt: pr.CreatedAt,
		UpdatedAt: pr.UpdatedAt,
		Merged:    pr.Merged,
		Diff:      diff,
	}
}

func toClassifierPull(p pullcache.Pull) classifier.Pull {
	return classifier.Pull{Number: p.Number, HTMLURL: p.HTMLURL, Diff: p.Diff}
}

// upsertPull fetches repo's pull number pr.Number's diff, caches it, runs
// refresh_conflicts against every other open pull with kind_to_match =
// Overlap, and — when trigger is set — reconciles the resulting comment
// diff onto the forge.
func (a *Actor) upsertPull(ctx context.Context, repo string, pr githubapp.PullRequest, trigger bool) error {
	client, err := a.clientFor(repo)
	if err != nil {
		return err
	}

	diff, err := client.ReadPullDiff(ctx, repo, pr.Number)
	if err != nil {
		return err
	}
	cached := toCachedPull(pr, diff)
	a.pulls.Insert(repo, cached)

	toUpdate, toRemove := a.refreshConflicts(repo, cached, conflict.Overlap)
	if trigger {
		a.reconcile(ctx, repo, toUpdate, toRemove)
	}
	return nil
}

// finalizePull handles a pull request closing. If it merged, it runs
// refresh_conflicts with kind_to_match = IncompleteTranslation and
// reconciles before evicting the pull from both the cache and the store.
func (a *Actor) finalizePull(ctx context.Context, repo string, pr githubapp.PullRequest) error {
	if pr.Merged {
		cached, ok := a.pulls.Get(repo, pr.Number)
		if !ok {
			client, err := a.clientFor(repo)
			if err != nil {
				return err
			}
			diff, err := client.ReadPullDiff(ctx, repo, pr.Number)
			if err != nil {
				return err
			}
			cached = toCachedPull(pr, diff)
		}

		toUpdate, toRemove := a.refreshConflicts(repo, cached, conflict.IncompleteTranslation)
		a.reconcile(ctx, repo, toUpdate, toRemove)
	}

	a.pulls.Remove(repo, pr.Number)
	a.conflicts.RemoveConflictsByPull(repo, pr.Number)
	return nil
}

// refreshConflicts compares newPull against every other cached open pull in
// repo, updates the ConflictStore, and partitions the resulting
// notifications into to_update/to_remove keyed by trigger pull number.
func (a *Actor) refreshConflicts(repo string, newPull pullcache.Pull, kindToMatch conflict.Kind) (toUpdate, toRemove map[int][]conflict.Conflict) {
	toUpdate = make(map[int][]conflict.Conflict)
	toRemove = make(map[int][]conflict.Conflict)

	newClassifierPull := toClassifierPull(newPull)
	for _, other := range a.pulls.OpenPulls(repo) {
		if other.Number == newPull.Number {
			continue
		}

		detected := classifier.ComparePulls(newClassifierPull, toClassifierPull(other))
		removed := a.conflicts.RemoveMissing(repo, other.Number, newPull.Number, detected)
		for _, r := range removed {
			toRemove[r.Trigger] = append(toRemove[r.Trigger], r)
		}

		for _, c := range detected {
			if kindToMatch == conflict.IncompleteTranslation &&
				c.Kind == conflict.IncompleteTranslation &&
				c.Trigger == newPull.Number &&
				allTranslationOriginals(c.FileSet) {
				// Merge-translation guard: the just-merged pull should not
				// receive a stale warning about itself. Evict any standing
				// record and schedule its comment for deletion rather than
				// upserting a fresh one.
				if stored, ok := a.conflicts.Remove(repo, c.Key()); ok {
					toRemove[stored.Trigger] = append(toRemove[stored.Trigger], stored)
				} else {
					toRemove[c.Trigger] = append(toRemove[c.Trigger], c)
				}
				continue
			}

			updated, changed := a.conflicts.Upsert(repo, c)
			if changed && updated.Kind == kindToMatch {
				toUpdate[updated.Trigger] = append(toUpdate[updated.Trigger], updated)
			}
		}
	}
	return toUpdate, toRemove
}

// allTranslationOriginals reports whether every path in files is an English
// original (the merge-translation guard's file-set test).
func allTranslationOriginals(files []string) bool {
	if len(files) == 0 {
		return false
	}
	for _, f := range files {
		if !strings.HasSuffix(f, "/en.md") && f != "en.md" {
			return false
		}
	}
	return true
}

func (a *Actor) reconcile(ctx context.Context, repo string, toUpdate, toRemove map[int][]conflict.Conflict) {
	if len(toUpdate) == 0 && len(toRemove) == 0 {
		return
	}
	client, err := a.clientFor(repo)
	if err != nil {
		a.logger.Error("no forge client for repository, dropping comment writes", "repo", repo, "error", err)
		return
	}
	r := reconciler.New(client, a.app.BotLogin(), a.postComments, a.logger)
	r.Reconcile(ctx, repo, toUpdate, toRemove)
}

// knowsRepo reports whether repo belongs to an installation this process has
// already loaded. An update for a repository outside that set cannot be
// serviced (there is no client to read its diff with).
func (a *Actor) knowsRepo(repo string) bool {
	_, ok := a.repoClient[repo]
	return ok
}

func (a *Actor) clientFor(repo string) (githubapp.Client, error) {
	client, ok := a.repoClient[repo]
	if !ok {
		return nil, fmt.Errorf("no forge client registered for repository %q", repo)
	}
	return client, nil
}

func (a *Actor) installationCreated(ctx context.Context, installationID int64, repos []string) error {
	client, err := a.mint(ctx, installationID)
	if err != nil {
		return err
	}
	a.installations[installationID] = githubapp.Installation{ID: installationID, Repositories: repos}
	for _, repo := range repos {
		a.repoClient[repo] = client
		a.repoInstallation[repo] = installationID
		if err := a.loadRepository(ctx, client, repo); err != nil {
			a.logger.Error("failed to load repository for new installation", "repo", repo, "error", err)
		}
	}
	return nil
}

func (a *Actor) installationDeleted(installationID int64) {
	inst, ok := a.installations[installationID]
	if !ok {
		return
	}
	a.repositoriesRemoved(inst.Repositories)
	delete(a.installations, installationID)
}

func (a *Actor) repositoriesAdded(ctx context.Context, installationID int64, repos []string) error {
	client, err := a.mint(ctx, installationID)
	if err != nil {
		return err
	}
	for _, repo := range repos {
		a.repoClient[repo] = client
		a.repoInstallation[repo] = installationID
		if err := a.loadRepository(ctx, client, repo); err != nil {
			a.logger.Error("failed to load newly granted repository", "repo", repo, "error", err)
		}
	}
	if inst, ok := a.installations[installationID]; ok {
		inst.Repositories = append(inst.Repositories, repos...)
		a.installations[installationID] = inst
	}
	return nil
}

func (a *Actor) repositoriesRemoved(repos []string) {
	for _, repo := range repos {
		a.pulls.DropRepository(repo)
		a.conflicts.RemoveRepository(repo)
		delete(a.repoClient, repo)
		delete(a.repoInstallation, repo)
	}
}

// reconcileAll reruns refresh_conflicts for every cached open pull across
// every known repository and reconciles the results. Pulls are visited in
// their cached creation order so that, within a repository, earlier-opened
// pulls are treated as the stable reference point for later ones.
func (a *Actor) reconcileAll(ctx context.Context) error {
	seen := make(map[string]struct{})
	for repo := range a.repoClient {
		if _, ok := seen[repo]; ok {
			continue
		}
		seen[repo] = struct{}{}

		for _, p := range a.pulls.OpenPulls(repo) {
			toUpdate, toRemove := a.refreshConflicts(repo, p, conflict.Overlap)
			a.reconcile(ctx, repo, toUpdate, toRemove)
		}
	}
	return nil
}
