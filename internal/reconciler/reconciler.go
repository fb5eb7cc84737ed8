// Package reconciler implements the comment reconciler: given desired
// conflict updates and removals keyed by trigger pull, it diffs them against
// the bot's existing comments on the forge and issues the minimal set of
// create/update/delete calls.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/wikiconflictbot/internal/commentcodec"
	"github.com/sevigo/wikiconflictbot/internal/conflict"
	"github.com/sevigo/wikiconflictbot/internal/githubapp"
	"github.com/sevigo/wikiconflictbot/internal/wikierr"
)

// ForgeClient is the subset of githubapp.Client the reconciler reads and
// writes through.
type ForgeClient interface {
	ListComments(ctx context.Context, repo string, issueNumber int) ([]githubapp.IssueComment, error)
	PostComment(ctx context.Context, repo string, issueNumber int, body string) error
	UpdateComment(ctx context.Context, repo string, commentID int64, body string) error
	DeleteComment(ctx context.Context, repo string, commentID int64) error
}

// Reconciler owns the forge write side of conflict notification.
type Reconciler struct {
	forge        ForgeClient
	botLogin     string
	postComments bool
	logger       *slog.Logger
}

// New creates a Reconciler. botLogin is the exact comment-author login
// identifying this app's comments (e.g. "wiki-conflict-bot[bot]").
// postComments gates all writes: when false, the reconciler still lists the
// trigger pulls' comments and computes the diff (for logging) but performs
// no create, update or delete calls, matching the
// controller.post_comments configuration knob.
func New(forge ForgeClient, botLogin string, postComments bool, logger *slog.Logger) *Reconciler {
	return &Reconciler{forge: forge, botLogin: botLogin, postComments: postComments, logger: logger}
}

type ownedKey struct {
	original int
	kind     conflict.Kind
}

// Reconcile applies toUpdate and toRemove to repo's pull requests. toUpdate
// and toRemove must be disjoint by (trigger, original, kind); the refresh
// pass that builds them is responsible for that invariant. Every write
// failure is logged and does not stop the remaining writes.
func (r *Reconciler) Reconcile(ctx context.Context, repo string, toUpdate, toRemove map[int][]conflict.Conflict) {
	triggers := make(map[int]struct{}, len(toUpdate)+len(toRemove))
	for n := range toUpdate {
		triggers[n] = struct{}{}
	}
	for n := range toRemove {
		triggers[n] = struct{}{}
	}

	for trigger := range triggers {
		owned, err := r.ownedComments(ctx, repo, trigger)
		if err != nil {
			r.logger.Error("failed to list comments", "repo", repo, "pr", trigger, "error", err)
			continue
		}

		for _, removed := range toRemove[trigger] {
			r.remove(ctx, repo, trigger, owned, removed)
		}
		for _, updated := range toUpdate[trigger] {
			r.upsertComment(ctx, repo, trigger, owned, updated)
		}
	}
}

// ownedComments lists repo's comments on the trigger issue, filters to
// bot-owned comments with a parseable header, and returns the mapping from
// (original, kind) to comment ID.
func (r *Reconciler) ownedComments(ctx context.Context, repo string, trigger int) (map[ownedKey]int64, error) {
	comments, err := r.forge.ListComments(ctx, repo, trigger)
	if err != nil {
		return nil, err
	}

	owned := make(map[ownedKey]int64)
	for _, c := range comments {
		if c.Author != r.botLogin {
			continue
		}
		header, err := commentcodec.DecodeHeader(c.Body)
		if err != nil {
			skipErr := fmt.Errorf("%w: malformed bot comment %d on %s#%d: %w", wikierr.ErrInternal, c.ID, repo, trigger, err)
			r.logger.Debug("skipping bot comment with unparseable header", "repo", repo, "pr", trigger, "comment_id", c.ID, "error", skipErr)
			continue
		}
		owned[ownedKey{original: header.PullNumber, kind: header.ConflictType}] = c.ID
	}
	return owned, nil
}

func (r *Reconciler) remove(ctx context.Context, repo string, trigger int, owned map[ownedKey]int64, removed conflict.Conflict) {
	commentID, ok := owned[ownedKey{original: removed.Original, kind: removed.Kind}]
	if !ok {
		return
	}
	if !r.postComments {
		r.logger.Info("comment writes disabled, skipping delete", "repo", repo, "pr", trigger, "comment_id", commentID)
		return
	}
	if err := r.forge.DeleteComment(ctx, repo, commentID); err != nil {
		r.logger.Error("failed to delete stale conflict comment", "repo", repo, "pr", trigger, "comment_id", commentID, "error", err)
	}
}

func (r *Reconciler) upsertComment(ctx context.Context, repo string, trigger int, owned map[ownedKey]int64, updated conflict.Conflict) {
	body := commentcodec.EncodeBody(updated)
	key := ownedKey{original: updated.Original, kind: updated.Kind}

	if !r.postComments {
		r.logger.Info("comment writes disabled, skipping write", "repo", repo, "pr", trigger, "kind", updated.Kind)
		return
	}

	if commentID, ok := owned[key]; ok {
		if err := r.forge.UpdateComment(ctx, repo, commentID, body); err != nil {
			r.logger.Error("failed to update conflict comment", "repo", repo, "pr", trigger, "comment_id", commentID, "error", err)
		}
		return
	}

	if err := r.forge.PostComment(ctx, repo, trigger, body); err != nil {
		r.logger.Error("failed to post conflict comment", "repo", repo, "pr", trigger, "kind", updated.Kind, "error", err)
	}
}
