// Package githubapp implements the ForgeClient capability set the
// controller depends on, backed by the official go-github client and a
// GitHub App installation transport.
package githubapp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/wikiconflictbot/internal/diffmodel"
)

// App identifies the GitHub App this bot runs as.
type App struct {
	ID    int64
	Slug  string
	Owner string
	Name  string
}

// BotLogin is the comment author login GitHub assigns to this app's
// installation token, e.g. "wiki-conflict-bot[bot]".
func (a App) BotLogin() string {
	return a.Slug + "[bot]"
}

// Installation is a GitHub App installation and the repositories it grants
// access to.
type Installation struct {
	ID           int64
	Account      string
	AppID        int64
	Repositories []string
}

// PullRequest is the forge's view of a pull request, before its diff has
// been fetched and attached.
type PullRequest struct {
	Number    int
	Title     string
	Author    string
	HTMLURL   string
	State     string
	Merged    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IssueComment is a comment on a pull request's issue thread.
type IssueComment struct {
	ID        int64
	Body      string
	Author    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Client is the abstract boundary the controller consumes for a single
// repository-scoped (installation-authenticated) connection. A production
// implementation talks to the GitHub REST API; tests substitute an
// in-memory fake.
type Client interface {
	App(ctx context.Context) (App, error)
	Installations(ctx context.Context) ([]Installation, error)
	Pulls(ctx context.Context, repo string) ([]PullRequest, error)
	ReadPullDiff(ctx context.Context, repo string, number int) (diffmodel.Diff, error)
	ListComments(ctx context.Context, repo string, issueNumber int) ([]IssueComment, error)
	PostComment(ctx context.Context, repo string, issueNumber int, body string) error
	UpdateComment(ctx context.Context, repo string, commentID int64, body string) error
	DeleteComment(ctx context.Context, repo string, commentID int64) error
}

// client wraps a go-github client authenticated as a specific app
// installation (or, for App/Installations, as the app itself via JWT).
type client struct {
	gh     *github.Client
	appID  int64
	mint   func(ctx context.Context, installationID int64) (*github.Client, error)
	logger *slog.Logger
}

// NewClient wraps an authenticated go-github client. mint, when non-nil, is
// used by Installations to obtain a short-lived installation-scoped client
// for enumerating each installation's repositories; pass nil for clients
// that are already installation-scoped (Installations is then unsupported).
func NewClient(gh *github.Client, appID int64, mint func(ctx context.Context, installationID int64) (*github.Client, error), logger *slog.Logger) Client {
	return &client{gh: gh, appID: appID, mint: mint, logger: logger}
}

func splitRepo(repo string) (owner, name string, err error) {
	for i := 0; i < len(repo); i++ {
		if repo[i] == '/' {
			return repo[:i], repo[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("invalid repository full name %q, expected owner/name", repo)
}

func (c *client) App(ctx context.Context) (App, error) {
	app, _, err := c.gh.Apps.Get(ctx, "")
	if err != nil {
		return App{}, fmt.Errorf("get app identity: %w", err)
	}
	return App{
		ID:    app.GetID(),
		Slug:  app.GetSlug(),
		Owner: app.GetOwner().GetLogin(),
		Name:  app.GetName(),
	}, nil
}

func (c *client) Installations(ctx context.Context) ([]Installation, error) {
	if c.mint == nil {
		return nil, fmt.Errorf("client is not app-scoped: cannot enumerate installations")
	}

	var out []Installation
	opts := &github.ListOptions{PerPage: 100}
	for {
		installs, resp, err := c.gh.Apps.ListInstallations(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("list installations: %w", err)
		}
		for _, inst := range installs {
			repos, err := c.installationRepositories(ctx, inst.GetID())
			if err != nil {
				return nil, err
			}
			out = append(out, Installation{
				ID:           inst.GetID(),
				Account:      inst.GetAccount().GetLogin(),
				AppID:        inst.GetAppID(),
				Repositories: repos,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// installationRepositories mints a short-lived installation token and lists
// the repositories it grants access to.
func (c *client) installationRepositories(ctx context.Context, installationID int64) ([]string, error) {
	installClient, err := c.mint(ctx, installationID)
	if err != nil {
		return nil, fmt.Errorf("mint installation client for %d: %w", installationID, err)
	}

	var out []string
	opts := &github.ListOptions{PerPage: 100}
	for {
		result, resp, err := installClient.Apps.ListRepos(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("list repositories for installation %d: %w", installationID, err)
		}
		for _, r := range result.Repositories {
			out = append(out, r.GetFullName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (c *client) Pulls(ctx context.Context, repo string) ([]PullRequest, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	opts := &github.PullRequestListOptions{
		State:       "open",
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var out []PullRequest
	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("list pull requests for %s: %w", repo, err)
		}
		for _, pr := range prs {
			out = append(out, PullRequest{
				Number:    pr.GetNumber(),
				Title:     pr.GetTitle(),
				Author:    pr.GetUser().GetLogin(),
				HTMLURL:   pr.GetHTMLURL(),
				State:     pr.GetState(),
				Merged:    pr.GetMerged(),
				CreatedAt: pr.GetCreatedAt().Time,
				UpdatedAt: pr.GetUpdatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (c *client) ReadPullDiff(ctx context.Context, repo string, number int) (diffmodel.Diff, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return diffmodel.Diff{}, err
	}

	var raw string
	err = withRetry(ctx, func() (*github.Response, error) {
		var resp *github.Response
		raw, resp, err = c.gh.PullRequests.GetRaw(ctx, owner, name, number, github.RawOptions{Type: github.Diff})
		return resp, err
	})
	if err != nil {
		return diffmodel.Diff{}, fmt.Errorf("read diff for %s#%d: %w", repo, number, err)
	}

	d, err := diffmodel.Parse(raw)
	if err != nil {
		return diffmodel.Diff{}, fmt.Errorf("parse diff for %s#%d: %w", repo, number, err)
	}
	return d, nil
}

func (c *client) ListComments(ctx context.Context, repo string, issueNumber int) ([]IssueComment, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var out []IssueComment
	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, owner, name, issueNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("list comments for %s#%d: %w", repo, issueNumber, err)
		}
		for _, cm := range comments {
			out = append(out, IssueComment{
				ID:        cm.GetID(),
				Body:      cm.GetBody(),
				Author:    cm.GetUser().GetLogin(),
				CreatedAt: cm.GetCreatedAt().Time,
				UpdatedAt: cm.GetUpdatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (c *client) PostComment(ctx context.Context, repo string, issueNumber int, body string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}
	err = withRetry(ctx, func() (*github.Response, error) {
		_, resp, err := c.gh.Issues.CreateComment(ctx, owner, name, issueNumber, &github.IssueComment{Body: &body})
		return resp, err
	})
	if err != nil {
		return fmt.Errorf("post comment on %s#%d: %w", repo, issueNumber, err)
	}
	return nil
}

func (c *client) UpdateComment(ctx context.Context, repo string, commentID int64, body string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}
	err = withRetry(ctx, func() (*github.Response, error) {
		_, resp, err := c.gh.Issues.EditComment(ctx, owner, name, commentID, &github.IssueComment{Body: &body})
		return resp, err
	})
	if err != nil {
		return fmt.Errorf("update comment %d on %s: %w", commentID, repo, err)
	}
	return nil
}

func (c *client) DeleteComment(ctx context.Context, repo string, commentID int64) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}
	err = withRetry(ctx, func() (*github.Response, error) {
		resp, err := c.gh.Issues.DeleteComment(ctx, owner, name, commentID)
		return resp, err
	})
	if err != nil {
		return fmt.Errorf("delete comment %d on %s: %w", commentID, repo, err)
	}
	return nil
}
