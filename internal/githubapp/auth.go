package githubapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/sevigo/wikiconflictbot/internal/wikierr"
)

// AppAuth mints installation-scoped clients for a GitHub App, using the
// app's private key to authenticate with ghinstallation's JWT transport.
type AppAuth struct {
	appID      int64
	privateKey []byte
	logger     *slog.Logger
}

// NewAppAuth reads the App's private key from keyPath.
func NewAppAuth(appID int64, keyPath string, logger *slog.Logger) (*AppAuth, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read private key from %s: %w", wikierr.ErrConfig, keyPath, err)
	}
	return &AppAuth{appID: appID, privateKey: key, logger: logger}, nil
}

// AppClient builds a go-github client authenticated as the app itself (JWT),
// used only to read app identity and enumerate installations.
func (a *AppAuth) AppClient() (*github.Client, error) {
	transport, err := ghinstallation.NewAppsTransport(http.DefaultTransport, a.appID, a.privateKey)
	if err != nil {
		return nil, fmt.Errorf("create app transport: %w", err)
	}
	return github.NewClient(&http.Client{Transport: transport}), nil
}

// InstallationClient builds a go-github client authenticated as a specific
// installation, minting and auto-refreshing its token via ghinstallation.
func (a *AppAuth) InstallationClient(ctx context.Context, installationID int64) (*github.Client, error) {
	transport, err := ghinstallation.New(http.DefaultTransport, a.appID, installationID, a.privateKey)
	if err != nil {
		return nil, fmt.Errorf("create installation transport for %d: %w", installationID, err)
	}
	return github.NewClient(&http.Client{Transport: transport}), nil
}

// NewInstallationForgeClient builds a repository-scoped Client for the given
// installation.
func (a *AppAuth) NewInstallationForgeClient(ctx context.Context, installationID int64) (Client, error) {
	gh, err := a.InstallationClient(ctx, installationID)
	if err != nil {
		return nil, err
	}
	return NewClient(gh, a.appID, nil, a.logger.With("installation_id", installationID)), nil
}

// NewAppForgeClient builds an app-scoped Client whose Installations method
// mints a fresh installation client per installation to enumerate
// repositories.
func (a *AppAuth) NewAppForgeClient() (Client, error) {
	gh, err := a.AppClient()
	if err != nil {
		return nil, err
	}
	mint := func(ctx context.Context, installationID int64) (*github.Client, error) {
		return a.InstallationClient(ctx, installationID)
	}
	return NewClient(gh, a.appID, mint, a.logger), nil
}

// NewPATForgeClient builds a repository-scoped Client authenticated with a
// personal access token instead of a GitHub App installation. It has no
// Installations to enumerate, so it is only useful for the CLI's
// single-repository diagnostic commands, never for the running server.
func NewPATForgeClient(ctx context.Context, token string, logger *slog.Logger) Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	gh := github.NewClient(oauth2.NewClient(ctx, ts))
	return NewClient(gh, 0, nil, logger)
}
