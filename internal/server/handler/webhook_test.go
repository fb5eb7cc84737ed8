package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/wikiconflictbot/internal/controller"
	"github.com/sevigo/wikiconflictbot/internal/diffmodel"
	"github.com/sevigo/wikiconflictbot/internal/githubapp"
)

const testSecret = "s3cr3t"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, h *WebhookHandler, eventType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", eventType)
	req.Header.Set("X-Hub-Signature-256", sign(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Handle(w, req)
	return w
}

type fakeForge struct{}

func (fakeForge) App(context.Context) (githubapp.App, error)            { return githubapp.App{}, nil }
func (fakeForge) Installations(context.Context) ([]githubapp.Installation, error) {
	return nil, nil
}
func (fakeForge) Pulls(context.Context, string) ([]githubapp.PullRequest, error) { return nil, nil }
func (fakeForge) ReadPullDiff(context.Context, string, int) (diffmodel.Diff, error) {
	return diffmodel.Diff{}, nil
}
func (fakeForge) ListComments(context.Context, string, int) ([]githubapp.IssueComment, error) {
	return nil, nil
}
func (fakeForge) PostComment(context.Context, string, int, string) error     { return nil }
func (fakeForge) UpdateComment(context.Context, string, int64, string) error { return nil }
func (fakeForge) DeleteComment(context.Context, string, int64) error        { return nil }

func newTestHandler(t *testing.T) *WebhookHandler {
	t.Helper()
	mint := func(ctx context.Context, installationID int64) (githubapp.Client, error) {
		return fakeForge{}, nil
	}
	actor := controller.New(fakeForge{}, mint, false, discardLogger(), nil)
	handle := controller.Run(context.Background(), actor)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, handle.Init(ctx))
	return NewWebhookHandler(testSecret, handle, discardLogger())
}

func TestHandle_RejectsBadSignature(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-GitHub-Event", "pull_request")
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	w := httptest.NewRecorder()
	h.Handle(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandle_RejectsUnparseablePayload(t *testing.T) {
	h := newTestHandler(t)
	w := postWebhook(t, h, "pull_request", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandle_AcceptsPullRequestOpened(t *testing.T) {
	h := newTestHandler(t)
	body := []byte(`{
		"action": "opened",
		"repository": {"full_name": "acme/wiki"},
		"pull_request": {"number": 1, "title": "add page", "user": {"login": "alice"}, "html_url": "https://example/1", "state": "open", "merged": false}
	}`)
	w := postWebhook(t, h, "pull_request", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandle_AcceptsPullRequestClosed(t *testing.T) {
	h := newTestHandler(t)
	body := []byte(`{
		"action": "closed",
		"repository": {"full_name": "acme/wiki"},
		"pull_request": {"number": 1, "title": "add page", "user": {"login": "alice"}, "html_url": "https://example/1", "state": "closed", "merged": true}
	}`)
	w := postWebhook(t, h, "pull_request", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandle_IgnoresUnhandledEventType(t *testing.T) {
	h := newTestHandler(t)
	w := postWebhook(t, h, "ping", []byte(`{"zen": "hello"}`))
	assert.Equal(t, http.StatusOK, w.Code)
}
