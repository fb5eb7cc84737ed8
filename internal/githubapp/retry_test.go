package githubapp

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respWithStatus(status int) *github.Response {
	return &github.Response{Response: &http.Response{StatusCode: status}}
}

func TestWithRetry_SucceedsAfterTransientErrors(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() (*github.Response, error) {
		attempts++
		if attempts < 3 {
			return respWithStatus(http.StatusServiceUnavailable), errors.New("unavailable")
		}
		return respWithStatus(http.StatusOK), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_NonRetryable4xxFailsImmediately(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() (*github.Response, error) {
		attempts++
		return respWithStatus(http.StatusNotFound), errors.New("not found")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_FatalStatusAbortsImmediately(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() (*github.Response, error) {
		attempts++
		return respWithStatus(fatalStatus), errors.New("not implemented")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_CancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, func() (*github.Response, error) {
		return respWithStatus(http.StatusTooManyRequests), errors.New("rate limited")
	})
	require.Error(t, err)
}
