package githubapp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/wikiconflictbot/internal/wikierr"
)

const (
	retryInitialDelay = time.Second
	retryMultiplier   = 1.2
	retryMaxDelay     = 30 * time.Second
	retryMaxAttempts  = 10
)

var retryableStatus = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
}

const fatalStatus = 501

// withRetry runs op with bounded exponential backoff on transient forge
// errors: a retryable status, or a failure with no HTTP response at all. A
// fatal status aborts immediately with ErrFatalUpstream; any other status
// (such as a 4xx other than 429) is wrapped as ErrUpstream without retrying.
func withRetry(ctx context.Context, op func() (*github.Response, error)) error {
	delay := retryInitialDelay

	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		resp, err := op()
		if err == nil {
			return nil
		}

		status := statusCode(resp)
		switch {
		case status == fatalStatus:
			return errors.Join(wikierr.ErrFatalUpstream, err)
		case status != 0 && !isRetryable(status):
			return errors.Join(wikierr.ErrUpstream, err)
		case attempt == retryMaxAttempts:
			return errors.Join(wikierr.ErrUpstream, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * retryMultiplier)
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}
	return errors.Join(wikierr.ErrUpstream, errors.New("retry attempts exhausted"))
}

func isRetryable(status int) bool {
	_, ok := retryableStatus[status]
	return ok
}

func statusCode(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
