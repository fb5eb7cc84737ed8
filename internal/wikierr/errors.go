// Package wikierr defines the sentinel error kinds used to classify failures
// across the controller and its collaborators.
package wikierr

import "errors"

var (
	// ErrConfig marks a fatal, startup-only configuration failure.
	ErrConfig = errors.New("configuration error")

	// ErrUpstream marks a non-retryable forge error (4xx other than 429, or a
	// malformed response body). It is logged and the triggering event is dropped.
	ErrUpstream = errors.New("upstream error")

	// ErrFatalUpstream marks an unrecoverable forge error (HTTP 501) that
	// should abort the process.
	ErrFatalUpstream = errors.New("fatal upstream error")

	// ErrValidation marks a rejected inbound webhook request.
	ErrValidation = errors.New("validation error")

	// ErrInternal marks an internal inconsistency (missing diff, malformed bot
	// comment) that causes the affected PR or comment to be skipped.
	ErrInternal = errors.New("internal error")
)
