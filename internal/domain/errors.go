package domain

import (
	"fmt"
	"time"
)

// The exporter treats every error as fatal. These types only classify the
// failure so the CLI can report it and pick an exit code; none of them are
// retried.

// AuthError indicates the credential was rejected by the API.
type AuthError struct {
	Op     string
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: credential rejected", e.Op)
	}
	return fmt.Sprintf("%s: credential rejected: %s", e.Op, e.Reason)
}

// RateLimitError indicates the API throttled a request. The run aborts;
// RetryAfter is surfaced for the operator, not acted on.
type RateLimitError struct {
	Op         string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited by API (retry after %s)", e.Op, e.RetryAfter)
}

// NetworkError indicates a transport-level failure talking to the API.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// WriteError indicates a local filesystem failure while writing the archive.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
