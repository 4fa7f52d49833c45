package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy for the pipeline. The poller and workers branch on
// these with errors.Is / errors.As instead of swallowing failures
// uniformly; none of them is fatal to the process.
var (
	// ErrAuthExpired means the upstream panel rejected our session.
	// Retryable after re-authentication.
	ErrAuthExpired = errors.New("upstream session expired")

	// ErrUpstreamUnavailable covers network errors, non-2xx responses
	// and malformed bodies from the source poll. Retryable next cycle.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedRecord marks an upstream row missing its number or
	// text. Such rows are counted and dropped, never fatal.
	ErrMalformedRecord = errors.New("malformed upstream record")

	// ErrSendFailed is a permanent delivery failure (blocked chat, bad
	// destination). Items failing this way are dropped, never retried.
	ErrSendFailed = errors.New("send failed")
)

// RateLimitedError reports that the messaging API throttled us and for
// how long. The owning worker sleeps and re-enqueues the item.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// IsRateLimited extracts a RateLimitedError from err, if present.
func IsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
