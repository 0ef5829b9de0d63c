package tracker

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy controls retries of transient responses. The zero value
// disables retries.
type RetryPolicy struct {
	// MaxAttempts includes the first request.
	MaxAttempts int
	// Backoff is doubled after every attempt.
	Backoff time.Duration
	// MaxWait caps both the exponential backoff and Retry-After.
	MaxWait time.Duration
}

// DefaultRetryPolicy retries up to four times with a 500ms doubling backoff.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 4,
	Backoff:     500 * time.Millisecond,
	MaxWait:     60 * time.Second,
}

// Enabled reports whether more than one attempt is allowed.
func (p RetryPolicy) Enabled() bool {
	return p.MaxAttempts > 1
}

func (p RetryPolicy) retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable:
		return true
	default:
		return false
	}
}

func (p RetryPolicy) backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs >= 0 {
		return p.cap(time.Duration(secs) * time.Second)
	}
	wait := p.Backoff
	for i := 1; i < attempt; i++ {
		wait *= 2
	}
	return p.cap(wait)
}

func (p RetryPolicy) cap(d time.Duration) time.Duration {
	if p.MaxWait > 0 && d > p.MaxWait {
		return p.MaxWait
	}
	return d
}
