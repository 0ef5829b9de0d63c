package tracker

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when the client has no API credentials.
var ErrNotAuthenticated = errors.New("tracker: api user and key required")

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tracker: %s returned status %d", e.URL, e.StatusCode)
}

// BlockedError reports a Cloudflare interstitial in place of the requested page.
type BlockedError struct {
	URL     string
	Message string
}

func (e *BlockedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tracker: cloudflare error page at %s", e.URL)
	}
	return fmt.Sprintf("tracker: cloudflare error page at %s: %s", e.URL, e.Message)
}
