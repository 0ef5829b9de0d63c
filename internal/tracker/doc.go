// Package tracker is the authenticated HTTP transport for the tracker site.
//
// Every call to Client.Fetch acquires exactly one token from the shared
// ratelimit.Limiter per HTTP attempt, so optional retries are rate limited
// too. Responses are buffered in full and expose JSON and goquery helpers for
// the catalog package.
package tracker
