// Package ratelimit gates outbound tracker requests with a token bucket.
//
// Acquire never rejects a request; it waits in fixed intervals until a token
// is available. The bucket itself is golang.org/x/time/rate, driven by an
// injectable clock so tests can advance time by hand.
package ratelimit
