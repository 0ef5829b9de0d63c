package ratelimit

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"ptpkit/internal/logging"
)

// DefaultWait is the pause between attempts when the bucket is empty.
const DefaultWait = time.Second

// Clock supplies the current time and waits between attempts.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Limiter is a token bucket of a fixed capacity refilled at a constant rate.
// It is safe for concurrent use.
type Limiter struct {
	bucket   *rate.Limiter
	clock    Clock
	wait     time.Duration
	logger   *slog.Logger
	consumed atomic.Int64
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithWaitInterval overrides the pause between attempts.
func WithWaitInterval(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.wait = d
		}
	}
}

// WithLogger attaches a logger for wait diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logging.NewComponentLogger(logger, "ratelimit")
		}
	}
}

// New builds a full bucket holding capacity tokens and refilling at fillRate
// tokens per second. A zero fillRate never refills.
func New(capacity int, fillRate float64, opts ...Option) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	if fillRate < 0 {
		fillRate = 0
	}
	l := &Limiter{
		clock:  systemClock{},
		wait:   DefaultWait,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.bucket = rate.NewLimiter(rate.Limit(fillRate), capacity)
	return l
}

// Acquire blocks until a token is available and debits it. The only error is
// the context's, returned when ctx ends while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		if l.bucket.AllowN(l.clock.Now(), 1) {
			l.consumed.Add(1)
			return nil
		}
		l.logger.Debug("waiting for token bucket to refill", logging.Duration("wait", l.wait))
		if err := l.clock.Sleep(ctx, l.wait); err != nil {
			return err
		}
	}
}

// Consumed reports how many tokens have been handed out.
func (l *Limiter) Consumed() int64 {
	return l.consumed.Load()
}
