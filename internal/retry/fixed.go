// Package retry provides the fixed-interval retry loop used to
// re-establish the device connection.
//
// The policy is deliberately flat: every failed attempt is followed by
// the same delay, there is no growth and, by default, no attempt limit.
// The loop only stops early when the operation reports a [Permanent]
// error or the context is cancelled.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultInterval is the delay between two connect attempts.
const DefaultInterval = 5 * time.Second

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError wraps an error to signal that retrying will not help.
// Return [Permanent](err) from the operation function to stop retrying
// immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.  The retry loop will return
// the inner error immediately without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ── Fixed ────────────────────────────────────────────────────────────

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Fixed retries an operation with a constant delay between attempts.
type Fixed struct {
	// Interval is the delay after each failed attempt (default 5s).
	Interval time.Duration
	// MaxAttempts is the total number of tries including the first.
	// Zero means retry forever (until the context is cancelled).
	MaxAttempts int
	// Sleep replaces the real timer; tests use it to count waits.
	Sleep SleepFunc
	// OnRetry runs after a failed attempt, before the wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Forever returns the default policy: 5s between attempts, no limit.
func Forever() *Fixed {
	return &Fixed{Interval: DefaultInterval}
}

// Do executes fn until it succeeds, returns a permanent error, the
// attempt budget runs out, or ctx is cancelled.
//
// The attempt parameter passed to fn is 1-based.  A run that fails M
// times before succeeding waits exactly M times.
func (f *Fixed) Do(ctx context.Context, fn func(attempt int) error) error {
	wait := f.Interval
	if wait <= 0 {
		wait = DefaultInterval
	}
	sleep := f.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}

		// Permanent errors are never retried.
		if IsPermanent(err) {
			return errors.Unwrap(err)
		}

		if f.MaxAttempts > 0 && attempt >= f.MaxAttempts {
			return fmt.Errorf("max retries (%d) exceeded: %w", f.MaxAttempts, err)
		}

		if f.OnRetry != nil {
			f.OnRetry(attempt, err, wait)
		}

		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// Sleep blocks for d, returning early with ctx.Err() on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
