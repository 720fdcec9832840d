// Package retry provides a small retry combinator driven by an explicit
// policy value, so backoff behavior is testable apart from the code using it.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy describes how many times to attempt an operation and how long to
// wait between attempts. No wait happens after the final attempt.
type Policy struct {
	MaxAttempts int
	// Backoff returns the wait before attempt+1; attempt is 1-based.
	Backoff func(attempt int) time.Duration
}

// ExpBackoff returns base·2^(attempt-1) capped at max.
func ExpBackoff(base, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := base << (attempt - 1)
		if d > max || d <= 0 {
			return max
		}
		return d
	}
}

// Do runs fn up to p.MaxAttempts times, sleeping per p.Backoff between
// attempts. It returns nil on the first success, the last observed error on
// exhaustion, and ctx.Err() if the context is cancelled during a wait.
func Do(ctx context.Context, p Policy, logger *slog.Logger, op string, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("retry.recovered", "op", op, "attempt", attempt)
			}
			return nil
		}
		lastErr = err
		logger.Warn("retry.attempt_failed", "op", op, "attempt", attempt, "max_attempts", p.MaxAttempts, "error", err)

		if attempt == p.MaxAttempts {
			break
		}
		wait := time.Duration(0)
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%s failed after %d attempts", op, p.MaxAttempts)
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
