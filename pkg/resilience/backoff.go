package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backoff retries a call up to Attempts times, doubling the delay from
// Initial and capping it at Max.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	// Retryable, when set, ends the loop on errors it rejects.
	Retryable func(error) bool
}

func (b Backoff) delay(attempt int) time.Duration {
	d := b.Initial << (attempt - 1)
	if d <= 0 || (b.Max > 0 && d > b.Max) {
		return b.Max
	}
	return d
}

// Do calls fn until it succeeds, the attempts run out, or ctx ends. The
// last error is returned wrapped.
func (b Backoff) Do(ctx context.Context, name string, fn func() error) error {
	attempts := max(1, b.Attempts)
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				slog.Debug("call succeeded after retry", "operation", name, "attempt", attempt)
			}
			return nil
		}
		if attempt == attempts || (b.Retryable != nil && !b.Retryable(err)) {
			break
		}
		wait := b.delay(attempt)
		slog.Debug("call failed, retrying", "operation", name, "attempt", attempt, "error", err, "wait", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("%s: retry aborted: %w", name, ctx.Err())
		}
	}
	return fmt.Errorf("%s failed after retries: %w", name, err)
}
