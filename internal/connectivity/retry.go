// Package connectivity provides retry middleware for flaky outbound HTTP:
// linear backoff, and a fail-fast rule for 4xx responses since those mean
// "ask again later won't help".
package connectivity

import (
	"context"
	"log/slog"
	"time"

	"github.com/depfused/depfused/internal/errs"
)

// Attempt runs fn up to maxRetries+1 times, waiting baseBackoff*attempt
// between tries (linear: 500ms, 1s, 1.5s, ...).
// fn reports the HTTP status it observed (0 if no response was received) so
// Attempt can fail fast on 4xx instead of burning retries on a request that
// will never succeed. It respects context cancellation between attempts and
// stops immediately if fn returns an *errs.CircuitOpen.
func Attempt(ctx context.Context, maxRetries int, baseBackoff time.Duration, logger *slog.Logger, fn func(attempt int) (status int, err error)) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		status, err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return lastErr
		}
		if _, ok := err.(*errs.CircuitOpen); ok {
			return err
		}
		if status >= 400 && status < 500 {
			// Fail fast: the request itself is wrong, retrying changes nothing.
			return lastErr
		}

		if attempt < maxRetries {
			wait := baseBackoff * time.Duration(attempt+1)
			if logger != nil {
				logger.WarnContext(ctx, "retrying call",
					"attempt", attempt+1,
					"max_retries", maxRetries,
					"backoff_ms", wait.Milliseconds(),
					"status", status,
					"error", err)
			}
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(wait):
			}
		}
	}
	return lastErr
}
