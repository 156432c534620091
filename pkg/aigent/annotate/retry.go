package annotate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Retrying repeats calls to an Annotator that fail with ErrTransient,
// backing off exponentially between attempts. Any other error is returned
// at once.
type Retrying struct {
	next     Annotator
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

// NewRetrying wraps next. attempts is the total number of calls made
// (at least one); backoff is the delay before the first retry and doubles
// after each one.
func NewRetrying(next Annotator, attempts int, backoff time.Duration, logger *slog.Logger) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrying{next: next, attempts: attempts, backoff: backoff, logger: logger}
}

// Annotate implements Annotator.
func (r *Retrying) Annotate(ctx context.Context, text string) (*Annotation, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			delay := r.backoff << (attempt - 1)
			r.logger.Debug("retrying annotation", "attempt", attempt+1, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		ann, err := r.next.Annotate(ctx, text)
		if err == nil {
			return ann, nil
		}
		if !errors.Is(err, ErrTransient) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("annotate: failed after %d attempts: %w", r.attempts, lastErr)
}
