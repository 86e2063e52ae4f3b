package retry

import (
	"context"
	"time"
)

// Fetcher retries a transient-failure-prone operation with exponential
// backoff. It is meant for idempotent reads only; mutations must not be
// wrapped in it.
type Fetcher struct {
	attempts  int
	baseDelay time.Duration
}

func NewFetcher(attempts int, baseDelay time.Duration) *Fetcher {
	if attempts < 1 {
		attempts = 1
	}
	return &Fetcher{attempts: attempts, baseDelay: baseDelay}
}

// Do runs op up to the attempt budget, waiting baseDelay*2^attempt between
// attempts. The final failure propagates unchanged. A successful call is never
// retried. Context cancellation aborts the backoff wait.
func (f *Fetcher) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < f.attempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if attempt == f.attempts-1 {
			break
		}
		delay := f.baseDelay * (1 << attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
