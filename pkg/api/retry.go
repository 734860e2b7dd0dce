package api

import (
	"context"
	"time"
)

// RetryPolicy retries quota errors a bounded number of times with a fixed
// delay. There is no backoff growth.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy makes 3 attempts, 5 seconds apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       5 * time.Second,
	}
}

// Execute runs fn until it succeeds, returns a non-quota error, or the
// attempt budget is spent. It returns the number of attempts made along with
// the last error.
func (p RetryPolicy) Execute(ctx context.Context, fn func(attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		err := fn(attempt)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if !IsQuotaError(err) || attempt == maxAttempts {
			return attempt, err
		}

		if err := sleepContext(ctx, p.Delay); err != nil {
			return attempt, err
		}
	}

	return maxAttempts, lastErr
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
