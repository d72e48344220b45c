package resilience

import (
	"context"
	"time"
)

// Retry calls fn until it succeeds, retryable reports false, the attempts
// run out or ctx is done. Backoff grows linearly with the attempt number.
func Retry(ctx context.Context, policy RetryPolicy, retryable func(error) bool, fn func(ctx context.Context, attempt int) error) error {
	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if attempt == maxRetries || retryable == nil || !retryable(err) {
			return err
		}
		if waitErr := sleep(ctx, time.Duration(attempt+1)*policy.Backoff); waitErr != nil {
			return err
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
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
