package rate

import (
	"context"
	"time"
)

// Backoff retries an operation with exponential delays. The zero value
// performs a single attempt with no waiting.
type Backoff struct {
	Attempts int           // total attempts, including the first
	Base     time.Duration // delay before the second attempt
	Max      time.Duration // ceiling for the doubled delay
}

// DefaultBackoff matches the provider guidance of a handful of attempts with
// short exponential waits.
func DefaultBackoff() Backoff {
	return Backoff{Attempts: 3, Base: time.Second, Max: 10 * time.Second}
}

// Do runs fn, retrying while shouldRetry accepts the error and attempts
// remain. The context is honored between attempts; its error wins when it
// ends during a wait.
func (b Backoff) Do(ctx context.Context, shouldRetry func(error) bool, fn func(context.Context) error) error {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := b.Base
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if shouldRetry == nil || !shouldRetry(err) || i == attempts-1 {
			return err
		}
		if waitErr := sleep(ctx, delay); waitErr != nil {
			return waitErr
		}
		delay *= 2
		if b.Max > 0 && delay > b.Max {
			delay = b.Max
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
