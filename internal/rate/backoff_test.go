package rate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyinbox/tidyinbox/internal/rate"
)

var errRetryable = errors.New("flaky")

func retryAll(error) bool { return true }

func TestBackoffSucceedsAfterRetries(t *testing.T) {
	calls := 0
	b := rate.Backoff{Attempts: 3}
	err := b.Do(context.Background(), retryAll, func(context.Context) error {
		calls++
		if calls < 3 {
			return errRetryable
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBackoffExhaustsAttempts(t *testing.T) {
	calls := 0
	b := rate.Backoff{Attempts: 2}
	err := b.Do(context.Background(), retryAll, func(context.Context) error {
		calls++
		return errRetryable
	})
	require.ErrorIs(t, err, errRetryable)
	assert.Equal(t, 2, calls)
}

func TestBackoffDoesNotRetryRejectedErrors(t *testing.T) {
	calls := 0
	b := rate.Backoff{Attempts: 5}
	err := b.Do(context.Background(), func(error) bool { return false }, func(context.Context) error {
		calls++
		return errRetryable
	})
	require.ErrorIs(t, err, errRetryable)
	assert.Equal(t, 1, calls)
}

func TestBackoffHonorsContextDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := rate.Backoff{Attempts: 3, Base: time.Minute}
	err := b.Do(ctx, retryAll, func(context.Context) error { return errRetryable })
	require.ErrorIs(t, err, context.Canceled)
}

func TestTokenBucketFirstTokenImmediate(t *testing.T) {
	tb := rate.NewTokenBucket(1, 1)
	defer tb.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, tb.Wait(ctx))
}

func TestTokenBucketWaitCancels(t *testing.T) {
	tb := rate.NewTokenBucket(1, 1)
	defer tb.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, tb.Wait(ctx)) // consume the primed token
	cancel()
	require.Error(t, tb.Wait(ctx))
}
