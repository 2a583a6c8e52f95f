// Package rate gates outbound provider calls: a token-bucket limiter keeps
// steady-state traffic under the provider quota, and Backoff retries the
// retryable failure kinds with exponential delays.
package rate

import (
	"context"
	"fmt"
	"time"
)

// Limiter gates outbound API calls so the provider quota is respected.
type Limiter interface {
	Wait(ctx context.Context) error
}

// TokenBucket releases rps tokens per second with a small burst allowance.
type TokenBucket struct {
	ticker   *time.Ticker
	tokens   chan struct{}
	quit     chan struct{}
	stopDone chan struct{}
}

// NewTokenBucket returns a limiter releasing rps tokens per second. burst
// bounds how many tokens may pile up while the caller is idle; values below
// 1 are clamped.
func NewTokenBucket(rps, burst int) *TokenBucket {
	if rps <= 0 {
		rps = 1
	}
	if burst < 1 {
		burst = 1
	}
	tb := &TokenBucket{
		ticker:   time.NewTicker(time.Second / time.Duration(rps)),
		tokens:   make(chan struct{}, burst),
		quit:     make(chan struct{}),
		stopDone: make(chan struct{}),
	}
	// the first call proceeds immediately
	tb.tokens <- struct{}{}
	go tb.fill()
	return tb
}

func (t *TokenBucket) fill() {
	defer close(t.stopDone)
	for {
		select {
		case <-t.quit:
			return
		case <-t.ticker.C:
			select {
			case t.tokens <- struct{}{}:
			default: // bucket full, drop the token
			}
		}
	}
}

// Wait blocks until a token is available or the context ends.
func (t *TokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate wait: %w", ctx.Err())
	case <-t.tokens:
		return nil
	}
}

// Stop releases the limiter's resources. Waiters already blocked keep
// waiting on their contexts.
func (t *TokenBucket) Stop() {
	t.ticker.Stop()
	close(t.quit)
	<-t.stopDone
}

var _ Limiter = (*TokenBucket)(nil)

// Unlimited is a Limiter that never waits. Useful in tests.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
