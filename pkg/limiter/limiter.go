// Package limiter bounds concurrent fan-out to the upstream model
// provider. One Limiter is shared process-wide and injected into every
// component that calls the model.
package limiter

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter is a counting permit pool with an optional request rate gate
// layered underneath. Acquire and Release bracket each outbound model
// call.
type Limiter struct {
	sem  *semaphore.Weighted
	rate *rate.Limiter
}

// New returns a Limiter holding capacity permits. rps <= 0 disables the
// rate gate.
func New(capacity int64, rps float64) *Limiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Limiter{
		sem:  semaphore.NewWeighted(capacity),
		rate: rate.NewLimiter(limit, 1),
	}
}

// Unlimited returns a Limiter that never blocks; tests substitute it for
// the production pool.
func Unlimited() *Limiter {
	return New(int64(1) << 30, 0)
}

// Acquire takes one permit, waiting for the rate gate as well. It returns
// the context error if the caller gives up while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := l.rate.Wait(ctx); err != nil {
		l.sem.Release(1)
		return err
	}
	return nil
}

// Release returns one permit. Every successful Acquire must be paired with
// exactly one Release.
func (l *Limiter) Release() {
	l.sem.Release(1)
}
