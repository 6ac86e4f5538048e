package ingest

import (
	"context"
	"time"
)

const DefaultBackoff = 5 * time.Second

// RetryPolicy waits a fixed interval between attempts and never gives up on
// its own; only context cancellation stops it.
type RetryPolicy struct {
	Backoff time.Duration
	Sleep   func(ctx context.Context, d time.Duration) error
}

func NewRetryPolicy(backoff time.Duration) RetryPolicy {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return RetryPolicy{Backoff: backoff, Sleep: sleepContext}
}

func (p RetryPolicy) Wait(ctx context.Context) error {
	d := p.Backoff
	if d <= 0 {
		d = DefaultBackoff
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
