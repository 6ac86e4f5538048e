package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Vovarama1992/miniapp-relay/internal/telegram"
)

const DefaultPollTimeout = 10 * time.Second

// Source is the pull side of the Bot API.
type Source interface {
	DeleteWebhook(ctx context.Context) error
	Updates(ctx context.Context, offset int, timeout time.Duration) ([]telegram.Event, error)
}

// Handler consumes one event. It owns its own failures.
type Handler interface {
	Dispatch(ctx context.Context, ev telegram.Event)
}

type Loop struct {
	src         Source
	handler     Handler
	retry       RetryPolicy
	pollTimeout time.Duration

	offset        int
	webhookClear  bool
	failureStreak int
}

func NewLoop(src Source, handler Handler, retry RetryPolicy, pollTimeout time.Duration) *Loop {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	return &Loop{
		src:         src,
		handler:     handler,
		retry:       retry,
		pollTimeout: pollTimeout,
	}
}

// Run polls until ctx is cancelled. Every failure, including a panic in the
// handler, is logged and followed by one backoff interval.
func (l *Loop) Run(ctx context.Context) error {
	log.Printf("[ingest] polling started (timeout=%s backoff=%s)", l.pollTimeout, l.retry.Backoff)

	for {
		if err := ctx.Err(); err != nil {
			log.Println("[ingest] stopped:", err)
			return err
		}

		err := l.cycle(ctx)
		if err == nil {
			l.failureStreak = 0
			continue
		}
		if ctx.Err() != nil {
			continue
		}

		l.failureStreak++
		log.Printf("[ingest] cycle failed (streak=%d): %v", l.failureStreak, err)

		if werr := l.retry.Wait(ctx); werr != nil {
			log.Println("[ingest] stopped:", werr)
			return werr
		}
	}
}

// cycle clears the webhook if that has not succeeded yet, then fetches and
// dispatches one batch.
func (l *Loop) cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if !l.webhookClear {
		if err := l.src.DeleteWebhook(ctx); err != nil {
			return fmt.Errorf("clear webhook: %w", err)
		}
		l.webhookClear = true
		log.Println("[ingest] webhook cleared")
	}

	events, err := l.src.Updates(ctx, l.offset, l.pollTimeout)
	if err != nil {
		return err
	}

	for _, ev := range events {
		// advance first: a handler that panics must not see the event again
		if next := ev.UpdateID + 1; next > l.offset {
			l.offset = next
		}
		l.handler.Dispatch(ctx, ev)
	}
	return nil
}

// Offset is the next update id the loop will ask for.
func (l *Loop) Offset() int {
	return l.offset
}
