// Package mirror copies committed meetings into the admin's external calendar.
//
// Meetings are written together with an outbox row; the worker attempts the
// calendar call once right after commit and a periodic sweep retries whatever
// is still pending. Delivery is at-least-once. A mirror failure never touches
// the meeting itself.
package mirror

import (
	"context"
	"fmt"
	"time"

	"callbooker/internal/calendar"
	"callbooker/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Task is one pending calendar event for a committed meeting.
type Task struct {
	MeetingID     int64
	Event         calendar.Event
	Attempts      int
	NextAttemptAt time.Time
}

// Store is the outbox. PendingMirrors claims due tasks so concurrent sweepers
// do not pick the same row until the claim lapses.
type Store interface {
	PendingMirrors(ctx context.Context, now time.Time, limit int) ([]Task, error)
	MarkMirrored(ctx context.Context, meetingID int64, externalEventID string, at time.Time) error
	MarkMirrorFailed(ctx context.Context, meetingID int64, attempts int, next time.Time, lastErr string, giveUp bool) error
}

type Auditor interface {
	LogMirrorFailed(ctx context.Context, meetingID int64, attempts int, lastErr string) error
}

type Options struct {
	Timeout     time.Duration
	MaxAttempts int
	BatchSize   int
}

func (o Options) withDefaults() Options {
	out := o
	if out.Timeout <= 0 {
		out.Timeout = 10 * time.Second
	}
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 10
	}
	if out.BatchSize <= 0 {
		out.BatchSize = 50
	}
	return out
}

type Worker struct {
	store   Store
	gateway calendar.Gateway
	audit   Auditor
	opts    Options
	clock   func() time.Time
}

func NewWorker(store Store, gateway calendar.Gateway, audit Auditor, opts Options) *Worker {
	return &Worker{
		store:   store,
		gateway: gateway,
		audit:   audit,
		opts:    opts.withDefaults(),
		clock:   time.Now,
	}
}

const (
	baseBackoff = 30 * time.Second
	maxBackoff  = time.Hour
)

// Backoff is the wait before retry number attempts+1.
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := baseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// Dispatch makes one attempt for t and records the outcome in the outbox.
// It never returns an error; the caller has already committed the meeting.
func (w *Worker) Dispatch(ctx context.Context, t Task) {
	log := logger.From(ctx).With("meeting_id", t.MeetingID)

	callCtx, cancel := context.WithTimeout(ctx, w.opts.Timeout)
	externalID, err := w.gateway.CreateEvent(callCtx, t.Event)
	cancel()

	now := w.clock()
	if err == nil {
		if err := w.store.MarkMirrored(ctx, t.MeetingID, externalID, now); err != nil {
			// The event exists upstream; a later sweep may create a duplicate.
			log.Error("mirror: record success failed", "external_event_id", externalID, "err", err)
			return
		}
		log.Info("mirror: calendar event created", "external_event_id", externalID)
		return
	}

	attempts := t.Attempts + 1
	giveUp := attempts >= w.opts.MaxAttempts
	next := now.Add(Backoff(attempts))
	if recErr := w.store.MarkMirrorFailed(ctx, t.MeetingID, attempts, next, err.Error(), giveUp); recErr != nil {
		log.Error("mirror: record failure failed", "err", recErr)
	}

	if !giveUp {
		log.Warn("mirror: calendar event failed; will retry", "attempts", attempts, "next_attempt_at", next, "err", err)
		return
	}
	log.Error("mirror: giving up on calendar event", "attempts", attempts, "err", err)
	if w.audit != nil {
		if aErr := w.audit.LogMirrorFailed(ctx, t.MeetingID, attempts, err.Error()); aErr != nil {
			log.Warn("mirror: audit append failed", "err", aErr)
		}
	}
}

// Sweep retries every due task once and returns how many it picked up.
func (w *Worker) Sweep(ctx context.Context) (int, error) {
	tasks, err := w.store.PendingMirrors(ctx, w.clock(), w.opts.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("load pending mirrors: %w", err)
	}
	for _, t := range tasks {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		w.Dispatch(ctx, t)
	}
	return len(tasks), nil
}

// Schedule registers the sweep on c. Runs never overlap.
func (w *Worker) Schedule(c *cron.Cron, every time.Duration, log cron.Logger) (cron.EntryID, error) {
	job := cron.NewChain(cron.SkipIfStillRunning(log)).Then(cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), every+w.opts.Timeout)
		defer cancel()
		n, err := w.Sweep(ctx)
		if err != nil {
			logger.From(ctx).Error("mirror sweep failed", "err", err)
			return
		}
		if n > 0 {
			logger.From(ctx).Info("mirror sweep done", "tasks", n)
		}
	}))
	return c.AddJob(fmt.Sprintf("@every %s", every), job)
}
