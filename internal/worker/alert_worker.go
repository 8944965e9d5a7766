package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"golang.org/x/sync/errgroup"
)

// DefaultSweepInterval is how often every active tracker is re-evaluated.
const DefaultSweepInterval = time.Hour

type AlertEvaluator interface {
	Evaluate(ctx context.Context, scope core.Scope) (int, error)
	Sweep(ctx context.Context) (int, error)
}

type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// BudgetCheckConsumer delivers budget check messages until the connection
// drops, and can re-establish it.
type BudgetCheckConsumer interface {
	ConsumeBudgetChecks(ctx context.Context, handler func(context.Context, *amqp.BudgetCheckMessage) error) error
	Reconnect(ctx context.Context) error
}

// AlertWorker keeps budget alerts current. It reacts to budget check messages
// and periodically sweeps all trackers so open-ended budgets follow the calendar.
type AlertWorker struct {
	alerts        AlertEvaluator
	sessions      SessionPurger
	consumer      BudgetCheckConsumer
	sweepInterval time.Duration
}

// NewAlertWorker builds a worker. consumer and sessions may be nil: without a
// consumer only the periodic sweep runs.
func NewAlertWorker(alerts AlertEvaluator, sessions SessionPurger, consumer BudgetCheckConsumer, sweepInterval time.Duration) *AlertWorker {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &AlertWorker{
		alerts:        alerts,
		sessions:      sessions,
		consumer:      consumer,
		sweepInterval: sweepInterval,
	}
}

// HandleBudgetCheck evaluates the tracker named by one message.
func (w *AlertWorker) HandleBudgetCheck(ctx context.Context, msg *amqp.BudgetCheckMessage) error {
	if msg.UserID <= 0 || msg.TrackerID <= 0 {
		slog.WarnContext(ctx, "Ignoring budget check without scope",
			"user_id", msg.UserID,
			"tracker_id", msg.TrackerID)
		return nil
	}

	slog.DebugContext(ctx, "Processing budget check",
		"user_id", msg.UserID,
		"tracker_id", msg.TrackerID,
		"reason", msg.Reason)

	raised, err := w.alerts.Evaluate(ctx, core.Scope{UserID: msg.UserID, TrackerID: msg.TrackerID})
	if err != nil {
		return fmt.Errorf("evaluate budgets: %w", err)
	}

	slog.InfoContext(ctx, "Budget check processed",
		"user_id", msg.UserID,
		"tracker_id", msg.TrackerID,
		"alerts", raised)
	return nil
}

// Run blocks until ctx is cancelled or the consumer fails for good.
func (w *AlertWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.consumer != nil {
		g.Go(func() error { return w.consume(ctx) })
	} else {
		slog.InfoContext(ctx, "AMQP disabled, running periodic sweeps only")
	}
	g.Go(func() error { return w.sweepLoop(ctx) })

	return g.Wait()
}

func (w *AlertWorker) consume(ctx context.Context) error {
	for {
		err := w.consumer.ConsumeBudgetChecks(ctx, w.HandleBudgetCheck)
		if ctx.Err() != nil {
			return nil
		}
		slog.WarnContext(ctx, "Budget check consumption stopped, reconnecting", "error", err)

		if err := w.consumer.Reconnect(ctx); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reconnect consumer: %w", err)
		}
	}
}

func (w *AlertWorker) sweepLoop(ctx context.Context) error {
	w.sweep(ctx)

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep re-evaluates every tracker and drops expired sessions.
func (w *AlertWorker) sweep(ctx context.Context) {
	start := time.Now()
	raised, err := w.alerts.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.ErrorContext(ctx, "Budget sweep failed", "error", err)
		}
		return
	}

	if w.sessions != nil {
		purged, err := w.sessions.PurgeExpired(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Session purge failed", "error", err)
		} else if purged > 0 {
			slog.InfoContext(ctx, "Expired sessions purged", "count", purged)
		}
	}

	slog.InfoContext(ctx, "Budget sweep completed",
		"alerts", raised,
		"duration", time.Since(start))
}
