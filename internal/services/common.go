package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

// BudgetCheckPublisher announces that a tracker's budgets should be re-evaluated.
type BudgetCheckPublisher interface {
	PublishBudgetCheck(ctx context.Context, userID, trackerID int64, reason string) error
}

// Clock returns the current instant. Services use it for "today".
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

func today(now Clock) core.Date {
	return core.DateOf(now())
}

// storageErr classifies a storage failure. Errors that already carry a kind
// pass through unchanged.
func storageErr(op string, err error) error {
	var e *core.Error
	if errors.As(err, &e) {
		return err
	}
	return core.StorageError(op, err)
}

// lookupErr reports a missing row as a NotFound for entity.
func lookupErr(entity, op string, err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return core.NotFoundError(entity)
	}
	return storageErr(op, err)
}

// affected turns a zero-row mutation into a NotFound for entity.
func affected(entity string, n int64) error {
	if n == 0 {
		return core.NotFoundError(entity)
	}
	return nil
}

// dateRange resolves optional bounds, defaulting to the current calendar month.
func dateRange(now Clock, start, end *core.Date) (core.Date, core.Date, error) {
	t := today(now)
	from, to := t.FirstOfMonth(), t.LastOfMonth()
	if start != nil && !start.IsZero() {
		from = *start
	}
	if end != nil && !end.IsZero() {
		to = *end
	}
	if to.Before(from) {
		return core.Date{}, core.Date{}, core.ValidationError("End date must not be before start date")
	}
	return from, to, nil
}

func publishBudgetCheck(ctx context.Context, events BudgetCheckPublisher, scope core.Scope, reason string) {
	if events == nil {
		slog.DebugContext(ctx, "Budget check publisher not configured, skipping", "reason", reason)
		return
	}
	if err := events.PublishBudgetCheck(ctx, scope.UserID, scope.TrackerID, reason); err != nil {
		// the write already succeeded; alerts catch up on the next sweep
		slog.ErrorContext(ctx, "Failed to publish budget check",
			"user_id", scope.UserID,
			"tracker_id", scope.TrackerID,
			"reason", reason,
			"error", err)
	}
}
