package services

import (
	"context"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const alertTimeLayout = "2006-01-02 15:04:05"

// AlertService keeps budget_alerts in step with current spending.
type AlertService struct {
	store   ports.Store
	budgets *BudgetService
	now     Clock
}

func NewAlertService(store ports.Store, budgets *BudgetService, now Clock) *AlertService {
	if now == nil {
		now = systemClock
	}
	return &AlertService{store: store, budgets: budgets, now: now}
}

// Evaluate raises an alert for every active budget of the scope whose spending
// reached its threshold and clears the rest. It returns the number raised.
func (s *AlertService) Evaluate(ctx context.Context, scope core.Scope) (int, error) {
	statuses, err := s.budgets.GetUserBudgets(ctx, scope, nil)
	if err != nil {
		return 0, err
	}

	raised := 0
	for _, st := range statuses {
		if st.IsActive && st.Amount.IsPositive() && st.Spent.IsPositive() && st.Percentage >= st.AlertThreshold {
			err := s.store.UpsertBudgetAlert(ctx, core.BudgetAlert{
				BudgetID:       st.ID,
				UserID:         st.UserID,
				TrackerID:      st.TrackerID,
				BudgetName:     st.Name,
				Spent:          st.Spent,
				Percentage:     st.Percentage,
				AlertThreshold: st.AlertThreshold,
				AlertedAt:      s.now().UTC().Format(alertTimeLayout),
			})
			if err != nil {
				return raised, storageErr("upsert budget alert", err)
			}
			raised++
			continue
		}
		if err := s.store.DeleteBudgetAlert(ctx, st.ID); err != nil {
			return raised, storageErr("clear budget alert", err)
		}
	}

	if raised > 0 {
		slog.InfoContext(ctx, "Budget alerts raised",
			"user_id", scope.UserID,
			"tracker_id", scope.TrackerID,
			"count", raised)
	}
	return raised, nil
}

func (s *AlertService) List(ctx context.Context, scope core.Scope) ([]core.BudgetAlert, error) {
	alerts, err := s.store.ListBudgetAlerts(ctx, scope)
	if err != nil {
		return nil, storageErr("list budget alerts", err)
	}
	return alerts, nil
}

// Sweep evaluates every active tracker. Failures are logged per tracker and
// do not stop the sweep.
func (s *AlertService) Sweep(ctx context.Context) (int, error) {
	scopes, err := s.store.ListActiveTrackerScopes(ctx)
	if err != nil {
		return 0, storageErr("list active trackers", err)
	}

	total := 0
	for _, scope := range scopes {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		n, err := s.Evaluate(ctx, scope)
		if err != nil {
			slog.ErrorContext(ctx, "Budget evaluation failed",
				"user_id", scope.UserID,
				"tracker_id", scope.TrackerID,
				"error", err)
			continue
		}
		total += n
	}
	return total, nil
}
