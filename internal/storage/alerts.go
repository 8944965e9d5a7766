package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

func (q *Queries) UpsertBudgetAlert(ctx context.Context, a core.BudgetAlert) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO budget_alerts (budget_id, user_id, tracker_id, spent_cents, percentage, alerted_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(budget_id) DO UPDATE SET
		     spent_cents = excluded.spent_cents,
		     percentage  = excluded.percentage,
		     alerted_at  = excluded.alerted_at`,
		a.BudgetID, a.UserID, a.TrackerID, a.Spent.Cents, a.Percentage, a.AlertedAt)
	if err != nil {
		return fmt.Errorf("upsert budget alert: %w", err)
	}
	return nil
}

func (q *Queries) DeleteBudgetAlert(ctx context.Context, budgetID int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM budget_alerts WHERE budget_id = ?`, budgetID); err != nil {
		return fmt.Errorf("delete budget alert: %w", err)
	}
	return nil
}

func (q *Queries) ListBudgetAlerts(ctx context.Context, scope core.Scope) ([]core.BudgetAlert, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT a.budget_id, a.user_id, a.tracker_id, b.budget_name, a.spent_cents, a.percentage,
		        b.alert_threshold, a.alerted_at
		 FROM budget_alerts a
		 JOIN budgets b ON b.budget_id = a.budget_id
		 WHERE a.user_id = ? AND a.tracker_id = ?
		 ORDER BY a.percentage DESC, a.budget_id`,
		scope.UserID, scope.TrackerID)
	if err != nil {
		return nil, fmt.Errorf("list budget alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]core.BudgetAlert, 0)
	for rows.Next() {
		var (
			a     core.BudgetAlert
			cents int64
		)
		if err := rows.Scan(&a.BudgetID, &a.UserID, &a.TrackerID, &a.BudgetName, &cents,
			&a.Percentage, &a.AlertThreshold, &a.AlertedAt); err != nil {
			return nil, fmt.Errorf("scan budget alert: %w", err)
		}
		a.Spent = core.NewMoney(cents)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
