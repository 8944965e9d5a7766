package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

func (q *Queries) ExpenseTotalsByCategory(ctx context.Context, scope core.Scope, from, to core.Date) ([]core.CategoryAggregate, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT e.category_id, COALESCE(c.category_name, ?), COALESCE(c.icon, ''), COALESCE(c.color, ''),
		        COUNT(*), SUM(e.amount_cents) AS total
		 FROM expense_transactions e
		 LEFT JOIN expense_categories c ON c.category_id = e.category_id
		 WHERE e.user_id = ? AND e.tracker_id = ? AND e.transaction_date BETWEEN ? AND ?
		 GROUP BY e.category_id
		 ORDER BY total DESC, e.category_id`,
		core.UncategorizedName, scope.UserID, scope.TrackerID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("expense totals by category: %w", err)
	}
	defer rows.Close()

	aggregates := make([]core.CategoryAggregate, 0)
	for rows.Next() {
		var (
			a          core.CategoryAggregate
			categoryID sql.NullInt64
			cents      int64
		)
		if err := rows.Scan(&categoryID, &a.Name, &a.Icon, &a.Color, &a.Count, &cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		a.CategoryID = int64Ptr(categoryID)
		a.Total = core.NewMoney(cents)
		aggregates = append(aggregates, a)
	}
	return aggregates, rows.Err()
}

func (q *Queries) IncomeTotalsBySource(ctx context.Context, scope core.Scope, from, to core.Date) ([]core.SourceAggregate, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT i.source_id, COALESCE(s.source_name, ?), COALESCE(s.source_type, ''),
		        COUNT(*), SUM(i.amount_cents) AS total
		 FROM income_transactions i
		 LEFT JOIN income_sources s ON s.source_id = i.source_id
		 WHERE i.user_id = ? AND i.tracker_id = ? AND i.transaction_date BETWEEN ? AND ?
		 GROUP BY i.source_id
		 ORDER BY total DESC, i.source_id`,
		core.UncategorizedName, scope.UserID, scope.TrackerID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("income totals by source: %w", err)
	}
	defer rows.Close()

	aggregates := make([]core.SourceAggregate, 0)
	for rows.Next() {
		var (
			a        core.SourceAggregate
			sourceID sql.NullInt64
			cents    int64
		)
		if err := rows.Scan(&sourceID, &a.Name, &a.Type, &a.Count, &cents); err != nil {
			return nil, fmt.Errorf("scan source total: %w", err)
		}
		a.SourceID = int64Ptr(sourceID)
		a.Total = core.NewMoney(cents)
		aggregates = append(aggregates, a)
	}
	return aggregates, rows.Err()
}

func (q *Queries) SumIncome(ctx context.Context, scope core.Scope, from, to core.Date) (core.Money, error) {
	var cents int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM income_transactions
		 WHERE user_id = ? AND tracker_id = ? AND transaction_date BETWEEN ? AND ?`,
		scope.UserID, scope.TrackerID, from.String(), to.String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum income: %w", err)
	}
	return core.NewMoney(cents), nil
}

func (q *Queries) MonthlyExpenseTotals(ctx context.Context, scope core.Scope, from, to core.Date) (map[string]core.Money, error) {
	return q.monthlyTotals(ctx, "expense_transactions", scope, from, to)
}

func (q *Queries) MonthlyIncomeTotals(ctx context.Context, scope core.Scope, from, to core.Date) (map[string]core.Money, error) {
	return q.monthlyTotals(ctx, "income_transactions", scope, from, to)
}

func (q *Queries) monthlyTotals(ctx context.Context, table string, scope core.Scope, from, to core.Date) (map[string]core.Money, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', transaction_date) AS month, SUM(amount_cents)
		 FROM `+table+`
		 WHERE user_id = ? AND tracker_id = ? AND transaction_date BETWEEN ? AND ?
		 GROUP BY month`,
		scope.UserID, scope.TrackerID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("monthly totals of %s: %w", table, err)
	}
	defer rows.Close()

	totals := make(map[string]core.Money)
	for rows.Next() {
		var (
			month string
			cents int64
		)
		if err := rows.Scan(&month, &cents); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		totals[month] = core.NewMoney(cents)
	}
	return totals, rows.Err()
}
