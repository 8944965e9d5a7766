package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const budgetSelect = `SELECT b.budget_id, b.user_id, b.tracker_id, b.budget_name, b.budget_type, b.category_id,
	COALESCE(c.category_name, ''), COALESCE(c.icon, ''), COALESCE(c.color, ''),
	b.amount_cents, b.period, b.start_date, b.end_date, b.alert_threshold, b.is_active, b.created_at
	FROM budgets b
	LEFT JOIN expense_categories c ON c.category_id = b.category_id`

func scanBudget(row interface{ Scan(...interface{}) error }) (core.Budget, error) {
	var (
		b          core.Budget
		categoryID sql.NullInt64
		cents      int64
		start      string
		end        sql.NullString
	)
	err := row.Scan(&b.ID, &b.UserID, &b.TrackerID, &b.Name, &b.Type, &categoryID,
		&b.CategoryName, &b.CategoryIcon, &b.CategoryColor,
		&cents, &b.Period, &start, &end, &b.AlertThreshold, &b.IsActive, &b.CreatedAt)
	if err != nil {
		return core.Budget{}, err
	}

	b.CategoryID = int64Ptr(categoryID)
	b.Amount = core.NewMoney(cents)
	if b.StartDate, err = parseStoredDate(start); err != nil {
		return core.Budget{}, err
	}
	if end.Valid && end.String != "" {
		d, err := parseStoredDate(end.String)
		if err != nil {
			return core.Budget{}, err
		}
		b.EndDate = &d
	}
	return b, nil
}

func (q *Queries) CreateBudget(ctx context.Context, scope core.Scope, in core.BudgetInput) (int64, error) {
	var threshold float64
	if in.AlertThreshold != nil {
		threshold = *in.AlertThreshold
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO budgets
		 (user_id, tracker_id, budget_name, budget_type, category_id, amount_cents, period, start_date, end_date, alert_threshold)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scope.UserID, scope.TrackerID, in.Name, in.Type, nullInt64(in.CategoryID.Value),
		in.Amount.Cents, in.Period, in.StartDate.String(), nullDate(in.EndDate.Value), threshold)
	if err != nil {
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) ListBudgets(ctx context.Context, scope core.Scope, isActive *bool) ([]core.Budget, error) {
	query := budgetSelect + ` WHERE b.user_id = ? AND b.tracker_id = ?`
	args := []interface{}{scope.UserID, scope.TrackerID}
	if isActive != nil {
		query += ` AND b.is_active = ?`
		args = append(args, boolInt(*isActive))
	}
	query += ` ORDER BY b.created_at DESC, b.budget_id DESC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := make([]core.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (q *Queries) GetBudget(ctx context.Context, userID, budgetID int64) (core.Budget, error) {
	row := q.db.QueryRowContext(ctx, budgetSelect+` WHERE b.budget_id = ? AND b.user_id = ?`, budgetID, userID)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, notFound(err, "get budget")
	}
	return b, nil
}

func (q *Queries) UpdateBudget(ctx context.Context, userID, budgetID int64, p core.BudgetPatch) (int64, error) {
	var set setList
	if p.Name != nil {
		set.add("budget_name", *p.Name)
	}
	if p.Amount != nil {
		set.add("amount_cents", p.Amount.Cents)
	}
	if p.Period != nil {
		set.add("period", *p.Period)
	}
	if p.StartDate != nil {
		set.add("start_date", p.StartDate.String())
	}
	if p.EndDate.Set {
		set.add("end_date", nullDate(p.EndDate.Value))
	}
	if p.AlertThreshold != nil {
		set.add("alert_threshold", *p.AlertThreshold)
	}
	if p.IsActive != nil {
		set.add("is_active", boolInt(bool(*p.IsActive)))
	}
	n, err := set.exec(ctx, q.db, "budgets", "budget_id = ? AND user_id = ?", budgetID, userID)
	if err != nil {
		return 0, fmt.Errorf("update budget: %w", err)
	}
	return n, nil
}

func (q *Queries) DeleteBudget(ctx context.Context, userID, budgetID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE budget_id = ? AND user_id = ?`, budgetID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete budget: %w", err)
	}
	return res.RowsAffected()
}

// SumExpenses totals the expenses of a tracker inside [From, To], optionally
// restricted to one category.
func (q *Queries) SumExpenses(ctx context.Context, sq core.SpendQuery) (core.Money, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM expense_transactions
		WHERE user_id = ? AND tracker_id = ? AND transaction_date BETWEEN ? AND ?`
	args := []interface{}{sq.UserID, sq.TrackerID, sq.From.String(), sq.To.String()}
	if sq.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *sq.CategoryID)
	}

	var cents int64
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.NewMoney(cents), nil
}
