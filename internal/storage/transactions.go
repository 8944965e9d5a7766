package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const expenseSelect = `SELECT e.transaction_id, e.user_id, e.tracker_id, e.category_id,
	COALESCE(c.category_name, ''), COALESCE(c.icon, ''), COALESCE(c.color, ''),
	e.amount_cents, e.transaction_date, e.description, e.notes, e.payment_method, e.is_recurring, e.created_at
	FROM expense_transactions e
	LEFT JOIN expense_categories c ON c.category_id = e.category_id`

const incomeSelect = `SELECT i.transaction_id, i.user_id, i.tracker_id, i.source_id,
	COALESCE(s.source_name, ''), COALESCE(s.source_type, ''),
	i.amount_cents, i.transaction_date, i.description, i.notes, i.created_at
	FROM income_transactions i
	LEFT JOIN income_sources s ON s.source_id = i.source_id`

func scanExpense(row interface{ Scan(...interface{}) error }) (core.Expense, error) {
	var (
		e          core.Expense
		categoryID sql.NullInt64
		cents      int64
		date       string
	)
	err := row.Scan(&e.ID, &e.UserID, &e.TrackerID, &categoryID,
		&e.CategoryName, &e.CategoryIcon, &e.CategoryColor,
		&cents, &date, &e.Description, &e.Notes, &e.PaymentMethod, &e.IsRecurring, &e.CreatedAt)
	if err != nil {
		return core.Expense{}, err
	}
	e.CategoryID = int64Ptr(categoryID)
	e.Amount = core.NewMoney(cents)
	if e.TransactionDate, err = parseStoredDate(date); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func scanIncome(row interface{ Scan(...interface{}) error }) (core.Income, error) {
	var (
		i        core.Income
		sourceID sql.NullInt64
		cents    int64
		date     string
	)
	err := row.Scan(&i.ID, &i.UserID, &i.TrackerID, &sourceID,
		&i.SourceName, &i.SourceType,
		&cents, &date, &i.Description, &i.Notes, &i.CreatedAt)
	if err != nil {
		return core.Income{}, err
	}
	i.SourceID = int64Ptr(sourceID)
	i.Amount = core.NewMoney(cents)
	if i.TransactionDate, err = parseStoredDate(date); err != nil {
		return core.Income{}, err
	}
	return i, nil
}

// ledgerWhere appends the common filter clauses for alias a.
func ledgerWhere(a string, scope core.Scope, f core.LedgerFilter, groupCol string, groupID *int64) (string, []interface{}) {
	where := ` WHERE ` + a + `.user_id = ? AND ` + a + `.tracker_id = ?`
	args := []interface{}{scope.UserID, scope.TrackerID}
	if f.StartDate != nil {
		where += ` AND ` + a + `.transaction_date >= ?`
		args = append(args, f.StartDate.String())
	}
	if f.EndDate != nil {
		where += ` AND ` + a + `.transaction_date <= ?`
		args = append(args, f.EndDate.String())
	}
	if groupID != nil {
		where += ` AND ` + a + `.` + groupCol + ` = ?`
		args = append(args, *groupID)
	}
	where += ` ORDER BY ` + a + `.transaction_date DESC, ` + a + `.transaction_id DESC`
	if f.Limit > 0 {
		where += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return where, args
}

func (q *Queries) CreateExpense(ctx context.Context, scope core.Scope, in core.ExpenseInput) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO expense_transactions
		 (user_id, tracker_id, category_id, amount_cents, transaction_date, description, notes, payment_method, is_recurring)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scope.UserID, scope.TrackerID, nullInt64(in.CategoryID.Value), in.Amount.Cents,
		in.TransactionDate.String(), in.Description, in.Notes, in.PaymentMethod, boolInt(bool(in.IsRecurring)))
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) CreateIncome(ctx context.Context, scope core.Scope, in core.IncomeInput) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO income_transactions
		 (user_id, tracker_id, source_id, amount_cents, transaction_date, description, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		scope.UserID, scope.TrackerID, nullInt64(in.SourceID.Value), in.Amount.Cents,
		in.TransactionDate.String(), in.Description, in.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert income: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) ListExpenses(ctx context.Context, scope core.Scope, f core.LedgerFilter) ([]core.Expense, error) {
	where, args := ledgerWhere("e", scope, f, "category_id", f.CategoryID)
	rows, err := q.db.QueryContext(ctx, expenseSelect+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (q *Queries) ListIncome(ctx context.Context, scope core.Scope, f core.LedgerFilter) ([]core.Income, error) {
	where, args := ledgerWhere("i", scope, f, "source_id", f.SourceID)
	rows, err := q.db.QueryContext(ctx, incomeSelect+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()

	income := make([]core.Income, 0)
	for rows.Next() {
		i, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		income = append(income, i)
	}
	return income, rows.Err()
}

func (q *Queries) GetExpense(ctx context.Context, userID, transactionID int64) (core.Expense, error) {
	row := q.db.QueryRowContext(ctx,
		expenseSelect+` WHERE e.transaction_id = ? AND e.user_id = ?`, transactionID, userID)
	e, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, notFound(err, "get expense")
	}
	return e, nil
}

func (q *Queries) UpdateExpense(ctx context.Context, userID, transactionID int64, p core.ExpensePatch) (int64, error) {
	var set setList
	if p.CategoryID.Set {
		set.add("category_id", nullInt64(p.CategoryID.Value))
	}
	if p.Amount != nil {
		set.add("amount_cents", p.Amount.Cents)
	}
	if p.TransactionDate != nil {
		set.add("transaction_date", p.TransactionDate.String())
	}
	if p.Description != nil {
		set.add("description", *p.Description)
	}
	if p.Notes != nil {
		set.add("notes", *p.Notes)
	}
	if p.PaymentMethod != nil {
		set.add("payment_method", *p.PaymentMethod)
	}
	n, err := set.exec(ctx, q.db, "expense_transactions", "transaction_id = ? AND user_id = ?", transactionID, userID)
	if err != nil {
		return 0, fmt.Errorf("update expense: %w", err)
	}
	return n, nil
}

func (q *Queries) UpdateIncome(ctx context.Context, userID, transactionID int64, p core.IncomePatch) (int64, error) {
	var set setList
	if p.SourceID.Set {
		set.add("source_id", nullInt64(p.SourceID.Value))
	}
	if p.Amount != nil {
		set.add("amount_cents", p.Amount.Cents)
	}
	if p.TransactionDate != nil {
		set.add("transaction_date", p.TransactionDate.String())
	}
	if p.Description != nil {
		set.add("description", *p.Description)
	}
	if p.Notes != nil {
		set.add("notes", *p.Notes)
	}
	n, err := set.exec(ctx, q.db, "income_transactions", "transaction_id = ? AND user_id = ?", transactionID, userID)
	if err != nil {
		return 0, fmt.Errorf("update income: %w", err)
	}
	return n, nil
}

func (q *Queries) DeleteExpense(ctx context.Context, userID, transactionID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM expense_transactions WHERE transaction_id = ? AND user_id = ?`, transactionID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete expense: %w", err)
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteIncome(ctx context.Context, userID, transactionID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM income_transactions WHERE transaction_id = ? AND user_id = ?`, transactionID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete income: %w", err)
	}
	return res.RowsAffected()
}
