package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const incomeSourceColumns = `source_id, user_id, tracker_id, source_name, source_type, description,
	is_recurring, frequency, expected_amount_cents, is_active, created_at`

func scanIncomeSource(row interface{ Scan(...interface{}) error }) (core.IncomeSource, error) {
	var (
		s        core.IncomeSource
		expected sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.UserID, &s.TrackerID, &s.Name, &s.Type, &s.Description,
		&s.IsRecurring, &s.Frequency, &expected, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return core.IncomeSource{}, err
	}
	if expected.Valid {
		m := core.NewMoney(expected.Int64)
		s.ExpectedAmount = &m
	}
	return s, nil
}

func (q *Queries) CreateIncomeSource(ctx context.Context, scope core.Scope, in core.IncomeSourceInput) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO income_sources
		 (user_id, tracker_id, source_name, source_type, description, is_recurring, frequency, expected_amount_cents)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		scope.UserID, scope.TrackerID, in.Name, in.Type, in.Description,
		boolInt(bool(in.IsRecurring)), in.Frequency, nullMoney(in.ExpectedAmount.Value))
	if err != nil {
		return 0, fmt.Errorf("insert income source: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) ListIncomeSources(ctx context.Context, scope core.Scope, activeOnly bool) ([]core.IncomeSource, error) {
	query := `SELECT ` + incomeSourceColumns + ` FROM income_sources WHERE user_id = ? AND tracker_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at DESC, source_id DESC`

	rows, err := q.db.QueryContext(ctx, query, scope.UserID, scope.TrackerID)
	if err != nil {
		return nil, fmt.Errorf("list income sources: %w", err)
	}
	defer rows.Close()

	sources := make([]core.IncomeSource, 0)
	for rows.Next() {
		s, err := scanIncomeSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income source: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (q *Queries) GetIncomeSource(ctx context.Context, scope core.Scope, sourceID int64) (core.IncomeSource, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+incomeSourceColumns+` FROM income_sources WHERE source_id = ? AND user_id = ? AND tracker_id = ?`,
		sourceID, scope.UserID, scope.TrackerID)
	s, err := scanIncomeSource(row)
	if err != nil {
		return core.IncomeSource{}, notFound(err, "get income source")
	}
	return s, nil
}

func (q *Queries) UpdateIncomeSource(ctx context.Context, scope core.Scope, sourceID int64, p core.IncomeSourcePatch) (int64, error) {
	var set setList
	if p.Name != nil {
		set.add("source_name", *p.Name)
	}
	if p.Type != nil {
		set.add("source_type", *p.Type)
	}
	if p.Description != nil {
		set.add("description", *p.Description)
	}
	if p.IsRecurring != nil {
		set.add("is_recurring", boolInt(bool(*p.IsRecurring)))
	}
	if p.Frequency != nil {
		set.add("frequency", *p.Frequency)
	}
	if p.ExpectedAmount.Set {
		set.add("expected_amount_cents", nullMoney(p.ExpectedAmount.Value))
	}
	if p.IsActive != nil {
		set.add("is_active", boolInt(bool(*p.IsActive)))
	}
	n, err := set.exec(ctx, q.db, "income_sources", "source_id = ? AND user_id = ? AND tracker_id = ?",
		sourceID, scope.UserID, scope.TrackerID)
	if err != nil {
		return 0, fmt.Errorf("update income source: %w", err)
	}
	return n, nil
}

func (q *Queries) DeleteIncomeSource(ctx context.Context, scope core.Scope, sourceID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM income_sources WHERE source_id = ? AND user_id = ? AND tracker_id = ?`,
		sourceID, scope.UserID, scope.TrackerID)
	if err != nil {
		return 0, fmt.Errorf("delete income source: %w", err)
	}
	return res.RowsAffected()
}
