package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

func scanCategory(row interface{ Scan(...interface{}) error }) (core.Category, error) {
	var (
		c      core.Category
		userID sql.NullInt64
	)
	if err := row.Scan(&c.ID, &userID, &c.Name, &c.Icon, &c.Color, &c.IsSystem); err != nil {
		return core.Category{}, err
	}
	c.UserID = int64Ptr(userID)
	return c, nil
}

// ListCategories returns the system categories followed by the user's own.
func (q *Queries) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT category_id, user_id, category_name, icon, color, is_system
		 FROM expense_categories
		 WHERE user_id IS NULL OR user_id = ?
		 ORDER BY is_system DESC, category_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]core.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (q *Queries) GetCategory(ctx context.Context, userID, categoryID int64) (core.Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT category_id, user_id, category_name, icon, color, is_system
		 FROM expense_categories
		 WHERE category_id = ? AND (user_id IS NULL OR user_id = ?)`, categoryID, userID)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, notFound(err, "get category")
	}
	return c, nil
}

func (q *Queries) CreateCategory(ctx context.Context, userID int64, in core.CategoryInput) (int64, error) {
	icon, color := in.Icon, in.Color
	if icon == "" {
		icon = "📦"
	}
	if color == "" {
		color = "#6b7280"
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO expense_categories (user_id, category_name, icon, color, is_system)
		 VALUES (?, ?, ?, ?, 0)`, userID, in.Name, icon, color)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return res.LastInsertId()
}
