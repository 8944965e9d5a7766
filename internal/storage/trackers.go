package storage

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

const trackerColumns = `tracker_id, user_id, tracker_name, tracker_type, description, icon, color,
	is_default, is_active, created_at`

func scanTracker(row interface{ Scan(...interface{}) error }) (core.Tracker, error) {
	var t core.Tracker
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Type, &t.Description, &t.Icon, &t.Color,
		&t.IsDefault, &t.IsActive, &t.CreatedAt)
	return t, err
}

func (q *Queries) CreateTracker(ctx context.Context, userID int64, in core.TrackerInput, isDefault bool) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO trackers (user_id, tracker_name, tracker_type, description, icon, color, is_default)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, in.Name, in.Type, in.Description, in.Icon, in.Color, boolInt(isDefault))
	if err != nil {
		return 0, fmt.Errorf("insert tracker: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("tracker id: %w", err)
	}

	slog.InfoContext(ctx, "Tracker saved to SQLite",
		"tracker_id", id,
		"user_id", userID,
		"is_default", isDefault)

	return id, nil
}

func (q *Queries) CountActiveTrackers(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trackers WHERE user_id = ? AND is_active = 1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active trackers: %w", err)
	}
	return n, nil
}

func (q *Queries) GetTracker(ctx context.Context, userID, trackerID int64) (core.Tracker, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+trackerColumns+` FROM trackers WHERE tracker_id = ? AND user_id = ?`, trackerID, userID)
	t, err := scanTracker(row)
	if err != nil {
		return core.Tracker{}, notFound(err, "get tracker")
	}
	return t, nil
}

func (q *Queries) ListTrackers(ctx context.Context, userID int64, activeOnly bool) ([]core.Tracker, error) {
	query := `SELECT ` + trackerColumns + ` FROM trackers WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY is_default DESC, created_at ASC, tracker_id ASC`

	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list trackers: %w", err)
	}
	defer rows.Close()

	trackers := make([]core.Tracker, 0)
	for rows.Next() {
		t, err := scanTracker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tracker: %w", err)
		}
		trackers = append(trackers, t)
	}
	return trackers, rows.Err()
}

func (q *Queries) GetDefaultTracker(ctx context.Context, userID int64) (core.Tracker, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+trackerColumns+` FROM trackers
		 WHERE user_id = ? AND is_default = 1 AND is_active = 1
		 LIMIT 1`, userID)
	t, err := scanTracker(row)
	if err != nil {
		return core.Tracker{}, notFound(err, "get default tracker")
	}
	return t, nil
}

func (q *Queries) GetEarliestActiveTracker(ctx context.Context, userID, excludeID int64) (core.Tracker, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+trackerColumns+` FROM trackers
		 WHERE user_id = ? AND is_active = 1 AND tracker_id != ?
		 ORDER BY created_at ASC, tracker_id ASC
		 LIMIT 1`, userID, excludeID)
	t, err := scanTracker(row)
	if err != nil {
		return core.Tracker{}, notFound(err, "get earliest active tracker")
	}
	return t, nil
}

func (q *Queries) ClearDefaultTrackers(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, `UPDATE trackers SET is_default = 0 WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("clear default trackers: %w", err)
	}
	return nil
}

func (q *Queries) MarkTrackerDefault(ctx context.Context, userID, trackerID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE trackers SET is_default = 1 WHERE tracker_id = ? AND user_id = ? AND is_active = 1`,
		trackerID, userID)
	if err != nil {
		return 0, fmt.Errorf("mark tracker default: %w", err)
	}
	return res.RowsAffected()
}

func (q *Queries) DeactivateTracker(ctx context.Context, userID, trackerID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE trackers SET is_active = 0, is_default = 0 WHERE tracker_id = ? AND user_id = ?`,
		trackerID, userID)
	if err != nil {
		return 0, fmt.Errorf("deactivate tracker: %w", err)
	}
	return res.RowsAffected()
}

func (q *Queries) UpdateTracker(ctx context.Context, userID, trackerID int64, p core.TrackerPatch) (int64, error) {
	var set setList
	if p.Name != nil {
		set.add("tracker_name", *p.Name)
	}
	if p.Type != nil {
		set.add("tracker_type", *p.Type)
	}
	if p.Description != nil {
		set.add("description", *p.Description)
	}
	if p.Icon != nil {
		set.add("icon", *p.Icon)
	}
	if p.Color != nil {
		set.add("color", *p.Color)
	}
	n, err := set.exec(ctx, q.db, "trackers", "tracker_id = ? AND user_id = ?", trackerID, userID)
	if err != nil {
		return 0, fmt.Errorf("update tracker: %w", err)
	}
	return n, nil
}

func (q *Queries) ListActiveTrackerScopes(ctx context.Context) ([]core.Scope, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT user_id, tracker_id FROM trackers WHERE is_active = 1 ORDER BY tracker_id`)
	if err != nil {
		return nil, fmt.Errorf("list active trackers: %w", err)
	}
	defer rows.Close()

	var scopes []core.Scope
	for rows.Next() {
		var s core.Scope
		if err := rows.Scan(&s.UserID, &s.TrackerID); err != nil {
			return nil, fmt.Errorf("scan tracker scope: %w", err)
		}
		scopes = append(scopes, s)
	}
	return scopes, rows.Err()
}
