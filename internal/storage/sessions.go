package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// timestampLayout is how instants are stored so that TEXT comparison
// orders them chronologically.
const timestampLayout = "2006-01-02 15:04:05.000"

func (q *Queries) CreateSession(ctx context.Context, s core.Session) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, active_tracker_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		s.Token, s.UserID, nullInt64(s.ActiveTrackerID),
		s.CreatedAt.UTC().Format(timestampLayout), s.ExpiresAt.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (q *Queries) GetSession(ctx context.Context, token string) (core.Session, error) {
	var (
		s                  core.Session
		trackerID          sql.NullInt64
		createdAt, expires string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT token, user_id, active_tracker_id, created_at, expires_at FROM sessions WHERE token = ?`,
		token).Scan(&s.Token, &s.UserID, &trackerID, &createdAt, &expires)
	if err != nil {
		return core.Session{}, notFound(err, "get session")
	}

	s.ActiveTrackerID = int64Ptr(trackerID)
	if s.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return core.Session{}, fmt.Errorf("parse session created_at: %w", err)
	}
	if s.ExpiresAt, err = time.Parse(timestampLayout, expires); err != nil {
		return core.Session{}, fmt.Errorf("parse session expires_at: %w", err)
	}
	return s, nil
}

func (q *Queries) SetSessionTracker(ctx context.Context, token string, trackerID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE sessions SET active_tracker_id = ? WHERE token = ?`, trackerID, token)
	if err != nil {
		return 0, fmt.Errorf("set session tracker: %w", err)
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, now.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
