package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const userColumns = `user_id, email, COALESCE(password_hash, ''), COALESCE(google_id, ''), full_name,
	COALESCE(profile_picture, ''), account_type, is_active, COALESCE(last_login, ''), created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.GoogleID, &u.FullName,
		&u.ProfilePicture, &u.AccountType, &u.IsActive, &u.LastLogin, &u.CreatedAt)
	return u, err
}

func (q *Queries) CreateUser(ctx context.Context, u core.NewUser) (int64, error) {
	accountType := u.AccountType
	if accountType == "" {
		accountType = core.DefaultAccountType
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, google_id, full_name, account_type, profile_picture)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, nullString(u.PasswordHash), nullString(u.GoogleID), u.FullName, accountType, nullString(u.ProfilePicture))
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetUser(ctx context.Context, userID int64) (core.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, notFound(err, "get user")
	}
	return u, nil
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, notFound(err, "get user by email")
	}
	return u, nil
}

func (q *Queries) GetUserByGoogleID(ctx context.Context, googleID string) (core.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = ?`, googleID)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, notFound(err, "get user by google id")
	}
	return u, nil
}

func (q *Queries) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE user_id = ?`,
		at.UTC().Format(timestampLayout), userID)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (q *Queries) UpdateUserProfile(ctx context.Context, userID int64, p core.ProfilePatch) (int64, error) {
	var set setList
	if p.FullName != nil {
		set.add("full_name", *p.FullName)
	}
	if p.AccountType != nil {
		set.add("account_type", *p.AccountType)
	}
	if p.ProfilePicture != nil {
		set.add("profile_picture", sql.NullString{String: *p.ProfilePicture, Valid: *p.ProfilePicture != ""})
	}
	n, err := set.exec(ctx, q.db, "users", "user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("update user profile: %w", err)
	}
	return n, nil
}
