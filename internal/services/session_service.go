package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"github.com/google/uuid"
)

// DefaultSessionLifetime is how long a login stays valid.
const DefaultSessionLifetime = 7 * 24 * time.Hour

// SessionService issues and resolves server-side sessions.
type SessionService struct {
	store    ports.Store
	lifetime time.Duration
	now      Clock
}

func NewSessionService(store ports.Store, lifetime time.Duration, now Clock) *SessionService {
	if lifetime <= 0 {
		lifetime = DefaultSessionLifetime
	}
	if now == nil {
		now = systemClock
	}
	return &SessionService{store: store, lifetime: lifetime, now: now}
}

// Start opens a session for userID with trackerID active (0 for none).
func (s *SessionService) Start(ctx context.Context, userID, trackerID int64) (core.Session, error) {
	now := s.now().UTC()
	sess := core.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.lifetime),
	}
	if trackerID != 0 {
		sess.ActiveTrackerID = &trackerID
	}

	if err := s.store.CreateSession(ctx, sess); err != nil {
		return core.Session{}, storageErr("create session", err)
	}
	return sess, nil
}

// Resolve turns a session token into the caller's scope. Expired sessions are
// removed. When the session's tracker is gone or inactive the user's default
// tracker takes its place.
func (s *SessionService) Resolve(ctx context.Context, token string) (core.Scope, error) {
	if token == "" {
		return core.Scope{}, core.ErrNotLoggedIn
	}

	sess, err := s.store.GetSession(ctx, token)
	if errors.Is(err, core.ErrNotFound) {
		return core.Scope{}, core.ErrNotLoggedIn
	}
	if err != nil {
		return core.Scope{}, storageErr("get session", err)
	}

	if !s.now().Before(sess.ExpiresAt) {
		if err := s.store.DeleteSession(ctx, token); err != nil {
			slog.ErrorContext(ctx, "Failed to delete expired session", "user_id", sess.UserID, "error", err)
		}
		return core.Scope{}, core.UnauthorizedError("Session expired")
	}

	scope := core.Scope{UserID: sess.UserID, SessionToken: token}

	if sess.ActiveTrackerID != nil {
		t, err := s.store.GetTracker(ctx, sess.UserID, *sess.ActiveTrackerID)
		switch {
		case err == nil && t.IsActive:
			scope.TrackerID = t.ID
			return scope, nil
		case err != nil && !errors.Is(err, core.ErrNotFound):
			return core.Scope{}, storageErr("get session tracker", err)
		}
	}

	t, err := defaultTracker(ctx, s.store, sess.UserID)
	if errors.Is(err, core.ErrNoActiveTracker) {
		slog.WarnContext(ctx, "User has no active tracker", "user_id", sess.UserID)
		return scope, nil
	}
	if err != nil {
		return core.Scope{}, err
	}

	scope.TrackerID = t.ID
	if _, err := s.store.SetSessionTracker(ctx, token, t.ID); err != nil {
		slog.WarnContext(ctx, "Failed to persist fallback tracker", "tracker_id", t.ID, "error", err)
	}
	return scope, nil
}

func (s *SessionService) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, token); err != nil {
		return storageErr("delete session", err)
	}
	return nil
}

// PurgeExpired removes sessions past their expiry.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, storageErr("purge sessions", err)
	}
	return n, nil
}

func (s *SessionService) Lifetime() time.Duration {
	return s.lifetime
}
