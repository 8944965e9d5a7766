package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// TrackerService keeps every user with exactly one active default tracker
// and at least one active tracker.
type TrackerService struct {
	repo ports.Repository
}

func NewTrackerService(repo ports.Repository) *TrackerService {
	return &TrackerService{repo: repo}
}

// DefaultTrackerName is the name of the tracker created at registration.
func DefaultTrackerName(fullName string) string {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return "My Budget"
	}
	return fullName + "'s Budget"
}

// Create inserts a tracker. The user's first active tracker becomes the default.
func (s *TrackerService) Create(ctx context.Context, scope core.Scope, in core.TrackerInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	in = in.WithDefaults()

	var id int64
	err := s.repo.InTx(ctx, func(tx ports.Store) error {
		active, err := tx.CountActiveTrackers(ctx, scope.UserID)
		if err != nil {
			return err
		}
		id, err = tx.CreateTracker(ctx, scope.UserID, in, active == 0)
		return err
	})
	if err != nil {
		return 0, storageErr("create tracker", err)
	}

	slog.InfoContext(ctx, "Tracker created",
		"user_id", scope.UserID,
		"tracker_id", id)
	return id, nil
}

// CreateDefaultForUser creates the registration tracker on tx.
func (s *TrackerService) CreateDefaultForUser(ctx context.Context, tx ports.Store, userID int64, fullName string) (int64, error) {
	in := core.TrackerInput{
		Name:        DefaultTrackerName(fullName),
		Description: "Default budget tracker",
	}.WithDefaults()
	return tx.CreateTracker(ctx, userID, in, true)
}

func (s *TrackerService) List(ctx context.Context, scope core.Scope, activeOnly bool) ([]core.Tracker, error) {
	trackers, err := s.repo.ListTrackers(ctx, scope.UserID, activeOnly)
	if err != nil {
		return nil, storageErr("list trackers", err)
	}
	return trackers, nil
}

func (s *TrackerService) Get(ctx context.Context, scope core.Scope, trackerID int64) (core.Tracker, error) {
	t, err := s.repo.GetTracker(ctx, scope.UserID, trackerID)
	if err != nil {
		return core.Tracker{}, lookupErr("Tracker", "get tracker", err)
	}
	return t, nil
}

func (s *TrackerService) Update(ctx context.Context, scope core.Scope, trackerID int64, p core.TrackerPatch) (core.Tracker, error) {
	if p.IsEmpty() {
		return core.Tracker{}, core.ErrNoFields
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if err := (core.TrackerInput{Name: name}).Validate(); err != nil {
			return core.Tracker{}, err
		}
		p.Name = &name
	}

	n, err := s.repo.UpdateTracker(ctx, scope.UserID, trackerID, p)
	if err != nil {
		return core.Tracker{}, storageErr("update tracker", err)
	}
	if err := affected("Tracker", n); err != nil {
		return core.Tracker{}, err
	}
	return s.Get(ctx, scope, trackerID)
}

// activeTracker loads a tracker the user owns and that is still active.
func activeTracker(ctx context.Context, store ports.Store, userID, trackerID int64) (core.Tracker, error) {
	t, err := store.GetTracker(ctx, userID, trackerID)
	if err != nil {
		return core.Tracker{}, lookupErr("Tracker", "get tracker", err)
	}
	if !t.IsActive {
		return core.Tracker{}, core.NotFoundError("Tracker")
	}
	return t, nil
}

// Switch points the caller's session at another of their active trackers.
func (s *TrackerService) Switch(ctx context.Context, scope core.Scope, trackerID int64) (core.Tracker, error) {
	t, err := activeTracker(ctx, s.repo, scope.UserID, trackerID)
	if err != nil {
		return core.Tracker{}, err
	}

	n, err := s.repo.SetSessionTracker(ctx, scope.SessionToken, t.ID)
	if err != nil {
		return core.Tracker{}, storageErr("switch tracker", err)
	}
	if n == 0 {
		return core.Tracker{}, core.ErrNotLoggedIn
	}

	slog.InfoContext(ctx, "Active tracker switched",
		"user_id", scope.UserID,
		"tracker_id", t.ID)
	return t, nil
}

// SetDefault makes trackerID the user's only default tracker.
func (s *TrackerService) SetDefault(ctx context.Context, scope core.Scope, trackerID int64) error {
	err := s.repo.InTx(ctx, func(tx ports.Store) error {
		if _, err := activeTracker(ctx, tx, scope.UserID, trackerID); err != nil {
			return err
		}
		if err := tx.ClearDefaultTrackers(ctx, scope.UserID); err != nil {
			return err
		}
		n, err := tx.MarkTrackerDefault(ctx, scope.UserID, trackerID)
		if err != nil {
			return err
		}
		return affected("Tracker", n)
	})
	if err != nil {
		return storageErr("set default tracker", err)
	}
	return nil
}

// Delete soft-deletes a tracker. The last active tracker cannot be deleted;
// deleting the default hands the flag to the oldest remaining tracker.
func (s *TrackerService) Delete(ctx context.Context, scope core.Scope, trackerID int64) error {
	err := s.repo.InTx(ctx, func(tx ports.Store) error {
		target, err := activeTracker(ctx, tx, scope.UserID, trackerID)
		if err != nil {
			return err
		}

		active, err := tx.CountActiveTrackers(ctx, scope.UserID)
		if err != nil {
			return err
		}
		if active <= 1 {
			return core.ErrLastTracker
		}

		if target.IsDefault {
			next, err := tx.GetEarliestActiveTracker(ctx, scope.UserID, target.ID)
			if err != nil {
				return err
			}
			if err := tx.ClearDefaultTrackers(ctx, scope.UserID); err != nil {
				return err
			}
			if _, err := tx.MarkTrackerDefault(ctx, scope.UserID, next.ID); err != nil {
				return err
			}
		}

		n, err := tx.DeactivateTracker(ctx, scope.UserID, target.ID)
		if err != nil {
			return err
		}
		return affected("Tracker", n)
	})
	if err != nil {
		return storageErr("delete tracker", err)
	}

	slog.InfoContext(ctx, "Tracker deleted",
		"user_id", scope.UserID,
		"tracker_id", trackerID)
	return nil
}

// GetDefault returns the user's default tracker, falling back to the oldest
// active one.
func (s *TrackerService) GetDefault(ctx context.Context, userID int64) (core.Tracker, error) {
	return defaultTracker(ctx, s.repo, userID)
}

func defaultTracker(ctx context.Context, store ports.Store, userID int64) (core.Tracker, error) {
	t, err := store.GetDefaultTracker(ctx, userID)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Tracker{}, storageErr("get default tracker", err)
	}

	t, err = store.GetEarliestActiveTracker(ctx, userID, 0)
	if errors.Is(err, core.ErrNotFound) {
		return core.Tracker{}, core.ErrNoActiveTracker
	}
	if err != nil {
		return core.Tracker{}, storageErr("get default tracker", err)
	}
	return t, nil
}
