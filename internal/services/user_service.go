package services

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var errInvalidCredentials = core.UnauthorizedError("Invalid email or password")

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	AccountType string `json:"account_type"`
}

// AuthResult is what a successful login or registration hands back.
type AuthResult struct {
	User    core.User
	Tracker *core.Tracker
	Session core.Session
}

type UserService struct {
	repo     ports.Repository
	trackers *TrackerService
	sessions *SessionService
	now      Clock
	hashCost int
}

func NewUserService(repo ports.Repository, trackers *TrackerService, sessions *SessionService, now Clock) *UserService {
	if now == nil {
		now = systemClock
	}
	return &UserService{
		repo:     repo,
		trackers: trackers,
		sessions: sessions,
		now:      now,
		hashCost: bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the user together with a default tracker and logs them in.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return AuthResult{}, core.ValidationError("Email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return AuthResult{}, core.ValidationError("Invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return AuthResult{}, core.ValidationError("Password must be at least %d characters", minPasswordLength)
	}

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return AuthResult{}, core.ConflictError("Email already registered")
	}
	if !errors.Is(err, core.ErrNotFound) {
		return AuthResult{}, storageErr("register", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return AuthResult{}, storageErr("hash password", err)
	}

	userID, err := s.createWithTracker(ctx, core.NewUser{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		AccountType:  in.AccountType,
	})
	if err != nil {
		return AuthResult{}, err
	}

	slog.InfoContext(ctx, "User registered", "user_id", userID)
	return s.openSession(ctx, userID)
}

func (s *UserService) createWithTracker(ctx context.Context, u core.NewUser) (int64, error) {
	var userID int64
	err := s.repo.InTx(ctx, func(tx ports.Store) error {
		var err error
		userID, err = tx.CreateUser(ctx, u)
		if err != nil {
			return err
		}
		_, err = s.trackers.CreateDefaultForUser(ctx, tx, userID, u.FullName)
		return err
	})
	if err != nil {
		return 0, storageErr("create user", err)
	}
	return userID, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, core.ValidationError("Email and password are required")
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return AuthResult{}, errInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, storageErr("login", err)
	}

	if u.PasswordHash == "" {
		return AuthResult{}, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, errInvalidCredentials
	}
	if !u.IsActive {
		return AuthResult{}, core.UnauthorizedError("Account is deactivated")
	}

	return s.openSession(ctx, u.ID)
}

// LoginWithGoogle signs in the owner of a verified Google identity, creating
// the account on first use.
func (s *UserService) LoginWithGoogle(ctx context.Context, id core.GoogleIdentity) (AuthResult, error) {
	u, err := s.repo.GetUserByGoogleID(ctx, id.ID)
	switch {
	case err == nil:
		if !u.IsActive {
			return AuthResult{}, core.UnauthorizedError("Account is deactivated")
		}
		return s.openSession(ctx, u.ID)
	case !errors.Is(err, core.ErrNotFound):
		return AuthResult{}, storageErr("google login", err)
	}

	email := normalizeEmail(id.Email)
	_, err = s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return AuthResult{}, core.ConflictError("Email already registered. Please use password login.")
	}
	if !errors.Is(err, core.ErrNotFound) {
		return AuthResult{}, storageErr("google login", err)
	}

	userID, err := s.createWithTracker(ctx, core.NewUser{
		Email:          email,
		GoogleID:       id.ID,
		FullName:       strings.TrimSpace(id.Name),
		ProfilePicture: id.Picture,
	})
	if err != nil {
		return AuthResult{}, err
	}

	slog.InfoContext(ctx, "User registered with Google", "user_id", userID)
	return s.openSession(ctx, userID)
}

func (s *UserService) openSession(ctx context.Context, userID int64) (AuthResult, error) {
	if err := s.repo.TouchLastLogin(ctx, userID, s.now()); err != nil {
		slog.WarnContext(ctx, "Failed to refresh last login", "user_id", userID, "error", err)
	}

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return AuthResult{}, lookupErr("User", "load user", err)
	}

	res := AuthResult{User: u}
	var trackerID int64
	t, err := s.trackers.GetDefault(ctx, userID)
	switch {
	case err == nil:
		res.Tracker = &t
		trackerID = t.ID
	case !errors.Is(err, core.ErrNoActiveTracker):
		return AuthResult{}, err
	}

	res.Session, err = s.sessions.Start(ctx, userID, trackerID)
	if err != nil {
		return AuthResult{}, err
	}
	return res, nil
}

func (s *UserService) Logout(ctx context.Context, scope core.Scope) error {
	return s.sessions.End(ctx, scope.SessionToken)
}

func (s *UserService) Profile(ctx context.Context, scope core.Scope) (core.User, error) {
	u, err := s.repo.GetUser(ctx, scope.UserID)
	if err != nil {
		return core.User{}, lookupErr("User", "get profile", err)
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, scope core.Scope, p core.ProfilePatch) (core.User, error) {
	if p.IsEmpty() {
		return core.User{}, core.ErrNoFields
	}
	if p.FullName != nil {
		name := strings.TrimSpace(*p.FullName)
		if name == "" {
			return core.User{}, core.ValidationError("Full name cannot be empty")
		}
		p.FullName = &name
	}
	if p.AccountType != nil && strings.TrimSpace(*p.AccountType) == "" {
		return core.User{}, core.ValidationError("Account type cannot be empty")
	}

	n, err := s.repo.UpdateUserProfile(ctx, scope.UserID, p)
	if err != nil {
		return core.User{}, storageErr("update profile", err)
	}
	if err := affected("User", n); err != nil {
		return core.User{}, err
	}
	return s.Profile(ctx, scope)
}

// Check returns the authenticated user and their active tracker, if any.
func (s *UserService) Check(ctx context.Context, scope core.Scope) (core.User, *core.Tracker, error) {
	u, err := s.Profile(ctx, scope)
	if err != nil {
		return core.User{}, nil, err
	}
	if scope.TrackerID == 0 {
		return u, nil, nil
	}
	t, err := s.trackers.Get(ctx, scope, scope.TrackerID)
	if err != nil {
		return core.User{}, nil, err
	}
	return u, &t, nil
}
