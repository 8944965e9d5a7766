package http

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"fintrack/internal/auth/google"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"github.com/google/uuid"
)

const (
	oauthStateCookie = "fintrack_oauth_state"
	oauthStateMaxAge = 10 * 60
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// writeAuthResult sets the session cookie and returns the user with the
// tracker the session starts on.
func (s *Server) writeAuthResult(w http.ResponseWriter, status int, msg string, res services.AuthResult) {
	s.setSessionCookie(w, res.Session)
	NewJSONResponse().
		Status(status).
		Message(msg).
		Field("user", res.User).
		Field("tracker", res.Tracker).
		Write(w)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}

	res, err := s.svc.Users.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}
	s.writeAuthResult(w, http.StatusCreated, "Registration successful", res)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, log.OpLogin)
		return
	}

	res, err := s.svc.Users.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		s.writeError(w, r, err, log.OpLogin)
		return
	}
	s.writeAuthResult(w, http.StatusOK, "Login successful", res)
}

// handleLogout ends the session named by the cookie, if any. Logging out
// twice is not an error.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Users.Logout(r.Context(), core.Scope{SessionToken: sessionToken(r)}); err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}
	s.clearSessionCookie(w)
	NewJSONResponse().Message("Logged out successfully").Write(w)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	user, tracker, err := s.svc.Users.Check(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().
		Field("authenticated", true).
		Field("user", user).
		Field("tracker", tracker).
		Write(w)
}

func (s *Server) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		NotFoundError("Google sign-in is not configured").Write(w)
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.google.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		NotFoundError("Google sign-in is not configured").Write(w)
		return
	}

	q := r.URL.Query()
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" ||
		subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(q.Get("state"))) != 1 {
		BadRequestError("Invalid OAuth state").Write(w)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/api/auth/google", MaxAge: -1})

	if reason := q.Get("error"); reason != "" {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Google sign-in cancelled", "reason", reason)
		UnauthorizedError("Google sign-in was cancelled").Write(w)
		return
	}
	code := q.Get("code")
	if code == "" {
		BadRequestError("Missing authorization code").Write(w)
		return
	}

	identity, err := s.google.Exchange(r.Context(), code)
	if err != nil {
		if errors.Is(err, google.ErrUnverifiedEmail) {
			UnauthorizedError("Google account email is not verified").Write(w)
			return
		}
		log.FromContext(r.Context()).WarnContext(r.Context(), "Google code exchange failed",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeAuth)
		UnauthorizedError("Google sign-in failed").Write(w)
		return
	}

	res, err := s.svc.Users.LoginWithGoogle(r.Context(), identity)
	if err != nil {
		s.writeError(w, r, err, log.OpLogin)
		return
	}
	s.writeAuthResult(w, http.StatusOK, "Login successful", res)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Users.Profile(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Field("user", user).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p core.ProfilePatch
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}

	user, err := s.svc.Users.UpdateProfile(r.Context(), scopeFrom(r.Context()), p)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Message("Profile updated").Field("user", user).Write(w)
}
