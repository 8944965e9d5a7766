package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// SessionCookieName carries the opaque session token.
const SessionCookieName = "fintrack_session"

type scopeKey struct{}

func withScope(ctx context.Context, scope core.Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// scopeFrom returns the scope resolved by requireSession.
func scopeFrom(ctx context.Context) core.Scope {
	scope, _ := ctx.Value(scopeKey{}).(core.Scope)
	return scope
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess core.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(s.svc.Sessions.Lifetime() / time.Second),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// requireSession resolves the session cookie into a core.Scope for next.
// Unknown or expired sessions get a 401 and the cookie is cleared.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := s.svc.Sessions.Resolve(r.Context(), sessionToken(r))
		if err != nil {
			if statusFor(err) == http.StatusUnauthorized {
				s.clearSessionCookie(w)
			}
			s.writeError(w, r, err, log.OpRead)
			return
		}

		ctx := withScope(r.Context(), scope)
		ctx = log.WithLogger(ctx, log.FromContext(ctx).With(log.FieldUserID, scope.UserID))
		next(w, r.WithContext(ctx))
	}
}

// requireTracker rejects requests from users without an active tracker,
// which only happens once every tracker of theirs has been deleted.
func (s *Server) requireTracker(next http.HandlerFunc) http.HandlerFunc {
	return s.requireSession(func(w http.ResponseWriter, r *http.Request) {
		if scopeFrom(r.Context()).TrackerID == 0 {
			s.writeError(w, r, core.ErrNoActiveTracker, log.OpRead)
			return
		}
		next(w, r)
	})
}
