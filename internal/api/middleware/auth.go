package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/mlctf/internal/api/apierr"
	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/services/progression"
	"github.com/mcoot/mlctf/internal/services/session"
)

type contextKey string

const (
	runContextKey     contextKey = "run"
	sessionContextKey contextKey = "session"
)

// Auth creates middleware that resolves the session token to its run
func Auth(sessions *session.Service, runs *progression.Controller) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			sess, err := sessions.Validate(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			run, err := runs.GetRun(r.Context(), sess.RunID)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, sessionContextKey, sess)
			ctx = context.WithValue(ctx, runContextKey, run)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	// Fall back to cookie
	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetRun returns the run loaded by Auth as it was when the request arrived
func GetRun(ctx context.Context) *model.Run {
	run, _ := ctx.Value(runContextKey).(*model.Run)
	return run
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(sessionContextKey).(*model.Session)
	return sess
}

// MustGetRun returns the authenticated run or panics
func MustGetRun(ctx context.Context) *model.Run {
	run := GetRun(ctx)
	if run == nil {
		panic("no run in context - auth middleware not applied?")
	}
	return run
}
