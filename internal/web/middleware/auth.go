package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/services/progression"
	"github.com/mcoot/mlctf/internal/services/session"
)

type contextKey string

const (
	runContextKey     contextKey = "run"
	sessionContextKey contextKey = "session"

	// SessionCookie holds the session token in the browser
	SessionCookie = "session"
)

// GetRun retrieves the agent's run from the request context.
// Returns nil if the request carries no valid session.
func GetRun(ctx context.Context) *model.Run {
	run, _ := ctx.Value(runContextKey).(*model.Run)
	return run
}

// GetSession retrieves the session from the request context
func GetSession(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(sessionContextKey).(*model.Session)
	return sess
}

// RequireRun returns middleware that loads the session's run and redirects
// home when there is none
func RequireRun(sessions *session.Service, runs *progression.Controller) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, run := loadRun(r, sessions, runs)
			if run == nil {
				SetFlash(w, "info", "Start a mission first")
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), runContextKey, run)
			ctx = context.WithValue(ctx, sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalRun loads the session's run if there is one
func OptionalRun(sessions *session.Service, runs *progression.Controller) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, run := loadRun(r, sessions, runs)
			ctx := r.Context()
			if run != nil {
				ctx = context.WithValue(ctx, runContextKey, run)
				ctx = context.WithValue(ctx, sessionContextKey, sess)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func loadRun(r *http.Request, sessions *session.Service, runs *progression.Controller) (*model.Session, *model.Run) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	sess, err := sessions.Validate(r.Context(), cookie.Value)
	if err != nil {
		return nil, nil
	}

	run, err := runs.GetRun(r.Context(), sess.RunID)
	if err != nil {
		return nil, nil
	}
	return sess, run
}
