package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/mlctf/internal/api/apierr"
	"github.com/mcoot/mlctf/internal/api/handler"
	"github.com/mcoot/mlctf/internal/api/middleware"
	sharedmw "github.com/mcoot/mlctf/internal/middleware"
	"github.com/mcoot/mlctf/internal/services/portal"
	"github.com/mcoot/mlctf/internal/services/progression"
	"github.com/mcoot/mlctf/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger     *slog.Logger
	Sessions   *session.Service
	Controller *progression.Controller
	Portal     *portal.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	runHandler := handler.NewRunHandler(cfg.Controller, cfg.Sessions, cfg.Portal)
	leaderboardHandler := handler.NewLeaderboardHandler(cfg.Portal, cfg.Controller.Total())

	// Create middleware
	authMiddleware := middleware.Auth(cfg.Sessions, cfg.Controller)
	loggingMiddleware := sharedmw.Logging(cfg.Logger)
	recoveryMiddleware := sharedmw.Recovery(cfg.Logger, writePanic)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Public routes
	api.HandleFunc("/runs", runHandler.Start).Methods(http.MethodPost)
	api.HandleFunc("/leaderboard", leaderboardHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/health", leaderboardHandler.Health).Methods(http.MethodGet)

	// Run routes (all require a session)
	me := api.PathPrefix("/runs/me").Subrouter()
	me.Use(authMiddleware)
	me.HandleFunc("", runHandler.Me).Methods(http.MethodGet)
	me.HandleFunc("", runHandler.End).Methods(http.MethodDelete)
	me.HandleFunc("/puzzles/{id}/actions", runHandler.Act).Methods(http.MethodPost)
	me.HandleFunc("/portal", runHandler.Portal).Methods(http.MethodPost)
	me.HandleFunc("/registration", runHandler.Register).Methods(http.MethodPost)

	return r
}

// writePanic answers a recovered panic with the JSON internal error
func writePanic(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
