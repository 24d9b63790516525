package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	sharedmw "github.com/mcoot/mlctf/internal/middleware"
	"github.com/mcoot/mlctf/internal/services/portal"
	"github.com/mcoot/mlctf/internal/services/progression"
	"github.com/mcoot/mlctf/internal/services/session"
	"github.com/mcoot/mlctf/internal/web/handler"
	"github.com/mcoot/mlctf/internal/web/middleware"
	"github.com/mcoot/mlctf/internal/web/sse"
	"github.com/mcoot/mlctf/internal/web/static"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger      *slog.Logger
	Sessions    *session.Service
	Controller  *progression.Controller
	Portal      *portal.Service
	HubManager  *sse.HubManager
	Broadcaster *sse.Broadcaster
	StaticDir   string // Overrides the embedded assets when set
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	loggingMiddleware := sharedmw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	flashMiddleware := middleware.Flash()
	requireRun := middleware.RequireRun(cfg.Sessions, cfg.Controller)
	optionalRun := middleware.OptionalRun(cfg.Sessions, cfg.Controller)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	hubManager := cfg.HubManager
	if hubManager == nil {
		hubManager = sse.NewHubManager(cfg.Logger)
	}
	broadcaster := cfg.Broadcaster
	if broadcaster == nil {
		broadcaster = sse.NewBroadcaster(hubManager, cfg.Logger)
	}

	homeHandler := handler.NewHomeHandler(cfg.Controller.Total())
	leaderboardHandler := handler.NewLeaderboardHandler(cfg.Portal)
	missionHandler := handler.NewMissionHandler(cfg.Controller, cfg.Portal, cfg.Sessions, hubManager, broadcaster, cfg.Logger)

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(staticFS(cfg.StaticDir))))

	// Public routes (the run, if any, shows in the nav)
	public := r.NewRoute().Subrouter()
	public.Use(flashMiddleware)
	public.Use(optionalRun)
	public.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	public.HandleFunc("/leaderboard", leaderboardHandler.View).Methods(http.MethodGet)
	public.HandleFunc("/mission/start", missionHandler.Start).Methods(http.MethodPost)

	// Mission routes (require a run)
	protected := r.NewRoute().Subrouter()
	protected.Use(flashMiddleware)
	protected.Use(requireRun)
	protected.HandleFunc("/mission", missionHandler.View).Methods(http.MethodGet)
	protected.HandleFunc("/mission/puzzles/{id:[0-9]+}", missionHandler.Act).Methods(http.MethodPost)
	protected.HandleFunc("/mission/portal", missionHandler.Portal).Methods(http.MethodPost)
	protected.HandleFunc("/mission/register", missionHandler.Register).Methods(http.MethodPost)
	protected.HandleFunc("/mission/abandon", missionHandler.Abandon).Methods(http.MethodPost)
	protected.HandleFunc("/mission/events", missionHandler.Events).Methods(http.MethodGet)

	return r
}

func staticFS(dir string) http.FileSystem {
	if dir != "" {
		return http.Dir(dir)
	}
	return http.FS(static.FS)
}
