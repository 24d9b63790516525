package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/mlctf/internal/api"
	"github.com/mcoot/mlctf/internal/config"
	"github.com/mcoot/mlctf/internal/factory"
	"github.com/mcoot/mlctf/internal/leaderboard"
	"github.com/mcoot/mlctf/internal/services/portal"
	"github.com/mcoot/mlctf/internal/services/session"
	redisstorage "github.com/mcoot/mlctf/internal/storage/redis"
	"github.com/mcoot/mlctf/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		Logger:        logger,
		StorageType:   cfg.Storage,
		SessionConfig: session.Config{SessionDuration: cfg.SessionTTL},
		FlagSalt:      cfg.FlagSalt,
		CatalogPath:   cfg.CatalogPath,
		PortalConfig: portal.Config{
			RegistrationURL:    cfg.RegistrationURL,
			LeaderboardTimeout: cfg.LeaderboardTimeout,
		},
		Leaderboard: factory.LeaderboardConfig{
			Backend:  leaderboard.Backend(cfg.LeaderboardBackend),
			Endpoint: cfg.LeaderboardEndpoint,
			Key:      cfg.LeaderboardKey,
			Timeout:  cfg.LeaderboardTimeout,
		},
	}

	if cfg.RedisURL != "" {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.SessionTTL = cfg.SessionTTL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close error", slog.String("error", err.Error()))
		}
	}()

	logger.Info("application ready",
		slog.Int("puzzles", app.Puzzles.Len()),
		slog.String("storage", cfg.Storage),
		slog.String("leaderboard", cfg.LeaderboardBackend),
	)

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:     logger,
		Sessions:   app.Sessions,
		Controller: app.Controller,
		Portal:     app.Portal,
	})

	// An empty StaticDir serves the embedded assets
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:      logger,
		Sessions:    app.Sessions,
		Controller:  app.Controller,
		Portal:      app.Portal,
		HubManager:  app.HubManager,
		Broadcaster: app.Broadcaster,
		StaticDir:   cfg.StaticDir,
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(mux, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			return
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		// Open event streams would otherwise hold Shutdown until its timeout
		app.HubManager.CloseAll()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			return
		}
	}

	logger.Info("server stopped")
}
