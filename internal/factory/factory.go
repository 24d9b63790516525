package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mcoot/mlctf/internal/catalog"
	"github.com/mcoot/mlctf/internal/dependencies/clock"
	"github.com/mcoot/mlctf/internal/dependencies/random"
	"github.com/mcoot/mlctf/internal/flagcodec"
	"github.com/mcoot/mlctf/internal/leaderboard"
	lbmemory "github.com/mcoot/mlctf/internal/leaderboard/memory"
	lbpostgres "github.com/mcoot/mlctf/internal/leaderboard/postgres"
	lbredis "github.com/mcoot/mlctf/internal/leaderboard/redis"
	lbrest "github.com/mcoot/mlctf/internal/leaderboard/rest"
	"github.com/mcoot/mlctf/internal/puzzle"
	"github.com/mcoot/mlctf/internal/services/countdown"
	"github.com/mcoot/mlctf/internal/services/portal"
	"github.com/mcoot/mlctf/internal/services/progression"
	"github.com/mcoot/mlctf/internal/services/session"
	"github.com/mcoot/mlctf/internal/storage"
	"github.com/mcoot/mlctf/internal/storage/memory"
	redisstorage "github.com/mcoot/mlctf/internal/storage/redis"
	"github.com/mcoot/mlctf/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.Storage
	Leaderboard leaderboard.Store // nil when no leaderboard is configured

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Puzzle content
	Codec   *flagcodec.Codec
	Puzzles *puzzle.Set

	// Services
	HubManager  *sse.HubManager
	Broadcaster *sse.Broadcaster
	Countdowns  *countdown.Manager
	Controller  *progression.Controller
	Sessions    *session.Service
	Portal      *portal.Service

	closers []io.Closer
}

// LeaderboardConfig selects where completions are recorded
type LeaderboardConfig struct {
	Backend  leaderboard.Backend
	Endpoint string // database URL for postgres, base URL for rest
	Key      string
	Timeout  time.Duration
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType or
	// the leaderboard backend is "redis")
	RedisConfig *redisstorage.Config
	// SessionConfig defaults to session.DefaultConfig()
	SessionConfig session.Config
	// FlagSalt defaults to flagcodec.DefaultSalt
	FlagSalt string
	// Catalog overrides CatalogPath; both empty means the built-in puzzles
	Catalog     *catalog.Catalog
	CatalogPath string
	// PortalConfig defaults to portal.DefaultConfig()
	PortalConfig portal.Config
	Leaderboard  LeaderboardConfig
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	puzzles, codec, err := buildPuzzles(cfg)
	if err != nil {
		return nil, err
	}

	var closers []io.Closer

	// Create storage based on type
	var store storage.Storage
	var redisClient *goredis.Client
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store = redisStore
		redisClient = redisStore.Client()
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	board, boardCloser, err := newLeaderboard(cfg, redisClient)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	if boardCloser != nil {
		closers = append(closers, boardCloser)
	}

	app := newWithDependencies(dependencies{
		store:   store,
		board:   board,
		clock:   clock.New(),
		random:  random.New(),
		codec:   codec,
		puzzles: puzzles,
		session: cfg.SessionConfig,
		portal:  cfg.PortalConfig,
		logger:  logger,
	})
	app.closers = closers
	return app, nil
}

// Close stops background work and releases backend connections
func (a *App) Close() error {
	a.Countdowns.StopAll()
	a.HubManager.CloseAll()
	return closeAll(a.closers)
}

func buildPuzzles(cfg Config) (*puzzle.Set, *flagcodec.Codec, error) {
	salt := cfg.FlagSalt
	if salt == "" {
		salt = flagcodec.DefaultSalt
	}
	codec, err := flagcodec.New(salt)
	if err != nil {
		return nil, nil, err
	}

	c := cfg.Catalog
	if c == nil && cfg.CatalogPath != "" {
		c, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load catalog: %w", err)
		}
	}
	if c == nil {
		c = catalog.Default()
	}

	puzzles, err := puzzle.Build(c, codec)
	if err != nil {
		return nil, nil, err
	}
	return puzzles, codec, nil
}

// newLeaderboard returns the configured store, or nil for BackendNone.
// The closer is non-nil when the store owns a connection.
func newLeaderboard(cfg Config, shared *goredis.Client) (leaderboard.Store, io.Closer, error) {
	lb := cfg.Leaderboard
	switch lb.Backend {
	case leaderboard.BackendNone, "":
		return nil, nil, nil
	case leaderboard.BackendMemory:
		return lbmemory.New(), nil, nil
	case leaderboard.BackendRedis:
		if shared != nil {
			return lbredis.New(shared), nil, nil
		}
		if cfg.RedisConfig == nil {
			return nil, nil, errors.New("RedisConfig required for the redis leaderboard")
		}
		client, err := redisstorage.Connect(*cfg.RedisConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("connect leaderboard redis: %w", err)
		}
		return lbredis.New(client), client, nil
	case leaderboard.BackendPostgres:
		store, err := lbpostgres.New(lb.Endpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("open leaderboard database: %w", err)
		}
		return store, store, nil
	case leaderboard.BackendREST:
		store, err := lbrest.New(lbrest.Config{Endpoint: lb.Endpoint, Key: lb.Key, Timeout: lb.Timeout})
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown leaderboard backend %q", lb.Backend)
	}
}

type dependencies struct {
	store   storage.Storage
	board   leaderboard.Store
	clock   clock.Clock
	random  random.Random
	codec   *flagcodec.Codec
	puzzles *puzzle.Set
	session session.Config
	portal  portal.Config
	logger  *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(d dependencies) *App {
	portalCfg := d.portal
	if portalCfg.RegistrationURL == "" {
		portalCfg.RegistrationURL = portal.DefaultConfig().RegistrationURL
	}
	if portalCfg.LeaderboardTimeout == 0 {
		portalCfg.LeaderboardTimeout = portal.DefaultConfig().LeaderboardTimeout
	}

	hubManager := sse.NewHubManager(d.logger)
	broadcaster := sse.NewBroadcaster(hubManager, d.logger)
	countdowns := countdown.NewManager(d.clock, broadcaster, d.logger, countdown.DefaultConfig())
	controller := progression.NewController(d.store, d.puzzles, countdowns, broadcaster, d.clock, d.random, d.logger)
	sessions := session.New(d.store, controller, d.clock, d.random, d.logger, d.session)
	portalService := portal.New(controller, d.board, broadcaster, d.clock, d.random, d.logger, portalCfg)

	return &App{
		Storage:     d.store,
		Leaderboard: d.board,
		Clock:       d.clock,
		Random:      d.random,
		Codec:       d.codec,
		Puzzles:     d.puzzles,
		HubManager:  hubManager,
		Broadcaster: broadcaster,
		Countdowns:  countdowns,
		Controller:  controller,
		Sessions:    sessions,
		Portal:      portalService,
	}
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
