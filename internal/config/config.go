// Package config loads server settings from MLCTF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/mlctf/internal/leaderboard"
)

// Storage backends for runs and sessions
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// ErrInvalidConfig is returned when settings are inconsistent
var ErrInvalidConfig = errors.New("invalid configuration")

// Server holds everything the server binary needs from its environment
type Server struct {
	Host string `env:"MLCTF_HOST"`
	Port int    `env:"MLCTF_PORT" envDefault:"8080"`

	LogLevel string `env:"MLCTF_LOG_LEVEL" envDefault:"info"`

	Storage  string `env:"MLCTF_STORAGE" envDefault:"memory"`
	RedisURL string `env:"MLCTF_REDIS_URL"`

	SessionTTL time.Duration `env:"MLCTF_SESSION_TTL" envDefault:"24h"`

	FlagSalt    string `env:"MLCTF_FLAG_SALT" envDefault:"quantum-7x"`
	CatalogPath string `env:"MLCTF_CATALOG_PATH"`

	RegistrationURL string `env:"MLCTF_REGISTRATION_URL" envDefault:"https://forms.office.com/r/r66dt5HVSC"`

	LeaderboardBackend  string        `env:"MLCTF_LEADERBOARD_BACKEND" envDefault:"none"`
	LeaderboardEndpoint string        `env:"MLCTF_LEADERBOARD_ENDPOINT"`
	LeaderboardKey      string        `env:"MLCTF_LEADERBOARD_KEY"`
	LeaderboardTimeout  time.Duration `env:"MLCTF_LEADERBOARD_TIMEOUT" envDefault:"5s"`

	StaticDir string `env:"MLCTF_STATIC_DIR"`
}

// Load parses the environment and validates the result
func Load() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	cfg.LeaderboardBackend = strings.ToLower(strings.TrimSpace(cfg.LeaderboardBackend))

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks that each selected backend has what it needs
func (c Server) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: MLCTF_REDIS_URL is required when MLCTF_STORAGE=redis", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	}

	switch leaderboard.Backend(c.LeaderboardBackend) {
	case leaderboard.BackendNone, leaderboard.BackendMemory:
	case leaderboard.BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: MLCTF_REDIS_URL is required for the redis leaderboard", ErrInvalidConfig)
		}
	case leaderboard.BackendPostgres:
		if c.LeaderboardEndpoint == "" {
			return fmt.Errorf("%w: MLCTF_LEADERBOARD_ENDPOINT must hold the database URL", ErrInvalidConfig)
		}
	case leaderboard.BackendREST:
		if c.LeaderboardEndpoint == "" || c.LeaderboardKey == "" {
			return fmt.Errorf("%w: MLCTF_LEADERBOARD_ENDPOINT and MLCTF_LEADERBOARD_KEY are required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown leaderboard backend %q", ErrInvalidConfig, c.LeaderboardBackend)
	}

	if c.FlagSalt == "" {
		return fmt.Errorf("%w: MLCTF_FLAG_SALT must not be empty", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	return nil
}

// Level maps LogLevel onto slog, defaulting to info
func (c Server) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
