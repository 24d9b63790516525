package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "none", cfg.LeaderboardBackend)
	assert.Equal(t, "quantum-7x", cfg.FlagSalt)
	assert.Equal(t, "https://forms.office.com/r/r66dt5HVSC", cfg.RegistrationURL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5*time.Second, cfg.LeaderboardTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MLCTF_PORT", "9090")
	t.Setenv("MLCTF_STORAGE", "Redis")
	t.Setenv("MLCTF_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("MLCTF_LEADERBOARD_BACKEND", "rest")
	t.Setenv("MLCTF_LEADERBOARD_ENDPOINT", "https://example.supabase.co")
	t.Setenv("MLCTF_LEADERBOARD_KEY", "anon")
	t.Setenv("MLCTF_LOG_LEVEL", "debug")
	t.Setenv("MLCTF_SESSION_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StorageRedis, cfg.Storage)
	assert.Equal(t, "rest", cfg.LeaderboardBackend)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("MLCTF_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	valid := func() Server {
		return Server{
			Port:               8080,
			Storage:            StorageMemory,
			FlagSalt:           "salt",
			LeaderboardBackend: "none",
		}
	}

	for _, tc := range []struct {
		name   string
		mutate func(*Server)
	}{
		{"redis storage without url", func(c *Server) { c.Storage = StorageRedis }},
		{"unknown storage", func(c *Server) { c.Storage = "etcd" }},
		{"redis leaderboard without url", func(c *Server) { c.LeaderboardBackend = "redis" }},
		{"postgres without dsn", func(c *Server) { c.LeaderboardBackend = "postgres" }},
		{"rest without key", func(c *Server) {
			c.LeaderboardBackend = "rest"
			c.LeaderboardEndpoint = "https://example.supabase.co"
		}},
		{"unknown leaderboard", func(c *Server) { c.LeaderboardBackend = "sheets" }},
		{"empty salt", func(c *Server) { c.FlagSalt = "" }},
		{"bad port", func(c *Server) { c.Port = 70000 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	assert.NoError(t, valid().Validate())
}

func TestLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Server{LogLevel: "chatty"}.Level())
	assert.Equal(t, slog.LevelWarn, Server{LogLevel: "warn"}.Level())
}
