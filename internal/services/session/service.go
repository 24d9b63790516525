package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/mlctf/internal/dependencies/clock"
	"github.com/mcoot/mlctf/internal/dependencies/random"
	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/storage"
)

// ErrInvalidSession is returned for unknown or expired tokens
var ErrInvalidSession = errors.New("invalid or expired session")

const (
	tokenPrefix = "sess_"
	tokenLength = 32
)

// RunEnder ends the run behind an expired session
type RunEnder interface {
	EndRun(ctx context.Context, runID model.RunID) error
}

// Service binds session tokens to runs. A run lives as long as its session:
// when an expired token is presented the run is ended with it.
type Service struct {
	storage storage.Storage
	runs    RunEnder
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	sessionDuration time.Duration
}

// Config holds configuration for the session service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new session Service
func New(storage storage.Storage, runs RunEnder, clock clock.Clock, random random.Random, logger *slog.Logger, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         storage,
		runs:            runs,
		clock:           clock,
		random:          random,
		logger:          logger,
		sessionDuration: cfg.SessionDuration,
	}
}

// Create opens a session for a run
func (s *Service) Create(ctx context.Context, runID model.RunID) (*model.Session, error) {
	now := s.clock.Now()
	session := &model.Session{
		Token:     tokenPrefix + s.random.ID(tokenLength),
		RunID:     runID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Validate checks that a token is live and returns its session
func (s *Service) Validate(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	session, err := s.storage.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	if s.clock.Now().After(session.ExpiresAt) {
		if err := s.storage.DeleteSession(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired session", slog.Any("error", err))
		}
		if err := s.runs.EndRun(ctx, session.RunID); err != nil {
			s.logger.Warn("failed to end run of expired session",
				slog.String("run_id", string(session.RunID)),
				slog.Any("error", err))
		}
		return nil, ErrInvalidSession
	}

	return session, nil
}

// Invalidate removes a session
func (s *Service) Invalidate(ctx context.Context, token string) error {
	return s.storage.DeleteSession(ctx, token)
}
