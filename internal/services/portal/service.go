package portal

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/mcoot/mlctf/internal/dependencies/clock"
	"github.com/mcoot/mlctf/internal/dependencies/random"
	"github.com/mcoot/mlctf/internal/leaderboard"
	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/services/progression"
)

const (
	// Separator joins the collected flags into the portal combination
	Separator = "-"

	// RecordIDLength is the length of generated completion record ids
	RecordIDLength = 16

	rejectedFeedback = "Access denied. Combine every flag, in the order you found them, separated by hyphens."
	acceptedFeedback = "Access granted. Protocol complete, agent."
)

// Notices shown after registration
const (
	NoticeSaved         = "Registration complete. Your time is on the leaderboard."
	NoticeNotConfigured = "Registration complete. The leaderboard is offline, so your time was not recorded."
	NoticeSaveFailed    = "Registration complete, but your time could not be saved to the leaderboard."
)

// Publisher receives portal events
type Publisher interface {
	Publish(event model.Event)
}

// Config holds portal configuration
type Config struct {
	RegistrationURL    string
	LeaderboardTimeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RegistrationURL:    "https://forms.office.com/r/r66dt5HVSC",
		LeaderboardTimeout: 5 * time.Second,
	}
}

// SubmitResult is the outcome of a combination attempt
type SubmitResult struct {
	Accepted        bool
	Feedback        string
	RegistrationURL string
	Run             *model.Run
}

// RegisterResult is the outcome of a registration
type RegisterResult struct {
	Record *model.CompletionRecord
	Saved  bool
	Notice string
}

// Service checks the combined flag string and records completions
type Service struct {
	runs        *progression.Controller
	leaderboard leaderboard.Store
	publisher   Publisher
	clock       clock.Clock
	random      random.Random
	logger      *slog.Logger
	cfg         Config
}

// New creates a portal Service. A nil store disables the leaderboard.
func New(
	runs *progression.Controller,
	store leaderboard.Store,
	publisher Publisher,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	cfg Config,
) *Service {
	return &Service{
		runs:        runs,
		leaderboard: store,
		publisher:   publisher,
		clock:       clock,
		random:      random,
		logger:      logger.With(slog.String("component", "portal")),
		cfg:         cfg,
	}
}

// Combination is the only string the portal accepts
func (s *Service) Combination() string {
	flags := s.runs.Puzzles().Flags()
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, Separator)
}

// RegistrationURL is where agents go once the portal accepts them
func (s *Service) RegistrationURL() string {
	return s.cfg.RegistrationURL
}

// LeaderboardEnabled reports whether completions are recorded anywhere
func (s *Service) LeaderboardEnabled() bool {
	return s.leaderboard != nil
}

// Submit compares input against the combination. A wrong answer is not an
// error and may be retried without limit.
func (s *Service) Submit(ctx context.Context, runID model.RunID, input string) (*SubmitResult, error) {
	want := s.Combination()
	total := s.runs.Total()
	result := &SubmitResult{}
	newlyAccepted := false

	run, err := s.runs.Update(ctx, runID, func(run *model.Run) error {
		if !run.AllSolved(total) {
			return model.ErrPortalLocked
		}
		if run.PortalAccepted {
			result.Accepted = true
			return nil
		}
		if strings.TrimSpace(input) != want {
			return nil
		}
		now := s.clock.Now()
		run.PortalAccepted = true
		run.CompletedAt = &now
		result.Accepted = true
		newlyAccepted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Run = run
	if !result.Accepted {
		result.Feedback = rejectedFeedback
		s.logger.Debug("portal rejected combination", slog.String("run_id", string(runID)))
		return result, nil
	}

	result.Feedback = acceptedFeedback
	result.RegistrationURL = s.cfg.RegistrationURL
	if newlyAccepted {
		s.publisher.Publish(model.Event{
			Type:      model.EventPortalAccepted,
			Timestamp: *run.CompletedAt,
			RunID:     run.ID,
		})
		s.logger.Info("portal accepted",
			slog.String("run_id", string(run.ID)),
			slog.Duration("elapsed", run.Elapsed()))
	}
	return result, nil
}

// Register records the agent's details once per run. The leaderboard write
// is best effort: failures are logged and reported in the notice.
func (s *Service) Register(ctx context.Context, runID model.RunID, name, email string) (*RegisterResult, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, model.ErrMissingDetails
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidEmail, email)
	}

	var record *model.CompletionRecord
	_, err = s.runs.Update(ctx, runID, func(run *model.Run) error {
		if !run.PortalAccepted || run.CompletedAt == nil {
			return model.ErrNotCompleted
		}
		if run.Registered {
			return model.ErrAlreadyRegistered
		}
		run.Registered = true
		record = &model.CompletionRecord{
			ID:             s.random.ID(RecordIDLength),
			Name:           name,
			Email:          addr.Address,
			CompletedAt:    *run.CompletedAt,
			Flags:          append([]model.Flag(nil), run.Flags...),
			ElapsedSeconds: int(run.Elapsed() / time.Second),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{Record: record}
	if s.leaderboard == nil {
		result.Notice = NoticeNotConfigured
		return result, nil
	}

	insertCtx, cancel := context.WithTimeout(ctx, s.cfg.LeaderboardTimeout)
	defer cancel()
	if err := s.leaderboard.Insert(insertCtx, record); err != nil {
		s.logger.Error("failed to save completion",
			slog.String("run_id", string(runID)),
			slog.String("record_id", record.ID),
			slog.Any("error", err))
		result.Notice = NoticeSaveFailed
		return result, nil
	}

	s.logger.Info("completion saved",
		slog.String("run_id", string(runID)),
		slog.String("record_id", record.ID),
		slog.Int("elapsed_seconds", record.ElapsedSeconds))
	result.Saved = true
	result.Notice = NoticeSaved
	return result, nil
}

// Leaderboard returns the fastest completions. The list is empty, never
// nil, when the store is missing or fails.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*model.CompletionRecord, error) {
	if s.leaderboard == nil {
		return []*model.CompletionRecord{}, model.ErrLeaderboardUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.LeaderboardTimeout)
	defer cancel()
	records, err := s.leaderboard.Top(ctx, leaderboard.ClampLimit(limit))
	if err != nil {
		s.logger.Warn("failed to load leaderboard", slog.Any("error", err))
		return []*model.CompletionRecord{}, fmt.Errorf("%w: %w", model.ErrLeaderboardUnavailable, err)
	}
	return records, nil
}
