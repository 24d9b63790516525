package progression

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mcoot/mlctf/internal/dependencies/clock"
	"github.com/mcoot/mlctf/internal/dependencies/random"
	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/puzzle"
	"github.com/mcoot/mlctf/internal/services/countdown"
	"github.com/mcoot/mlctf/internal/storage"
)

const (
	// RunIDLength is the length of generated run ids
	RunIDLength = 12

	// MaxAliasLength caps agent aliases, in runes
	MaxAliasLength = 32
)

// Publisher receives progression events
type Publisher interface {
	Publish(event model.Event)
}

// Controller owns the unlock rules: puzzle 1 starts unlocked and each later
// puzzle unlocks when its predecessor is solved. All run mutations go
// through the controller and are serialised by it.
type Controller struct {
	storage    storage.Storage
	puzzles    *puzzle.Set
	countdowns *countdown.Manager
	publisher  Publisher
	clock      clock.Clock
	random     random.Random
	logger     *slog.Logger

	mu sync.Mutex
}

// NewController creates a new progression Controller
func NewController(
	storage storage.Storage,
	puzzles *puzzle.Set,
	countdowns *countdown.Manager,
	publisher Publisher,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:    storage,
		puzzles:    puzzles,
		countdowns: countdowns,
		publisher:  publisher,
		clock:      clock,
		random:     random,
		logger:     logger.With(slog.String("component", "progression")),
	}
}

// ActResult is the outcome of one interaction and the run after it
type ActResult struct {
	Run     *model.Run
	Outcome puzzle.Outcome
}

// Puzzles returns the puzzle set in catalog order
func (c *Controller) Puzzles() *puzzle.Set {
	return c.puzzles
}

// Total returns the number of puzzles in the mission
func (c *Controller) Total() int {
	return c.puzzles.Len()
}

// StartRun creates a run with only the first puzzle unlocked
func (c *Controller) StartRun(ctx context.Context, alias string) (*model.Run, error) {
	now := c.clock.Now()
	run := model.NewRun(model.RunID(c.random.ID(RunIDLength)), cleanAlias(alias), now)
	c.unlock(run, 1, now)

	if err := c.storage.SaveRun(ctx, run); err != nil {
		return nil, err
	}

	c.startCountdown(run, 1)
	c.publish(model.EventRunStarted, run.ID, 0, now, nil)
	c.logger.Info("run started",
		slog.String("run_id", string(run.ID)),
		slog.String("alias", run.Alias))
	return run, nil
}

// GetRun retrieves a run by id
func (c *Controller) GetRun(ctx context.Context, id model.RunID) (*model.Run, error) {
	return c.storage.GetRun(ctx, id)
}

// Act applies an action to an unlocked puzzle. A solving action records the
// flag, unlocks the next puzzle and publishes the change.
func (c *Controller) Act(ctx context.Context, runID model.RunID, puzzleID model.PuzzleID, action puzzle.Action) (*ActResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst, ok := c.puzzles.Get(puzzleID)
	if !ok {
		return nil, model.ErrPuzzleNotFound
	}

	run, err := c.storage.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !run.IsUnlocked(puzzleID) {
		return nil, model.ErrPuzzleLocked
	}

	now := c.clock.Now()
	state := run.State(puzzleID)
	if state.UnlockedAt == nil {
		c.unlock(run, puzzleID, now)
	}

	var solved bool
	out, err := inst.Interact(state, action, now, func(flag model.Flag) {
		solved = run.RecordSolve(puzzleID, flag)
	})
	if err != nil {
		return nil, err
	}
	if out.AlreadySolved {
		return &ActResult{Run: run, Outcome: out}, nil
	}

	next := puzzleID + 1
	_, hasNext := c.puzzles.Get(next)
	if solved && hasNext {
		c.unlock(run, next, now)
	}

	run.UpdatedAt = now
	if err := c.storage.SaveRun(ctx, run); err != nil {
		return nil, err
	}

	if solved {
		c.countdowns.Stop(run.ID, puzzleID)
		c.publish(model.EventPuzzleSolved, run.ID, puzzleID, now, model.PuzzleSolvedPayload{
			Flag:        out.Flag,
			SolvedCount: run.SolvedCount(),
			Total:       c.Total(),
		})
		c.logger.Info("puzzle solved",
			slog.String("run_id", string(run.ID)),
			slog.Int("puzzle_id", int(puzzleID)),
			slog.Int("solved", run.SolvedCount()),
			slog.Int("total", c.Total()))

		if hasNext {
			c.startCountdown(run, next)
			c.publish(model.EventPuzzleUnlocked, run.ID, next, now, nil)
		}
	}

	return &ActResult{Run: run, Outcome: out}, nil
}

// ExpireCountdown marks a timed puzzle as expired. The puzzle stays
// solvable; expiry only changes what the agent is shown.
func (c *Controller) ExpireCountdown(ctx context.Context, runID model.RunID, puzzleID model.PuzzleID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, err := c.storage.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run.IsSolved(puzzleID) {
		return nil
	}

	now := c.clock.Now()
	state := run.State(puzzleID)
	state.Expired = true
	run.UpdatedAt = now
	if err := c.storage.SaveRun(ctx, run); err != nil {
		return err
	}

	c.publish(model.EventCountdownExpired, runID, puzzleID, now, model.CountdownExpiredPayload{
		Message: puzzle.ExpiredMessage,
	})
	return nil
}

// Resume restarts countdowns for a run loaded after a restart. The run is
// re-read under the lock so a puzzle solved since the caller loaded it does
// not get its countdown back.
func (c *Controller) Resume(ctx context.Context, runID model.RunID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, err := c.storage.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	for _, inst := range c.puzzles.All() {
		if inst.Duration() > 0 && run.Status(inst.ID()) == model.PuzzleUnlocked {
			c.startCountdown(run, inst.ID())
		}
	}
	return nil
}

// Update applies fn to a run under the controller lock and saves it if fn
// succeeds
func (c *Controller) Update(ctx context.Context, runID model.RunID, fn func(run *model.Run) error) (*model.Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, err := c.storage.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := fn(run); err != nil {
		return nil, err
	}
	run.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// EndRun stops a run's countdowns and deletes it
func (c *Controller) EndRun(ctx context.Context, runID model.RunID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.countdowns.StopRun(runID)
	if err := c.storage.DeleteRun(ctx, runID); err != nil {
		return err
	}
	c.logger.Info("run ended", slog.String("run_id", string(runID)))
	return nil
}

func (c *Controller) unlock(run *model.Run, id model.PuzzleID, now time.Time) {
	inst, ok := c.puzzles.Get(id)
	if !ok {
		return
	}
	state := run.State(id)
	inst.Unit.Init(state)
	unlockedAt := now
	state.UnlockedAt = &unlockedAt
}

func (c *Controller) startCountdown(run *model.Run, id model.PuzzleID) {
	inst, ok := c.puzzles.Get(id)
	if !ok || inst.Duration() == 0 {
		return
	}
	state := run.Puzzles[id]
	if state == nil || state.UnlockedAt == nil || state.Expired {
		return
	}

	deadline := state.UnlockedAt.Add(inst.Duration())
	if !c.clock.Now().Before(deadline) {
		return
	}

	runID := run.ID
	c.countdowns.Start(runID, id, deadline, func() {
		if err := c.ExpireCountdown(context.Background(), runID, id); err != nil {
			c.logger.Warn("failed to mark countdown expired",
				slog.String("run_id", string(runID)),
				slog.Int("puzzle_id", int(id)),
				slog.Any("error", err))
		}
	})
}

func (c *Controller) publish(eventType model.EventType, runID model.RunID, puzzleID model.PuzzleID, now time.Time, payload any) {
	c.publisher.Publish(model.Event{
		Type:      eventType,
		Timestamp: now,
		RunID:     runID,
		PuzzleID:  puzzleID,
		Payload:   payload,
	})
}

func cleanAlias(alias string) string {
	alias = strings.TrimSpace(alias)
	if utf8.RuneCountInString(alias) > MaxAliasLength {
		alias = string([]rune(alias)[:MaxAliasLength])
	}
	return alias
}
