// Package countdown runs the per-run timers of timed puzzles.
package countdown

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/mlctf/internal/dependencies/clock"
	"github.com/mcoot/mlctf/internal/model"
)

// Publisher receives tick events
type Publisher interface {
	Publish(event model.Event)
}

// Config holds countdown settings
type Config struct {
	TickInterval time.Duration
}

// DefaultConfig ticks once a second
func DefaultConfig() Config {
	return Config{TickInterval: time.Second}
}

type key struct {
	runID    model.RunID
	puzzleID model.PuzzleID
}

type entry struct {
	cancel context.CancelFunc
}

// Manager owns one goroutine per live countdown. A countdown ends when it
// expires, when it is stopped, or when the manager shuts down.
type Manager struct {
	clock     clock.Clock
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration

	mu     sync.Mutex
	timers map[key]*entry
	closed bool
	wg     sync.WaitGroup
}

// NewManager creates a Manager
func NewManager(clock clock.Clock, publisher Publisher, logger *slog.Logger, cfg Config) *Manager {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	return &Manager{
		clock:     clock,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "countdown")),
		interval:  cfg.TickInterval,
		timers:    make(map[key]*entry),
	}
}

// Start begins counting down to deadline. onExpire runs once, on the
// countdown goroutine, if the deadline passes before the countdown is
// stopped. Starting a countdown that is already running does nothing.
func (m *Manager) Start(runID model.RunID, puzzleID model.PuzzleID, deadline time.Time, onExpire func()) {
	k := key{runID: runID, puzzleID: puzzleID}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if _, running := m.timers[k]; running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{cancel: cancel}
	m.timers[k] = e
	ticker := m.clock.NewTicker(m.interval)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer ticker.Stop()
		defer m.release(k, e)
		m.run(ctx, k, ticker, deadline, onExpire)
	}()

	m.logger.Info("countdown started",
		slog.String("run_id", string(runID)),
		slog.Int("puzzle_id", int(puzzleID)),
		slog.Time("deadline", deadline))
}

func (m *Manager) run(ctx context.Context, k key, ticker clock.Ticker, deadline time.Time, onExpire func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			now := m.clock.Now()
			remaining := deadline.Sub(now)
			if remaining <= 0 {
				m.logger.Info("countdown expired",
					slog.String("run_id", string(k.runID)),
					slog.Int("puzzle_id", int(k.puzzleID)))
				// Stopped between the tick and now
				if ctx.Err() != nil {
					return
				}
				if onExpire != nil {
					onExpire()
				}
				return
			}
			m.publisher.Publish(model.Event{
				Type:      model.EventCountdownTick,
				Timestamp: now,
				RunID:     k.runID,
				PuzzleID:  k.puzzleID,
				Payload:   model.CountdownTickPayload{Remaining: remaining},
			})
		}
	}
}

// release drops e from the table unless a newer countdown replaced it
func (m *Manager) release(k key, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.cancel()
	if m.timers[k] == e {
		delete(m.timers, k)
	}
}

// Stop cancels one countdown. It does not wait for the goroutine to exit.
func (m *Manager) Stop(runID model.RunID, puzzleID model.PuzzleID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{runID: runID, puzzleID: puzzleID}
	if e, ok := m.timers[k]; ok {
		e.cancel()
		delete(m.timers, k)
	}
}

// StopRun cancels every countdown belonging to a run
func (m *Manager) StopRun(runID model.RunID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.timers {
		if k.runID == runID {
			e.cancel()
			delete(m.timers, k)
		}
	}
}

// Running reports whether a countdown is live
func (m *Manager) Running(runID model.RunID, puzzleID model.PuzzleID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.timers[key{runID: runID, puzzleID: puzzleID}]
	return ok
}

// StopAll cancels every countdown and waits for their goroutines to exit.
// No countdown can be started afterwards.
func (m *Manager) StopAll() {
	m.mu.Lock()
	m.closed = true
	for k, e := range m.timers {
		e.cancel()
		delete(m.timers, k)
	}
	m.mu.Unlock()

	m.wg.Wait()
}
