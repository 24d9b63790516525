package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/mcoot/mlctf/internal/catalog"
	"github.com/mcoot/mlctf/internal/dependencies/mocks"
	"github.com/mcoot/mlctf/internal/flagcodec"
	lbmemory "github.com/mcoot/mlctf/internal/leaderboard/memory"
	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/puzzle"
	"github.com/mcoot/mlctf/internal/services/portal"
	"github.com/mcoot/mlctf/internal/services/session"
	"github.com/mcoot/mlctf/internal/storage"
	"github.com/mcoot/mlctf/internal/storage/memory"
	"github.com/mcoot/mlctf/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Board      *lbmemory.Store
}

// NewTestApp creates an App configured for testing with mocked dependencies,
// the built-in puzzles and an in-memory leaderboard
func NewTestApp() *TestApp {
	return NewTestAppWithCatalog(catalog.Default())
}

// NewTestAppWithCatalog is NewTestApp over a custom puzzle catalog
func NewTestAppWithCatalog(c *catalog.Catalog) *TestApp {
	return newTestApp(c, memory.New())
}

// NewTestAppWithStorage is NewTestApp over the given run and session storage
func NewTestAppWithStorage(store storage.Storage) *TestApp {
	return newTestApp(catalog.Default(), store)
}

func newTestApp(c *catalog.Catalog, store storage.Storage) *TestApp {
	codec := flagcodec.MustNew(flagcodec.DefaultSalt)
	puzzles, err := puzzle.Build(c, codec)
	if err != nil {
		panic(fmt.Sprintf("test catalog: %v", err))
	}

	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	board := lbmemory.New()

	app := newWithDependencies(dependencies{
		store:   store,
		board:   board,
		clock:   mockClock,
		random:  mockRandom,
		codec:   codec,
		puzzles: puzzles,
		session: session.DefaultConfig(),
		portal:  portal.DefaultConfig(),
		logger:  testutil.NopLogger(),
	})

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Board:      board,
	}
}

// QueueIDs queues n distinct random strings so runs, sessions and
// records created afterwards get predictable ids
func (t *TestApp) QueueIDs(prefix string, n int) {
	for i := range n {
		t.MockRandom.Queue(fmt.Sprintf("%s%d", prefix, i+1))
	}
}

// SolveAll plays the known solution for every puzzle in order
func (t *TestApp) SolveAll(ctx context.Context, runID model.RunID) error {
	for _, inst := range t.Controller.Puzzles().All() {
		for _, action := range testutil.Solution(inst.Entry.Kind) {
			if _, err := t.Controller.Act(ctx, runID, inst.ID(), action); err != nil {
				return fmt.Errorf("puzzle %d: %w", inst.ID(), err)
			}
		}
	}
	return nil
}

// Combination is the portal input that accepts a fully solved run
func (t *TestApp) Combination() string {
	return t.Portal.Combination()
}
