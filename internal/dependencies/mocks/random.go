package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/mlctf/internal/dependencies/random"
)

// MockRandom hands out queued ids in order. Once the queue is drained it
// falls back to sequential ids ("gen1", "gen2", ...) so unqueued runs and
// sessions never collide.
type MockRandom struct {
	mu        sync.Mutex
	queue     []string
	generated int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// ID returns the next queued id, ignoring length
func (r *MockRandom) ID(_ int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) > 0 {
		id := r.queue[0]
		r.queue = r.queue[1:]
		return id
	}
	r.generated++
	return fmt.Sprintf("gen%d", r.generated)
}

// Queue appends ids to be returned by ID
func (r *MockRandom) Queue(ids ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, ids...)
}

// Pending reports how many queued ids are left
func (r *MockRandom) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}
