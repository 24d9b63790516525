package memory

import (
	"context"
	"sync"

	"github.com/mcoot/mlctf/internal/leaderboard"
	"github.com/mcoot/mlctf/internal/model"
)

// Store keeps completion records in process memory
type Store struct {
	mu      sync.RWMutex
	records []*model.CompletionRecord
}

// New creates an empty Store
func New() *Store {
	return &Store{}
}

// Ensure Store implements the interface
var _ leaderboard.Store = (*Store)(nil)

func (s *Store) Insert(ctx context.Context, record *model.CompletionRecord) error {
	copied := *record
	copied.Flags = append([]model.Flag(nil), record.Flags...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, &copied)
	return nil
}

func (s *Store) Top(ctx context.Context, n int) ([]*model.CompletionRecord, error) {
	s.mu.RLock()
	ranked := make([]*model.CompletionRecord, 0, len(s.records))
	for _, r := range s.records {
		copied := *r
		ranked = append(ranked, &copied)
	}
	s.mu.RUnlock()

	leaderboard.Rank(ranked)
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}
