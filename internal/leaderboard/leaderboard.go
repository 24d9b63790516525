// Package leaderboard stores completion records and ranks them by time.
package leaderboard

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/mcoot/mlctf/internal/model"
)

const (
	// DefaultLimit is how many entries a leaderboard shows
	DefaultLimit = 10

	// MaxLimit caps a single query
	MaxLimit = 100

	// Table is the name of the completions table in SQL and REST backends
	Table = "ctf_completions"
)

var (
	// ErrCorruptRecord is returned when a stored record cannot be decoded
	ErrCorruptRecord = errors.New("leaderboard record is corrupt")

	// ErrNotConfigured is returned when a backend is missing its settings
	ErrNotConfigured = errors.New("leaderboard backend is not configured")
)

// Backend names a leaderboard implementation
type Backend string

const (
	BackendNone     Backend = "none"
	BackendMemory   Backend = "memory"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
	BackendREST     Backend = "rest"
)

// Store persists completion records
type Store interface {
	// Insert adds a record. Records are never updated.
	Insert(ctx context.Context, record *model.CompletionRecord) error

	// Top returns up to n records, fastest first
	Top(ctx context.Context, n int) ([]*model.CompletionRecord, error)
}

// ClampLimit maps a requested size into 1..MaxLimit, defaulting when unset
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

// Rank sorts records fastest first. Ties go to whoever finished earlier.
func Rank(records []*model.CompletionRecord) {
	slices.SortStableFunc(records, func(a, b *model.CompletionRecord) int {
		return cmp.Or(
			cmp.Compare(a.ElapsedSeconds, b.ElapsedSeconds),
			a.CompletedAt.Compare(b.CompletedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})
}
