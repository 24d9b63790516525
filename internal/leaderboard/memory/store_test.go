package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/mlctf/internal/model"
)

func TestStore_TopOrdersByElapsed(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, elapsed := range []int{300, 90, 150} {
		require.NoError(t, s.Insert(ctx, &model.CompletionRecord{
			ID:             string(rune('a' + i)),
			Name:           "agent",
			Email:          "agent@example.com",
			CompletedAt:    now,
			ElapsedSeconds: elapsed,
		}))
	}

	top, err := s.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 90, top[0].ElapsedSeconds)
	assert.Equal(t, 150, top[1].ElapsedSeconds)

	all, err := s.Top(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_InsertCopiesRecord(t *testing.T) {
	ctx := context.Background()
	s := New()
	rec := &model.CompletionRecord{ID: "a", Flags: []model.Flag{"FLAG{labels}"}}
	require.NoError(t, s.Insert(ctx, rec))

	rec.Flags[0] = "FLAG{tampered}"
	rec.Name = "mallory"

	top, _ := s.Top(ctx, 1)
	assert.Equal(t, []model.Flag{"FLAG{labels}"}, top[0].Flags)
	assert.Empty(t, top[0].Name)
}
