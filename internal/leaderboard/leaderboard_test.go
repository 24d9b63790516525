package leaderboard

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mcoot/mlctf/internal/model"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-3))
	assert.Equal(t, 5, ClampLimit(5))
	assert.Equal(t, MaxLimit, ClampLimit(MaxLimit+1))
}

func TestRank(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	records := []*model.CompletionRecord{
		{ID: "slow", ElapsedSeconds: 300, CompletedAt: base},
		{ID: "late-tie", ElapsedSeconds: 120, CompletedAt: base.Add(time.Minute)},
		{ID: "fast", ElapsedSeconds: 60, CompletedAt: base.Add(time.Hour)},
		{ID: "early-tie", ElapsedSeconds: 120, CompletedAt: base},
	}

	Rank(records)

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"fast", "early-tie", "late-tie", "slow"}, ids); diff != "" {
		t.Errorf("rank mismatch (-want +got):\n%s", diff)
	}
}
