package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNanoID_ID(t *testing.T) {
	r := New()

	id := r.ID(12)
	assert.Len(t, id, 12)
	for _, c := range id {
		assert.True(t, strings.ContainsRune(IDAlphabet, c), "unexpected rune %q", c)
	}

	assert.Empty(t, r.ID(0))
	assert.Empty(t, r.ID(-3))
}

func TestNanoID_Distinct(t *testing.T) {
	r := New()
	seen := make(map[string]bool)
	for range 200 {
		id := r.ID(16)
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}
