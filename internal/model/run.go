package model

import (
	"slices"
	"time"
)

// RunID uniquely identifies one attempt at the mission
type RunID string

// Flag is a token of the form FLAG{identifier}
type Flag string

// AnonymousAlias is shown when an agent starts without an alias
const AnonymousAlias = "anonymous"

// Run is the progress of a single visitor through the puzzle sequence.
// It lives only as long as its session.
type Run struct {
	ID    RunID  `json:"id"`
	Alias string `json:"alias"`

	// Solved ids and the flags they produced, in solve order.
	// len(SolvedOrder) == len(Flags) at all times.
	SolvedOrder []PuzzleID `json:"solved_order"`
	Flags       []Flag     `json:"flags"`

	Puzzles map[PuzzleID]*PuzzleState `json:"puzzles"`

	PortalAccepted bool       `json:"portal_accepted"`
	Registered     bool       `json:"registered"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewRun creates a run with empty progress
func NewRun(id RunID, alias string, now time.Time) *Run {
	if alias == "" {
		alias = AnonymousAlias
	}
	return &Run{
		ID:          id,
		Alias:       alias,
		SolvedOrder: []PuzzleID{},
		Flags:       []Flag{},
		Puzzles:     make(map[PuzzleID]*PuzzleState),
		StartedAt:   now,
		UpdatedAt:   now,
	}
}

// IsSolved reports whether the puzzle has been solved in this run
func (r *Run) IsSolved(id PuzzleID) bool {
	return slices.Contains(r.SolvedOrder, id)
}

// IsUnlocked reports whether the puzzle may be interacted with.
// Puzzle 1 is always unlocked; any later puzzle needs its predecessor solved.
func (r *Run) IsUnlocked(id PuzzleID) bool {
	if id <= 1 {
		return id == 1
	}
	return r.IsSolved(id - 1)
}

// Status derives the puzzle status from the solved set
func (r *Run) Status(id PuzzleID) PuzzleStatus {
	switch {
	case r.IsSolved(id):
		return PuzzleSolved
	case r.IsUnlocked(id):
		return PuzzleUnlocked
	default:
		return PuzzleLocked
	}
}

// RecordSolve stores the solve and its flag. Returns false if the puzzle
// was already solved, in which case nothing changes.
func (r *Run) RecordSolve(id PuzzleID, flag Flag) bool {
	if r.IsSolved(id) {
		return false
	}
	// Catalogs never share a flag between puzzles, so a new solve always
	// brings a new flag.
	r.SolvedOrder = append(r.SolvedOrder, id)
	r.Flags = append(r.Flags, flag)
	return true
}

// SolvedCount returns the number of puzzles solved
func (r *Run) SolvedCount() int {
	return len(r.SolvedOrder)
}

// AllSolved reports whether every one of total puzzles is solved
func (r *Run) AllSolved(total int) bool {
	return total > 0 && len(r.SolvedOrder) >= total
}

// State returns the puzzle state, creating it on first use
func (r *Run) State(id PuzzleID) *PuzzleState {
	if r.Puzzles == nil {
		r.Puzzles = make(map[PuzzleID]*PuzzleState)
	}
	s, ok := r.Puzzles[id]
	if !ok {
		s = &PuzzleState{}
		r.Puzzles[id] = s
	}
	return s
}

// Elapsed returns the time from start to portal acceptance
func (r *Run) Elapsed() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Clone returns a deep copy of the run
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}
	c := *r
	c.SolvedOrder = slices.Clone(r.SolvedOrder)
	c.Flags = slices.Clone(r.Flags)
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	c.Puzzles = make(map[PuzzleID]*PuzzleState, len(r.Puzzles))
	for id, s := range r.Puzzles {
		c.Puzzles[id] = s.Clone()
	}
	return &c
}
