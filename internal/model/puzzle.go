package model

import "time"

// PuzzleID identifies a puzzle by its 1-based position in the catalog
type PuzzleID int

// PuzzleKind names the interaction style of a puzzle
type PuzzleKind string

const (
	PuzzleKindDragDrop    PuzzleKind = "drag_drop"
	PuzzleKindReveal      PuzzleKind = "reveal"
	PuzzleKindSlider      PuzzleKind = "slider"
	PuzzleKindMultiSelect PuzzleKind = "multi_select"
	PuzzleKindTimedBreach PuzzleKind = "timed_breach"
)

// PuzzleStatus is derived from a run's solved set, never stored
type PuzzleStatus string

const (
	PuzzleLocked   PuzzleStatus = "locked"
	PuzzleUnlocked PuzzleStatus = "unlocked"
	PuzzleSolved   PuzzleStatus = "solved"
)

// PuzzleState is the per-run interaction state of one puzzle.
// Each kind uses only the fields relevant to it.
type PuzzleState struct {
	// Drag-drop: target -> dataset
	Placements map[string]string `json:"placements,omitempty"`

	// Multi-select: chosen items
	Selected map[string]bool `json:"selected,omitempty"`

	// Slider dial position; 0 means untouched
	Dial int `json:"dial,omitempty"`

	// Reveal: last dataset scanned with the lens
	Scanned string `json:"scanned,omitempty"`

	// Timed breach
	Shift        int  `json:"shift,omitempty"`
	CipherSolved bool `json:"cipher_solved,omitempty"`
	AuditSolved  bool `json:"audit_solved,omitempty"`
	Expired      bool `json:"expired,omitempty"`

	Solved     bool       `json:"solved"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
	SolvedAt   *time.Time `json:"solved_at,omitempty"`
}

// Clone returns a deep copy of the state
func (s *PuzzleState) Clone() *PuzzleState {
	if s == nil {
		return nil
	}
	c := *s
	if s.UnlockedAt != nil {
		t := *s.UnlockedAt
		c.UnlockedAt = &t
	}
	if s.SolvedAt != nil {
		t := *s.SolvedAt
		c.SolvedAt = &t
	}
	if s.Placements != nil {
		c.Placements = make(map[string]string, len(s.Placements))
		for k, v := range s.Placements {
			c.Placements[k] = v
		}
	}
	if s.Selected != nil {
		c.Selected = make(map[string]bool, len(s.Selected))
		for k, v := range s.Selected {
			c.Selected[k] = v
		}
	}
	return &c
}
