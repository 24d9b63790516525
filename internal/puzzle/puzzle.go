// Package puzzle implements the interactive challenges of a mission.
//
// A Unit holds the rules of one kind of challenge and is stateless; all
// per-run progress lives in model.PuzzleState so it can be stored between
// requests. An Instance binds a unit to its catalog entry and canonical flag.
package puzzle

import (
	"fmt"
	"time"

	"github.com/mcoot/mlctf/internal/catalog"
	"github.com/mcoot/mlctf/internal/flagcodec"
	"github.com/mcoot/mlctf/internal/model"
)

// ActionType names an interaction
type ActionType string

const (
	ActionDrop    ActionType = "drop"    // drag-drop: place Item on Target
	ActionCheck   ActionType = "check"   // drag-drop, multi-select: validate
	ActionScan    ActionType = "scan"    // reveal: lens at X,Y over Target
	ActionChoose  ActionType = "choose"  // reveal: pick Target
	ActionSet     ActionType = "set"     // slider: dial to Value
	ActionToggle  ActionType = "toggle"  // multi-select: flip Item
	ActionShift   ActionType = "shift"   // timed: cipher shift to Value
	ActionDecrypt ActionType = "decrypt" // timed: confirm decryption
	ActionAudit   ActionType = "audit"   // timed: mark code line Value
)

// Action is a single interaction with a puzzle
type Action struct {
	Type   ActionType `json:"type"`
	Item   string     `json:"item,omitempty"`
	Target string     `json:"target,omitempty"`
	Value  int        `json:"value,omitempty"`
	X      int        `json:"x,omitempty"`
	Y      int        `json:"y,omitempty"`
}

// Outcome is the result of an interaction. A wrong answer is an outcome
// with Correct unset, not an error.
type Outcome struct {
	Correct       bool       `json:"correct"`
	Solved        bool       `json:"solved"`
	AlreadySolved bool       `json:"already_solved,omitempty"`
	Expired       bool       `json:"expired,omitempty"`
	Feedback      string     `json:"feedback,omitempty"`
	Flag          model.Flag `json:"flag,omitempty"`
}

// Unit is the rule set for one kind of puzzle
type Unit interface {
	Kind() model.PuzzleKind

	// Init prepares a fresh state when the puzzle unlocks
	Init(state *model.PuzzleState)

	// Apply handles one action, mutating state. Solved in the returned
	// outcome means the puzzle's goal has just been met.
	Apply(state *model.PuzzleState, action Action, now time.Time) (Outcome, error)
}

// Timed is implemented by units with a countdown from unlock
type Timed interface {
	Duration() time.Duration
}

// Instance is a unit placed in the catalog with its canonical flag
type Instance struct {
	Entry catalog.Entry
	Unit  Unit
	flag  model.Flag
}

// ID returns the catalog position
func (i *Instance) ID() model.PuzzleID {
	return i.Entry.ID
}

// Flag returns the decoded canonical flag
func (i *Instance) Flag() model.Flag {
	return i.flag
}

// Duration returns the countdown length, or zero for untimed puzzles
func (i *Instance) Duration() time.Duration {
	if t, ok := i.Unit.(Timed); ok {
		return t.Duration()
	}
	return 0
}

// Interact applies an action and calls onSolved exactly once, on the action
// that solves the puzzle. Interacting with a solved puzzle changes nothing.
func (i *Instance) Interact(state *model.PuzzleState, action Action, now time.Time, onSolved func(model.Flag)) (Outcome, error) {
	if state.Solved {
		return Outcome{Solved: true, AlreadySolved: true, Feedback: "Already solved."}, nil
	}

	out, err := i.Unit.Apply(state, action, now)
	if err != nil {
		return Outcome{}, err
	}

	if out.Solved {
		state.Solved = true
		solvedAt := now
		state.SolvedAt = &solvedAt
		out.Flag = i.flag
		if onSolved != nil {
			onSolved(i.flag)
		}
	}
	return out, nil
}

// Set is the full list of instances for a catalog
type Set struct {
	instances []*Instance
}

// Build creates an instance for every catalog entry, decoding each flag
func Build(c *catalog.Catalog, codec *flagcodec.Codec) (*Set, error) {
	flags, err := c.CanonicalFlags(codec)
	if err != nil {
		return nil, fmt.Errorf("decode catalog flags: %w", err)
	}

	set := &Set{instances: make([]*Instance, 0, c.Len())}
	for idx, e := range c.Puzzles {
		unit, err := newUnit(e)
		if err != nil {
			return nil, err
		}
		set.instances = append(set.instances, &Instance{Entry: e, Unit: unit, flag: flags[idx]})
	}
	return set, nil
}

func newUnit(e catalog.Entry) (Unit, error) {
	switch e.Kind {
	case model.PuzzleKindDragDrop:
		return NewDragDrop(), nil
	case model.PuzzleKindReveal:
		return NewReveal(), nil
	case model.PuzzleKindSlider:
		if e.Slider == nil {
			return nil, fmt.Errorf("%w: puzzle %d needs slider parameters", model.ErrInvalidCatalog, e.ID)
		}
		return NewSlider(*e.Slider), nil
	case model.PuzzleKindMultiSelect:
		return NewMultiSelect(), nil
	case model.PuzzleKindTimedBreach:
		if e.Timed == nil {
			return nil, fmt.Errorf("%w: puzzle %d needs a countdown", model.ErrInvalidCatalog, e.ID)
		}
		return NewTimedBreach(time.Duration(e.Timed.Seconds) * time.Second), nil
	default:
		return nil, fmt.Errorf("%w: puzzle %d has unknown kind %q", model.ErrInvalidCatalog, e.ID, e.Kind)
	}
}

// Len returns the number of puzzles
func (s *Set) Len() int {
	return len(s.instances)
}

// Get returns the instance for id
func (s *Set) Get(id model.PuzzleID) (*Instance, bool) {
	if id < 1 || int(id) > len(s.instances) {
		return nil, false
	}
	return s.instances[id-1], true
}

// All returns the instances in catalog order
func (s *Set) All() []*Instance {
	return s.instances
}

// Flags returns the canonical flags in catalog order
func (s *Set) Flags() []model.Flag {
	flags := make([]model.Flag, 0, len(s.instances))
	for _, inst := range s.instances {
		flags = append(flags, inst.flag)
	}
	return flags
}

func invalidAction(kind model.PuzzleKind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", model.ErrInvalidAction, kind, fmt.Sprintf(format, args...))
}

// Option is a selectable item shown by a puzzle
type Option struct {
	ID    string
	Label string
}

func findOption(options []Option, id string) (Option, bool) {
	for _, o := range options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}
