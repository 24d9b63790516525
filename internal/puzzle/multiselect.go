package puzzle

import (
	"time"

	"github.com/mcoot/mlctf/internal/model"
)

// Gadget is a multi-select option with its ground truth
type Gadget struct {
	Option
	UsesML bool
}

// MultiSelect asks the agent to pick every gadget that uses ML
type MultiSelect struct {
	gadgets []Gadget
}

// NewMultiSelect creates the ML-or-not puzzle
func NewMultiSelect() *MultiSelect {
	return &MultiSelect{
		gadgets: []Gadget{
			{Option: Option{ID: "thermostat", Label: "Smart Thermostat"}, UsesML: true},
			{Option: Option{ID: "netflix", Label: "Streaming Recommender"}, UsesML: true},
			{Option: Option{ID: "camera", Label: "Security Camera"}, UsesML: true},
			{Option: Option{ID: "toaster", Label: "Toaster"}, UsesML: false},
		},
	}
}

func (m *MultiSelect) Kind() model.PuzzleKind { return model.PuzzleKindMultiSelect }

// Gadgets returns the selectable gadgets
func (m *MultiSelect) Gadgets() []Gadget { return m.gadgets }

func (m *MultiSelect) Init(state *model.PuzzleState) {
	state.Selected = make(map[string]bool, len(m.gadgets))
}

func (m *MultiSelect) Apply(state *model.PuzzleState, action Action, _ time.Time) (Outcome, error) {
	switch action.Type {
	case ActionToggle:
		g, ok := m.gadget(action.Item)
		if !ok {
			return Outcome{}, invalidAction(m.Kind(), "unknown gadget %q", action.Item)
		}
		if state.Selected == nil {
			state.Selected = make(map[string]bool)
		}
		if state.Selected[g.ID] {
			delete(state.Selected, g.ID)
			return Outcome{Feedback: g.Label + " deselected."}, nil
		}
		state.Selected[g.ID] = true
		return Outcome{Feedback: g.Label + " selected."}, nil

	case ActionCheck:
		for _, g := range m.gadgets {
			if state.Selected[g.ID] != g.UsesML {
				return Outcome{Feedback: "Not quite. Pick every gadget that learns from data, and nothing else."}, nil
			}
		}
		return Outcome{Correct: true, Solved: true, Feedback: "✅ Correct! Everyday ML is closer than you think."}, nil

	default:
		return Outcome{}, invalidAction(m.Kind(), "unsupported action %q", action.Type)
	}
}

func (m *MultiSelect) gadget(id string) (Gadget, bool) {
	for _, g := range m.gadgets {
		if g.ID == id {
			return g, true
		}
	}
	return Gadget{}, false
}
