package puzzle

import (
	"time"

	"github.com/mcoot/mlctf/internal/model"
)

// DragDrop asks the agent to drop the right dataset on the classification gate
type DragDrop struct {
	datasets []Option
	targets  []Option
	answer   [2]string // target, dataset
}

// NewDragDrop creates the classifier gate puzzle
func NewDragDrop() *DragDrop {
	return &DragDrop{
		datasets: []Option{
			{ID: "spam", Label: "Spam detection (emails)"},
			{ID: "prices", Label: "House prices"},
			{ID: "segments", Label: "Customer segments"},
			{ID: "robot", Label: "Robot navigation"},
		},
		targets: []Option{
			{ID: "classification", Label: "Classification"},
			{ID: "regression", Label: "Regression"},
			{ID: "clustering", Label: "Clustering"},
			{ID: "reinforcement", Label: "Reinforcement"},
		},
		answer: [2]string{"classification", "spam"},
	}
}

func (d *DragDrop) Kind() model.PuzzleKind { return model.PuzzleKindDragDrop }

// Datasets returns the draggable items
func (d *DragDrop) Datasets() []Option { return d.datasets }

// Targets returns the drop gates
func (d *DragDrop) Targets() []Option { return d.targets }

// Hint is shown beside the validate button
func (d *DragDrop) Hint() string { return "Spam → Classification" }

func (d *DragDrop) Init(state *model.PuzzleState) {
	state.Placements = make(map[string]string, len(d.targets))
}

func (d *DragDrop) Apply(state *model.PuzzleState, action Action, _ time.Time) (Outcome, error) {
	switch action.Type {
	case ActionDrop:
		dataset, ok := findOption(d.datasets, action.Item)
		if !ok {
			return Outcome{}, invalidAction(d.Kind(), "unknown dataset %q", action.Item)
		}
		target, ok := findOption(d.targets, action.Target)
		if !ok {
			return Outcome{}, invalidAction(d.Kind(), "unknown gate %q", action.Target)
		}
		if state.Placements == nil {
			state.Placements = make(map[string]string)
		}
		state.Placements[target.ID] = dataset.ID
		return Outcome{Feedback: dataset.Label + " placed on " + target.Label + "."}, nil

	case ActionCheck:
		if state.Placements[d.answer[0]] == d.answer[1] {
			return Outcome{Correct: true, Solved: true, Feedback: "✅ Correct! Flag revealed."}, nil
		}
		return Outcome{Feedback: "Not quite. Which gate assigns labels to inputs?"}, nil

	default:
		return Outcome{}, invalidAction(d.Kind(), "unsupported action %q", action.Type)
	}
}
