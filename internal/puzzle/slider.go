package puzzle

import (
	"fmt"
	"time"

	"github.com/mcoot/mlctf/internal/catalog"
	"github.com/mcoot/mlctf/internal/model"
)

// Slider unlocks when the dial is set to the model's accuracy
type Slider struct {
	params catalog.SliderParams
}

// NewSlider creates an accuracy lock for the given confusion matrix
func NewSlider(params catalog.SliderParams) *Slider {
	return &Slider{params: params}
}

func (s *Slider) Kind() model.PuzzleKind { return model.PuzzleKindSlider }

// Params returns the dial range and confusion matrix
func (s *Slider) Params() catalog.SliderParams { return s.params }

func (s *Slider) Init(state *model.PuzzleState) {
	state.Dial = s.params.Start
}

// Dial returns the current dial position, defaulting to the start value
func (s *Slider) Dial(state *model.PuzzleState) int {
	if state == nil || state.Dial == 0 {
		return s.params.Start
	}
	return state.Dial
}

func (s *Slider) Apply(state *model.PuzzleState, action Action, _ time.Time) (Outcome, error) {
	if action.Type != ActionSet {
		return Outcome{}, invalidAction(s.Kind(), "unsupported action %q", action.Type)
	}
	if action.Value < s.params.Min || action.Value > s.params.Max {
		return Outcome{}, invalidAction(s.Kind(), "dial %d outside %d..%d", action.Value, s.params.Min, s.params.Max)
	}

	state.Dial = action.Value
	if action.Value == s.params.Accuracy() {
		return Outcome{Correct: true, Solved: true, Feedback: "🔓 Unlocked! Accuracy = (TP + TN) / Total. Great job!"}, nil
	}
	return Outcome{Feedback: fmt.Sprintf("Dial at %d%%. The lock holds.", action.Value)}, nil
}
