package progression

import (
	"time"

	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/puzzle"
)

// PuzzleView is what an agent may see of one puzzle
type PuzzleView struct {
	Instance  *puzzle.Instance
	Status    model.PuzzleStatus
	State     *model.PuzzleState
	Remaining time.Duration
}

// Views derives the status of every puzzle for a run. Locked puzzles carry
// no state.
func (c *Controller) Views(run *model.Run) []PuzzleView {
	now := c.clock.Now()
	views := make([]PuzzleView, 0, c.puzzles.Len())
	for _, inst := range c.puzzles.All() {
		v := PuzzleView{
			Instance: inst,
			Status:   run.Status(inst.ID()),
		}
		if v.Status != model.PuzzleLocked {
			v.State = run.Puzzles[inst.ID()]
			if v.State == nil {
				v.State = &model.PuzzleState{}
				inst.Unit.Init(v.State)
			}
		}
		if timed, ok := inst.Unit.(*puzzle.TimedBreach); ok && v.Status == model.PuzzleUnlocked {
			v.Remaining = timed.Remaining(v.State, now)
		}
		views = append(views, v)
	}
	return views
}
