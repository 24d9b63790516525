package testutil

import (
	"sync"

	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/puzzle"
)

// Solution returns the actions that solve a puzzle of the given kind
func Solution(kind model.PuzzleKind) []puzzle.Action {
	switch kind {
	case model.PuzzleKindDragDrop:
		return []puzzle.Action{
			{Type: puzzle.ActionDrop, Item: "spam", Target: "classification"},
			{Type: puzzle.ActionCheck},
		}
	case model.PuzzleKindReveal:
		return []puzzle.Action{{Type: puzzle.ActionChoose, Target: "full"}}
	case model.PuzzleKindSlider:
		return []puzzle.Action{{Type: puzzle.ActionSet, Value: 80}}
	case model.PuzzleKindMultiSelect:
		return []puzzle.Action{
			{Type: puzzle.ActionToggle, Item: "thermostat"},
			{Type: puzzle.ActionToggle, Item: "netflix"},
			{Type: puzzle.ActionToggle, Item: "camera"},
			{Type: puzzle.ActionCheck},
		}
	case model.PuzzleKindTimedBreach:
		return []puzzle.Action{
			{Type: puzzle.ActionShift, Value: 5},
			{Type: puzzle.ActionDecrypt},
			{Type: puzzle.ActionAudit, Value: 8},
		}
	default:
		return nil
	}
}

// RecordingPublisher collects published events
type RecordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

// Publish records an event
func (p *RecordingPublisher) Publish(event model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// Events returns a copy of the recorded events
func (p *RecordingPublisher) Events() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Event(nil), p.events...)
}

// Types returns the recorded event types in order
func (p *RecordingPublisher) Types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]model.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}
