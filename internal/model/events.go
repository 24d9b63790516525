package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Progression events
	EventRunStarted     EventType = "run_started"
	EventPuzzleSolved   EventType = "puzzle_solved"
	EventPuzzleUnlocked EventType = "puzzle_unlocked"
	EventPortalAccepted EventType = "portal_accepted"

	// Countdown events
	EventCountdownTick    EventType = "countdown_tick"
	EventCountdownExpired EventType = "countdown_expired"
)

// Event is the base structure for all events
type Event struct {
	Type      EventType
	Timestamp time.Time
	RunID     RunID
	PuzzleID  PuzzleID // Zero for run-level events
	Payload   any      // Type-specific data
}

// PuzzleSolvedPayload contains data for puzzle solved events
type PuzzleSolvedPayload struct {
	Flag        Flag
	SolvedCount int
	Total       int
}

// CountdownTickPayload contains data for countdown tick events
type CountdownTickPayload struct {
	Remaining time.Duration
}

// CountdownExpiredPayload contains data for countdown expired events
type CountdownExpiredPayload struct {
	Message string
}
