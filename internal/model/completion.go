package model

import "time"

// CompletionRecord is what an agent leaves on the leaderboard after
// passing the portal. Created once per run and never modified.
type CompletionRecord struct {
	ID             string    `json:"id"`
	Name           string    `json:"user_name"`
	Email          string    `json:"email"`
	CompletedAt    time.Time `json:"completed_at"`
	Flags          []Flag    `json:"flags_collected"`
	ElapsedSeconds int       `json:"completion_time_seconds"`
}
