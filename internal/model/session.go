package model

import "time"

// Session binds a browser cookie or API token to a run
type Session struct {
	Token     string    `json:"token"`
	RunID     RunID     `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
