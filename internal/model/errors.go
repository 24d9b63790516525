package model

import "errors"

// Common errors used across the application
var (
	// Run errors
	ErrRunNotFound     = errors.New("run not found")
	ErrSessionNotFound = errors.New("session not found")

	// Puzzle errors
	ErrPuzzleNotFound = errors.New("puzzle not found")
	ErrPuzzleLocked   = errors.New("puzzle is locked")
	ErrInvalidAction  = errors.New("invalid puzzle action")

	// Portal errors
	ErrPortalLocked      = errors.New("portal is locked until every puzzle is solved")
	ErrNotCompleted      = errors.New("run has not passed the portal")
	ErrMissingDetails    = errors.New("name and email are both required")
	ErrInvalidEmail      = errors.New("email address is not valid")
	ErrAlreadyRegistered = errors.New("run is already registered")

	// Leaderboard errors
	ErrLeaderboardUnavailable = errors.New("leaderboard is not configured")

	// Catalog errors
	ErrInvalidCatalog = errors.New("invalid puzzle catalog")
)
