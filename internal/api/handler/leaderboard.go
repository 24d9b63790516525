package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/mlctf/internal/api/response"
	"github.com/mcoot/mlctf/internal/leaderboard"
	"github.com/mcoot/mlctf/internal/services/portal"
)

// LeaderboardHandler handles the public leaderboard and health endpoints
type LeaderboardHandler struct {
	portal  *portal.Service
	puzzles int
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(portal *portal.Service, puzzles int) *LeaderboardHandler {
	return &LeaderboardHandler{portal: portal, puzzles: puzzles}
}

// List handles GET /api/v1/leaderboard?limit=N
func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := leaderboard.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, NewInvalidRequestError("limit must be a positive number"))
			return
		}
		limit = n
	}

	records, err := h.portal.Leaderboard(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromRecords(records))
}

// Health handles GET /api/v1/health
func (h *LeaderboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{
		Status:      "ok",
		Puzzles:     h.puzzles,
		Leaderboard: h.portal.LeaderboardEnabled(),
	})
}
