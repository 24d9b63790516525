package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/mlctf/internal/leaderboard"
	"github.com/mcoot/mlctf/internal/services/portal"
	"github.com/mcoot/mlctf/internal/web/middleware"
	"github.com/mcoot/mlctf/internal/web/templates/layout"
	"github.com/mcoot/mlctf/internal/web/templates/pages"
)

// LeaderboardHandler renders the fastest completions
type LeaderboardHandler struct {
	portal *portal.Service
}

// NewLeaderboardHandler creates a new LeaderboardHandler
func NewLeaderboardHandler(portal *portal.Service) *LeaderboardHandler {
	return &LeaderboardHandler{portal: portal}
}

// View renders the leaderboard page. An offline leaderboard renders an
// empty table with a notice rather than an error page.
func (h *LeaderboardHandler) View(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.portal.Leaderboard(r.Context(), leaderboard.ClampLimit(limit))

	data := pages.LeaderboardData{
		PageData: layout.PageData{
			Title: "Leaderboard",
			Run:   middleware.GetRun(r.Context()),
			Flash: middleware.GetFlash(r.Context()),
		},
		Records:     records,
		Unavailable: err != nil,
	}

	render(w, r, pages.Leaderboard(data))
}
