package handler

import (
	"net/http"

	"github.com/mcoot/mlctf/internal/web/middleware"
	"github.com/mcoot/mlctf/internal/web/templates/layout"
	"github.com/mcoot/mlctf/internal/web/templates/pages"
)

// HomeHandler handles the home page
type HomeHandler struct {
	puzzleCount int
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(puzzleCount int) *HomeHandler {
	return &HomeHandler{puzzleCount: puzzleCount}
}

// Home renders the mission briefing
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := pages.HomeData{
		PageData: layout.PageData{
			Title: "Briefing",
			Run:   middleware.GetRun(r.Context()),
			Flash: middleware.GetFlash(r.Context()),
		},
		PuzzleCount: h.puzzleCount,
	}

	render(w, r, pages.Home(data))
}
