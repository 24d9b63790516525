package pages

import (
	"github.com/a-h/templ"

	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/web/templates/components"
	"github.com/mcoot/mlctf/internal/web/templates/layout"
	"github.com/mcoot/mlctf/internal/web/templates/markup"
)

// LeaderboardData contains data for the leaderboard page
type LeaderboardData struct {
	layout.PageData
	Records     []*model.CompletionRecord
	Unavailable bool
}

// Leaderboard renders the fastest completions
func Leaderboard(data LeaderboardData) templ.Component {
	return layout.Base(data.PageData, markup.Func(func(m *markup.Writer) {
		m.Raw(`<h1>Leaderboard</h1>`)
		m.Component(components.LeaderboardTable(data.Records, data.Unavailable))
	}))
}
