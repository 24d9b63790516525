package pages

import (
	"github.com/a-h/templ"

	"github.com/mcoot/mlctf/internal/services/progression"
	"github.com/mcoot/mlctf/internal/web/templates/components"
	"github.com/mcoot/mlctf/internal/web/templates/layout"
	"github.com/mcoot/mlctf/internal/web/templates/markup"
)

// MissionData contains data for the mission page
type MissionData struct {
	layout.PageData
	Views  []progression.PuzzleView
	Total  int
	Portal components.PortalData
}

// Mission renders every puzzle card, the progress bar and the portal. The
// page subscribes to the run's event stream for live updates.
func Mission(data MissionData) templ.Component {
	return layout.Base(data.PageData, markup.Func(func(m *markup.Writer) {
		m.Raw(`<div class="mission" hx-ext="sse" sse-connect="/mission/events">`)
		m.Raw(`<div hx-get="/mission" hx-trigger="sse:refresh" hx-select=".mission" hx-target=".mission" hx-swap="outerHTML"></div>`)

		solved := 0
		if data.Run != nil {
			solved = data.Run.SolvedCount()
		}
		m.Raw(`<div sse-swap="progress" hx-swap="none"></div>`)
		m.Component(components.Progress(solved, data.Total))

		for _, v := range data.Views {
			m.Component(components.PuzzleCard(v, nil))
		}

		if data.Run != nil {
			m.Component(components.FlagList(data.Run.Flags))
		}
		m.Component(components.Portal(data.Portal))
		m.Raw(`</div>`)
	}))
}
