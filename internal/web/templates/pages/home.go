package pages

import (
	"github.com/a-h/templ"

	"github.com/mcoot/mlctf/internal/web/templates/layout"
	"github.com/mcoot/mlctf/internal/web/templates/markup"
)

// HomeData contains data for the home page
type HomeData struct {
	layout.PageData
	PuzzleCount int
}

// Home renders the mission briefing and start form
func Home(data HomeData) templ.Component {
	return layout.Base(data.PageData, markup.Func(func(m *markup.Writer) {
		m.Raw(`<section class="hero"><h1>Quantum Protocol</h1>`)
		m.Rawf(`<p>Rogue AI has sealed the city grid. Crack %d machine learning challenges, `+
			`capture a flag from each, and combine them at the portal to restore control.</p>`, data.PuzzleCount)
		m.Raw(`</section>`)

		if data.Run != nil {
			m.Raw(`<section class="resume">`)
			m.Rawf(`<p>Mission in progress for agent <strong>%s</strong>: %d flags captured.</p>`,
				data.Run.Alias, data.Run.SolvedCount())
			m.Raw(`<a class="button primary" href="/mission">Continue mission</a>`)
			m.Raw(`<form method="post" action="/mission/abandon" class="inline">`)
			m.Raw(`<button type="submit" class="danger">Abandon and start over</button></form>`)
			m.Raw(`</section>`)
			return
		}

		m.Raw(`<form method="post" action="/mission/start" class="start">`)
		m.Raw(`<label>Agent alias <input type="text" name="alias" maxlength="32" placeholder="anonymous"></label>`)
		m.Raw(`<button type="submit" class="primary">Start mission</button></form>`)
	}))
}
