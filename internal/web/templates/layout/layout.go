package layout

import (
	"github.com/a-h/templ"

	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/web/templates/markup"
)

// FlashMessage is a one-shot notice carried across a redirect
type FlashMessage struct {
	Type    string // success, error, info
	Message string
}

// PageData is shared by every full page
type PageData struct {
	Title string
	Run   *model.Run
	Flash *FlashMessage
}

// Base wraps page content in the document shell
func Base(data PageData, content templ.Component) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		m.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		m.Rawf(`<title>%s · Quantum Protocol</title>`, data.Title)
		m.Raw(`<link rel="stylesheet" href="/static/css/style.css">`)
		m.Raw(`<script src="https://unpkg.com/htmx.org@2.0.4" defer></script>`)
		m.Raw(`<script src="https://unpkg.com/htmx-ext-sse@2.2.2/sse.js" defer></script>`)
		m.Raw(`</head><body>`)

		m.Raw(`<nav class="nav"><a class="brand" href="/">Quantum Protocol</a><ul>`)
		if data.Run != nil {
			m.Raw(`<li><a href="/mission">Mission</a></li>`)
		}
		m.Raw(`<li><a href="/leaderboard">Leaderboard</a></li></ul>`)
		if data.Run != nil {
			m.Rawf(`<span class="agent">Agent %s</span>`, data.Run.Alias)
		}
		m.Raw(`</nav>`)

		m.Raw(`<main class="container">`)
		if data.Flash != nil {
			m.Rawf(`<div class="flash flash-%s" role="status">%s</div>`, data.Flash.Type, data.Flash.Message)
		}
		m.Component(content)
		m.Raw(`</main></body></html>`)
	})
}
