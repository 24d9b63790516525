package components

import (
	"strings"

	"github.com/a-h/templ"

	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/web/templates/markup"
)

// Progress shows how many flags have been captured
func Progress(solved, total int) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Raw(`<div id="mission-progress" class="progress">`)
		m.Rawf(`<span class="count">%d / %d flags</span>`, solved, total)
		m.Rawf(`<progress value="%d" max="%d"></progress>`, solved, total)
		m.Raw(`</div>`)
	})
}

// FlagList shows captured flags in the order they were found
func FlagList(flags []model.Flag) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Raw(`<div id="flag-list" class="flags"><h3>Captured flags</h3>`)
		if len(flags) == 0 {
			m.Raw(`<p class="empty">No flags yet.</p></div>`)
			return
		}
		m.Raw(`<ol>`)
		for _, f := range flags {
			m.Rawf(`<li><code>%s</code></li>`, string(f))
		}
		m.Raw(`</ol></div>`)
	})
}

// PortalData describes the completion portal for one run
type PortalData struct {
	Unlocked        bool
	Accepted        bool
	Registered      bool
	Feedback        string
	RegistrationURL string
	Notice          string
	Input           string
	Separator       string
	FlagCount       int
}

// Portal renders the completion portal in whatever stage the run is at
func Portal(data PortalData) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Raw(`<section id="portal" class="portal"><h2>Completion Portal</h2>`)

		switch {
		case !data.Unlocked:
			m.Raw(`<p class="locked">🔒 Capture every flag to open the portal.</p>`)

		case !data.Accepted:
			placeholder := strings.TrimSuffix(strings.Repeat("FLAG{...}"+data.Separator, data.FlagCount), data.Separator)
			m.Raw(`<p>Enter every flag in the order you found them, joined with hyphens.</p>`)
			m.Raw(`<form method="post" action="/mission/portal" hx-post="/mission/portal" hx-target="#portal" hx-swap="outerHTML">`)
			m.Rawf(`<input type="text" name="combination" value="%s" placeholder="%s" autocomplete="off" spellcheck="false" required>`,
				data.Input, placeholder)
			m.Raw(`<button type="submit" class="primary">Submit</button></form>`)
			if data.Feedback != "" {
				m.Rawf(`<p class="feedback" role="alert">%s</p>`, data.Feedback)
			}

		default:
			m.Raw(`<p class="success">🎉 Access granted. Protocol complete, agent.</p>`)
			m.Rawf(`<p><a class="button" href="%s" target="_blank" rel="noreferrer">Open registration</a></p>`,
				data.RegistrationURL)
			if data.Notice != "" {
				m.Rawf(`<p class="notice" role="status">%s</p>`, data.Notice)
			}
			if !data.Registered {
				m.Raw(`<form method="post" action="/mission/register" hx-post="/mission/register" hx-target="#portal" hx-swap="outerHTML" class="register">`)
				m.Raw(`<label>Name <input type="text" name="name" maxlength="80" required></label>`)
				m.Raw(`<label>Email <input type="email" name="email" maxlength="254" required></label>`)
				m.Raw(`<button type="submit">Record my time</button></form>`)
			}
		}
		m.Raw(`</section>`)
	})
}

// LeaderboardTable lists the fastest completions
func LeaderboardTable(records []*model.CompletionRecord, unavailable bool) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Raw(`<div id="leaderboard" class="leaderboard">`)
		if unavailable {
			m.Raw(`<p class="notice">The leaderboard is offline right now.</p>`)
		}
		if len(records) == 0 {
			if !unavailable {
				m.Raw(`<p class="empty">No agents have completed the protocol yet.</p>`)
			}
			m.Raw(`</div>`)
			return
		}
		m.Raw(`<table><thead><tr><th>#</th><th>Agent</th><th>Time</th><th>Flags</th><th>Completed</th></tr></thead><tbody>`)
		for i, r := range records {
			m.Rawf(`<tr><td>%d</td><td class="name">%s</td><td class="time">%s</td><td>%d</td><td>%s</td></tr>`,
				i+1, r.Name, formatClock(r.ElapsedSeconds), len(r.Flags), r.CompletedAt.UTC().Format("2006-01-02 15:04"))
		}
		m.Raw(`</tbody></table></div>`)
	})
}
