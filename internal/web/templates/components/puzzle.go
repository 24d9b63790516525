package components

import (
	"fmt"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/puzzle"
	"github.com/mcoot/mlctf/internal/services/progression"
	"github.com/mcoot/mlctf/internal/web/templates/markup"
)

// PuzzleCardID is the DOM id of a puzzle card
func PuzzleCardID(id model.PuzzleID) string {
	return "puzzle-" + strconv.Itoa(int(id))
}

// PuzzleCard renders one puzzle in its current status. outcome is the
// result of the action that produced this render, if any.
func PuzzleCard(view progression.PuzzleView, outcome *puzzle.Outcome) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		inst := view.Instance
		m.Rawf(`<section id="%s" class="puzzle puzzle-%s" data-status="%s">`,
			PuzzleCardID(inst.ID()), string(inst.Entry.Kind), string(view.Status))
		m.Rawf(`<header><span class="puzzle-number">%d</span><h2>%s</h2>`, int(inst.ID()), inst.Entry.Title)
		m.Rawf(`<span class="badge badge-%s">%s</span></header>`, string(view.Status), string(view.Status))

		switch view.Status {
		case model.PuzzleLocked:
			m.Raw(`<p class="locked">🔒 Solve the previous puzzle to unlock this one.</p>`)
		case model.PuzzleSolved:
			renderSolved(m, view)
		default:
			m.Rawf(`<p class="brief">%s</p>`, inst.Entry.Brief)
			if outcome != nil {
				renderOutcome(m, outcome)
			}
			renderControls(m, view)
		}
		m.Raw(`</section>`)
	})
}

func renderSolved(m *markup.Writer, view progression.PuzzleView) {
	m.Rawf(`<p class="flag">🏁 <code>%s</code></p>`, string(view.Instance.Flag()))
	if view.Instance.Entry.FunFact != "" {
		m.Rawf(`<p class="fun-fact">💡 %s</p>`, view.Instance.Entry.FunFact)
	}
}

func renderOutcome(m *markup.Writer, out *puzzle.Outcome) {
	class := "feedback"
	if out.Correct {
		class += " correct"
	}
	if out.Feedback != "" {
		m.Rawf(`<p class="%s" role="status">%s</p>`, class, out.Feedback)
	}
	if out.Expired {
		m.Rawf(`<p class="expired">%s</p>`, puzzle.ExpiredMessage)
	}
}

func renderControls(m *markup.Writer, view progression.PuzzleView) {
	switch unit := view.Instance.Unit.(type) {
	case *puzzle.DragDrop:
		dragDropControls(m, view, unit)
	case *puzzle.Reveal:
		revealControls(m, view, unit)
	case *puzzle.Slider:
		sliderControls(m, view, unit)
	case *puzzle.MultiSelect:
		multiSelectControls(m, view, unit)
	case *puzzle.TimedBreach:
		timedControls(m, view, unit)
	}
}

// openForm starts a form posting one action to the puzzle. Forms work
// without JavaScript and are upgraded by htmx to swap only the card.
func openForm(m *markup.Writer, id model.PuzzleID, action puzzle.ActionType) {
	m.Rawf(`<form class="action" method="post" action="/mission/puzzles/%d" hx-post="/mission/puzzles/%d" hx-target="#%s" hx-swap="outerHTML">`,
		int(id), int(id), PuzzleCardID(id))
	m.Rawf(`<input type="hidden" name="type" value="%s">`, string(action))
}

func dragDropControls(m *markup.Writer, view progression.PuzzleView, unit *puzzle.DragDrop) {
	id := view.Instance.ID()

	m.Raw(`<div class="gates">`)
	for _, target := range unit.Targets() {
		placed := view.State.Placements[target.ID]
		m.Rawf(`<div class="gate" data-target="%s"><strong>%s</strong>`, target.ID, target.Label)
		if placed != "" {
			for _, ds := range unit.Datasets() {
				if ds.ID == placed {
					m.Rawf(`<span class="placed">%s</span>`, ds.Label)
				}
			}
		}
		m.Raw(`</div>`)
	}
	m.Raw(`</div>`)

	openForm(m, id, puzzle.ActionDrop)
	m.Raw(`<label>Dataset <select name="item">`)
	for _, ds := range unit.Datasets() {
		m.Rawf(`<option value="%s">%s</option>`, ds.ID, ds.Label)
	}
	m.Raw(`</select></label><label>Gate <select name="target">`)
	for _, target := range unit.Targets() {
		m.Rawf(`<option value="%s">%s</option>`, target.ID, target.Label)
	}
	m.Raw(`</select></label><button type="submit">Drop</button></form>`)

	openForm(m, id, puzzle.ActionCheck)
	m.Raw(`<button type="submit" class="primary">Check</button></form>`)
	m.Rawf(`<p class="hint">Hint: %s</p>`, unit.Hint())
}

func revealControls(m *markup.Writer, view progression.PuzzleView, unit *puzzle.Reveal) {
	id := view.Instance.ID()

	m.Raw(`<div class="datasets">`)
	for _, ds := range unit.Datasets() {
		scanned := view.State.Scanned == ds.ID
		m.Rawf(`<figure class="dataset" data-dataset="%s">`, ds.ID)
		m.Rawf(`<svg viewBox="0 0 %d %d" class="field" role="img" aria-label="%s">`,
			puzzle.FieldWidth, puzzle.FieldHeight, ds.Title)
		for _, p := range ds.Points {
			class := "point"
			if scanned && p.Labeled {
				class += " labeled"
			}
			m.Rawf(`<circle cx="%d" cy="%d" r="3" class="%s"></circle>`, p.X, p.Y, class)
		}
		m.Raw(`</svg>`)
		m.Rawf(`<figcaption>%s</figcaption>`, ds.Title)

		openForm(m, id, puzzle.ActionScan)
		m.Rawf(`<input type="hidden" name="target" value="%s">`, ds.ID)
		m.Rawf(`<input type="hidden" name="x" value="%d"><input type="hidden" name="y" value="%d">`,
			puzzle.FieldWidth/2, puzzle.FieldHeight/2)
		m.Raw(`<button type="submit">🔍 Scan</button></form>`)

		openForm(m, id, puzzle.ActionChoose)
		m.Rawf(`<input type="hidden" name="target" value="%s">`, ds.ID)
		m.Raw(`<button type="submit" class="primary">Choose</button></form>`)
		m.Raw(`</figure>`)
	}
	m.Raw(`</div>`)
}

func sliderControls(m *markup.Writer, view progression.PuzzleView, unit *puzzle.Slider) {
	id := view.Instance.ID()
	p := unit.Params()

	m.Raw(`<table class="confusion-matrix"><thead><tr><th></th><th>Predicted +</th><th>Predicted −</th></tr></thead><tbody>`)
	m.Rawf(`<tr><th>Actual +</th><td>TP %d</td><td>FN %d</td></tr>`, p.TP, p.FN)
	m.Rawf(`<tr><th>Actual −</th><td>FP %d</td><td>TN %d</td></tr>`, p.FP, p.TN)
	m.Raw(`</tbody></table>`)

	openForm(m, id, puzzle.ActionSet)
	dial := unit.Dial(view.State)
	m.Rawf(`<label>Accuracy dial <input type="range" name="value" min="%d" max="%d" value="%d" oninput="this.nextElementSibling.value=this.value+'%%'">`,
		p.Min, p.Max, dial)
	m.Rawf(`<output>%d%%</output></label>`, dial)
	m.Raw(`<button type="submit" class="primary">Set dial</button></form>`)
}

func multiSelectControls(m *markup.Writer, view progression.PuzzleView, unit *puzzle.MultiSelect) {
	id := view.Instance.ID()

	m.Raw(`<ul class="gadgets">`)
	for _, g := range unit.Gadgets() {
		selected := view.State.Selected[g.ID]
		m.Rawf(`<li data-gadget="%s" class="%s">`, g.ID, selectedClass(selected))
		openForm(m, id, puzzle.ActionToggle)
		m.Rawf(`<input type="hidden" name="item" value="%s">`, g.ID)
		mark := "☐"
		if selected {
			mark = "☑"
		}
		m.Rawf(`<button type="submit" aria-pressed="%t">%s %s</button></form></li>`, selected, mark, g.Label)
	}
	m.Raw(`</ul>`)

	openForm(m, id, puzzle.ActionCheck)
	m.Raw(`<button type="submit" class="primary">Check selection</button></form>`)
}

func selectedClass(selected bool) string {
	if selected {
		return "gadget selected"
	}
	return "gadget"
}

func timedControls(m *markup.Writer, view progression.PuzzleView, unit *puzzle.TimedBreach) {
	id := view.Instance.ID()
	state := view.State

	if state.Expired {
		m.Component(Expired(id, puzzle.ExpiredMessage))
	} else {
		m.Component(Countdown(id, view.Remaining))
	}

	m.Raw(`<div class="stage cipher">`)
	m.Rawf(`<h3>Stage 1: Intercepted transmission</h3><p class="cipher-text"><code>%s</code></p>`, puzzle.CipherText)
	if state.CipherSolved {
		m.Rawf(`<p class="stage-done">✅ Decrypted: <code>%s</code></p>`, puzzle.CipherPlain)
	} else {
		m.Rawf(`<p class="preview">Preview: <code>%s</code></p>`, unit.Preview(state))
		openForm(m, id, puzzle.ActionShift)
		m.Rawf(`<label>Shift <input type="number" name="value" min="0" max="25" value="%d"></label>`, state.Shift)
		m.Raw(`<button type="submit">Apply shift</button></form>`)
		openForm(m, id, puzzle.ActionDecrypt)
		m.Raw(`<button type="submit" class="primary">Decrypt</button></form>`)
	}
	m.Raw(`</div>`)

	m.Raw(`<div class="stage audit"><h3>Stage 2: Code audit</h3>`)
	if !state.CipherSolved {
		m.Raw(`<p class="locked">Decrypt the transmission to open the console.</p>`)
	} else {
		m.Raw(`<ol class="code" start="0">`)
		for i, line := range unit.CodeLines() {
			m.Raw(`<li>`)
			openForm(m, id, puzzle.ActionAudit)
			m.Rawf(`<input type="hidden" name="value" value="%d">`, i)
			m.Rawf(`<button type="submit" class="code-line"><code>%s</code></button></form></li>`, line)
		}
		m.Raw(`</ol>`)
	}
	m.Raw(`</div>`)
}

// Countdown shows the time left on a timed puzzle
func Countdown(id model.PuzzleID, remaining time.Duration) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		secs := int(remaining.Seconds())
		m.Rawf(`<div id="countdown-%d" class="countdown" sse-swap="countdown-%d" hx-swap="outerHTML">⏱ %s</div>`,
			int(id), int(id), formatClock(secs))
	})
}

// Expired replaces the countdown once it reaches zero
func Expired(id model.PuzzleID, message string) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Rawf(`<div id="countdown-%d" class="countdown expired" role="alert">%s</div>`, int(id), message)
	})
}

func formatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
