package sse

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/web/templates/components"
)

// SSE event names the mission page listens for
const (
	EventRefresh  = "refresh"
	EventProgress = "progress"
)

// CountdownEvent is the SSE event name carrying a puzzle's countdown
func CountdownEvent(id model.PuzzleID) string {
	return "countdown-" + strconv.Itoa(int(id))
}

// EventData represents SSE event data
type EventData struct {
	EventName string
	HTML      string
}

// Renderer converts model events to HTML fragments for SSE
type Renderer struct{}

// NewRenderer creates a new Renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// WrapForOOBSwap wraps HTML in a div with hx-swap-oob for out-of-band swaps
func WrapForOOBSwap(id, html string) string {
	return `<div id="` + id + `" hx-swap-oob="true">` + html + `</div>`
}

// RenderEvent converts a progression event into the SSE messages for the
// mission page. Unknown events render nothing.
func (r *Renderer) RenderEvent(ctx context.Context, event model.Event) ([]EventData, error) {
	switch event.Type {
	case model.EventPuzzleSolved:
		p, ok := event.Payload.(model.PuzzleSolvedPayload)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
		}
		html, err := render(ctx, components.Progress(p.SolvedCount, p.Total))
		if err != nil {
			return nil, err
		}
		return []EventData{
			{EventName: EventProgress, HTML: WrapForOOBSwap("mission-progress", html)},
		}, nil

	case model.EventPuzzleUnlocked, model.EventPortalAccepted, model.EventRunStarted:
		return []EventData{{EventName: EventRefresh, HTML: string(event.Type)}}, nil

	case model.EventCountdownTick:
		p, ok := event.Payload.(model.CountdownTickPayload)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
		}
		html, err := render(ctx, components.Countdown(event.PuzzleID, p.Remaining))
		if err != nil {
			return nil, err
		}
		return []EventData{{EventName: CountdownEvent(event.PuzzleID), HTML: html}}, nil

	case model.EventCountdownExpired:
		p, ok := event.Payload.(model.CountdownExpiredPayload)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
		}
		html, err := render(ctx, components.Expired(event.PuzzleID, p.Message))
		if err != nil {
			return nil, err
		}
		return []EventData{{EventName: CountdownEvent(event.PuzzleID), HTML: html}}, nil
	}
	return nil, nil
}

func render(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
