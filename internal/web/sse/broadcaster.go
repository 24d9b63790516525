package sse

import (
	"context"
	"log/slog"

	"github.com/mcoot/mlctf/internal/model"
)

// Broadcaster turns progression events into SSE messages for the run's hub.
// Events for runs with no open stream are dropped.
type Broadcaster struct {
	hubManager *HubManager
	renderer   *Renderer
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		renderer:   NewRenderer(),
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// Publish implements the progression and countdown publisher interfaces
func (b *Broadcaster) Publish(event model.Event) {
	hub := b.hubManager.GetHub(event.RunID)
	if hub == nil {
		return
	}

	messages, err := b.renderer.RenderEvent(context.Background(), event)
	if err != nil {
		b.logger.Error("sse failed to render event",
			slog.String("run_id", string(event.RunID)),
			slog.String("event", string(event.Type)),
			slog.Any("error", err))
		return
	}
	for _, msg := range messages {
		hub.BroadcastEvent(msg.EventName, msg.HTML)
	}
}

// BroadcastRefresh tells every open page for a run to reload its content
func (b *Broadcaster) BroadcastRefresh(runID model.RunID) {
	hub := b.hubManager.GetHub(runID)
	if hub == nil {
		return
	}
	hub.BroadcastEvent(EventRefresh, EventRefresh)
}
