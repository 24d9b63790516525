package sse

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/testutil"
)

func TestWrapForOOBSwap(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		html     string
		expected string
	}{
		{
			name:     "simple content",
			id:       "mission-progress",
			html:     "<p>Hello</p>",
			expected: `<div id="mission-progress" hx-swap-oob="true"><p>Hello</p></div>`,
		},
		{
			name:     "empty content",
			id:       "status",
			html:     "",
			expected: `<div id="status" hx-swap-oob="true"></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WrapForOOBSwap(tt.id, tt.html))
		})
	}
}

func TestRenderer_RenderEvent(t *testing.T) {
	r := NewRenderer()
	ctx := context.Background()

	tests := []struct {
		name      string
		event     model.Event
		eventName string
		contains  string
	}{
		{
			name: "solved updates progress",
			event: model.Event{
				Type:    model.EventPuzzleSolved,
				Payload: model.PuzzleSolvedPayload{Flag: "FLAG{labels}", SolvedCount: 2, Total: 5},
			},
			eventName: EventProgress,
			contains:  "2 / 5 flags",
		},
		{
			name:      "unlock refreshes",
			event:     model.Event{Type: model.EventPuzzleUnlocked, PuzzleID: 3},
			eventName: EventRefresh,
		},
		{
			name: "tick renders clock",
			event: model.Event{
				Type:     model.EventCountdownTick,
				PuzzleID: 5,
				Payload:  model.CountdownTickPayload{Remaining: 75 * time.Second},
			},
			eventName: "countdown-5",
			contains:  "01:15",
		},
		{
			name: "expiry renders message",
			event: model.Event{
				Type:     model.EventCountdownExpired,
				PuzzleID: 5,
				Payload:  model.CountdownExpiredPayload{Message: "Time expired"},
			},
			eventName: "countdown-5",
			contains:  "Time expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.RenderEvent(ctx, tt.event)
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, tt.eventName, out[0].EventName)
			assert.Contains(t, out[0].HTML, tt.contains)
		})
	}
}

func TestRenderer_WrongPayload(t *testing.T) {
	_, err := NewRenderer().RenderEvent(context.Background(), model.Event{
		Type:    model.EventCountdownTick,
		Payload: "nope",
	})
	assert.Error(t, err)
}

func TestBroadcaster_Publish(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	hub := manager.GetOrCreateHub("run1")
	client := NewClient(hub, "run1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	broadcaster.Publish(model.Event{
		Type:     model.EventCountdownTick,
		RunID:    "run1",
		PuzzleID: 5,
		Payload:  model.CountdownTickPayload{Remaining: 9 * time.Second},
	})

	msg := receive(t, client)
	assert.True(t, strings.HasPrefix(msg, "event: countdown-5\n"), msg)
	assert.Contains(t, msg, "00:09")
}

func TestBroadcaster_PublishWithoutListenersIsDropped(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	broadcaster.Publish(model.Event{Type: model.EventPuzzleUnlocked, RunID: "nobody"})
	broadcaster.BroadcastRefresh("nobody")

	assert.Nil(t, manager.GetHub("nobody"))
}

func TestBroadcaster_BroadcastRefresh(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	hub := manager.GetOrCreateHub("run1")
	client := NewClient(hub, "run1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	broadcaster.BroadcastRefresh("run1")

	assert.Equal(t, "event: refresh\ndata: refresh\n\n", receive(t, client))
}
