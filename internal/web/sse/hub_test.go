package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/mlctf/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "test-event",
			data:      "hello world",
			expected:  "event: test-event\ndata: hello world\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "member-update",
			data:      "<div>\n  <p>line1</p>\n  <p>line2</p>\n</div>",
			expected:  "event: member-update\ndata: <div>\ndata:   <p>line1</p>\ndata:   <p>line2</p>\ndata: </div>\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSSEMessage(tt.eventName, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatSSEMessage(%q, %q)\ngot:  %q\nwant: %q",
					tt.eventName, tt.data, string(result), tt.expected)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single line",
			input:    "hello",
			expected: []string{"hello"},
		},
		{
			name:     "two lines",
			input:    "line1\nline2",
			expected: []string{"line1", "line2"},
		},
		{
			name:     "trailing newline",
			input:    "line1\n",
			expected: []string{"line1"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: []string{""},
		},
		{
			name:     "crlf line endings",
			input:    "line1\r\nline2\r\n",
			expected: []string{"line1", "line2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitLines(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("splitLines(%q) returned %d lines, want %d",
					tt.input, len(result), len(tt.expected))
				return
			}
			for i, line := range result {
				if line != tt.expected[i] {
					t.Errorf("splitLines(%q)[%d] = %q, want %q",
						tt.input, i, line, tt.expected[i])
				}
			}
		})
	}
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub("run1", testutil.NopLogger())
	go hub.Run()
	t.Cleanup(hub.Close)
	return hub
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	assert.Eventually(t, func() bool { return hub.ClientCount() == n },
		time.Second, 5*time.Millisecond, "expected %d clients", n)
}

func receive(t *testing.T, client *Client) string {
	t.Helper()
	select {
	case msg := <-client.send:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
		return ""
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := newTestHub(t)

	client := NewClient(hub, "run1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.BroadcastEvent("test-event", "test data")

	assert.Equal(t, "event: test-event\ndata: test data\n\n", receive(t, client))
}

func TestHub_Unregister(t *testing.T) {
	hub := newTestHub(t)

	client := NewClient(hub, "run1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.Unregister(client)
	waitForClients(t, hub, 0)

	_, open := <-client.send
	assert.False(t, open, "send channel should be closed on unregister")
}

func TestHub_BroadcastToEveryTab(t *testing.T) {
	hub := newTestHub(t)

	tabs := []*Client{NewClient(hub, "run1"), NewClient(hub, "run1"), NewClient(hub, "run1")}
	for _, c := range tabs {
		hub.Register(c)
	}
	waitForClients(t, hub, 3)

	hub.BroadcastEvent("progress", "data")

	for _, c := range tabs {
		assert.Equal(t, "event: progress\ndata: data\n\n", receive(t, c))
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub("run1", testutil.NopLogger())
	go hub.Run()

	client := NewClient(hub, "run1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.Close()
	hub.Close()

	select {
	case _, open := <-client.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("client channel was not closed")
	}

	// Unregister after close must not block
	done := make(chan struct{})
	go func() {
		hub.Unregister(client)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked on a closed hub")
	}
}

func TestHub_RegisterAfterCloseClosesClient(t *testing.T) {
	hub := NewHub("run1", testutil.NopLogger())
	go hub.Run()
	hub.Close()

	client := NewClient(hub, "run1")
	hub.Register(client)

	_, open := <-client.send
	assert.False(t, open)
}

func TestHubManager_GetOrCreateHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()

	hub1 := manager.GetOrCreateHub("run1")
	hub2 := manager.GetOrCreateHub("run1")
	hub3 := manager.GetOrCreateHub("run2")

	assert.Same(t, hub1, hub2)
	assert.NotSame(t, hub1, hub3)
	assert.Same(t, hub1, manager.GetHub("run1"))
	assert.Nil(t, manager.GetHub("run3"))
}

func TestHubManager_RemoveAndCleanup(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()

	manager.GetOrCreateHub("run1")
	busy := manager.GetOrCreateHub("run2")
	client := NewClient(busy, "run2")
	busy.Register(client)
	waitForClients(t, busy, 1)

	manager.RemoveHub("run1")
	assert.Nil(t, manager.GetHub("run1"))

	manager.GetOrCreateHub("run3")
	manager.CleanupEmptyHubs()
	assert.Nil(t, manager.GetHub("run3"))
	assert.NotNil(t, manager.GetHub("run2"))
}
