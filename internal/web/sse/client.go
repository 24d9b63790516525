package sse

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mcoot/mlctf/internal/model"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256

	// Reconnect delay suggested to EventSource
	retryMillis = 3000
)

// Client is one open event stream for a run. A run may have several, one
// per browser tab.
type Client struct {
	hub         *Hub
	runID       model.RunID
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new SSE client
func NewClient(hub *Hub, runID model.RunID) *Client {
	return &Client{
		hub:         hub,
		runID:       runID,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ServeSSE streams a run's events until the client disconnects or the hub
// closes
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, runID model.RunID) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Create and register client
	client := NewClient(hub, runID)
	hub.Register(client)

	// Ensure cleanup on disconnect
	defer func() {
		hub.Unregister(client)
	}()

	// Browsers reconnect after retryMillis; the connected event names the
	// run so a resumed tab can check it is still on the same mission
	_, _ = fmt.Fprintf(w, "retry: %d\nevent: connected\ndata: {\"run\":%q}\n\n", retryMillis, runID)
	flusher.Flush()

	// Create ticker for keepalive
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	// Handle client connection
	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			_, err := w.Write(message)
			if err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			// Send keepalive comment
			_, err := w.Write([]byte(": keepalive\n\n"))
			if err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}
