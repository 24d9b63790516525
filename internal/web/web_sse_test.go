package web_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/mlctf/internal/factory"
	"github.com/mcoot/mlctf/internal/puzzle"
	"github.com/mcoot/mlctf/internal/testutil"
)

// streamFor opens the event stream with a short deadline and returns what
// was written before it closed
func (ts *webTestServer) streamFor(d time.Duration) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/mission/events", nil)
	ts.cookies.addTo(req)

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// TestSSE_EndpointHeaders verifies the SSE endpoint returns correct headers
func TestSSE_EndpointHeaders(t *testing.T) {
	ts := newWebTestServer(t)
	ts.startMission("")

	rr := ts.streamFor(100 * time.Millisecond)

	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rr.Header().Get("Connection"))
	assert.Equal(t, "no", rr.Header().Get("X-Accel-Buffering"))
	assert.Contains(t, rr.Body.String(), "retry: 3000\nevent: connected")
	assert.Contains(t, rr.Body.String(), `"run":"`+string(ts.runID())+`"`)
}

// TestSSE_RequiresRun verifies visitors without a run cannot open a stream
func TestSSE_RequiresRun(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/mission/events")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.NotEqual(t, "text/event-stream", rr.Header().Get("Content-Type"))
}

// TestSSE_HubCreatedOnConnect verifies hubs exist only once a page listens
func TestSSE_HubCreatedOnConnect(t *testing.T) {
	ts := newWebTestServer(t)
	ts.startMission("")
	runID := ts.runID()

	assert.Nil(t, ts.app.HubManager.GetHub(runID), "Hub should not exist before SSE connection")
	ts.streamFor(100 * time.Millisecond)
	assert.NotNil(t, ts.app.HubManager.GetHub(runID), "Hub should exist after SSE connection")
}

// TestSSE_SolveStreamsProgress verifies that a solve reaches an open stream
func TestSSE_SolveStreamsProgress(t *testing.T) {
	app := factory.NewTestApp()
	app.QueueIDs("id", 8)
	defer func() { _ = app.Close() }()

	server := httptest.NewServer(newRouter(app))
	defer server.Close()

	// Create a client that doesn't follow redirects
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.PostForm(server.URL+"/mission/start", url.Values{"alias": {"neo"}})
	require.NoError(t, err)
	cookies := resp.Cookies()
	_ = resp.Body.Close()
	require.NotEmpty(t, cookies)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/mission/events", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err = client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "retry: 3000\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "event: connected")

	var token string
	for _, c := range cookies {
		if c.Name == "session" {
			token = c.Value
		}
	}
	sess, err := app.Sessions.Validate(ctx, token)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		hub := app.HubManager.GetHub(sess.RunID)
		return hub != nil && hub.ClientCount() == 1
	}, time.Second, time.Millisecond)

	for _, action := range []puzzle.Action{
		{Type: puzzle.ActionDrop, Item: "spam", Target: "classification"},
		{Type: puzzle.ActionCheck},
	} {
		_, err := app.Controller.Act(ctx, sess.RunID, 1, action)
		require.NoError(t, err)
	}

	var events []string
	for len(events) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "event: "); ok {
			events = append(events, name)
		}
	}
	assert.Contains(t, events, "progress")
	assert.Contains(t, events, "refresh")
}

// TestSSE_ReconnectResumesCountdown verifies a tab reconnecting restarts a
// countdown that was lost, as after a server restart
func TestSSE_ReconnectResumesCountdown(t *testing.T) {
	ts := newWebTestServer(t)
	ts.startMission("")
	runID := ts.runID()

	for _, inst := range ts.app.Puzzles.All()[:4] {
		for _, action := range testutil.Solution(inst.Entry.Kind) {
			_, err := ts.app.Controller.Act(t.Context(), runID, inst.ID(), action)
			require.NoError(t, err)
		}
	}
	require.True(t, ts.app.Countdowns.Running(runID, 5))

	ts.app.Countdowns.StopRun(runID)
	require.False(t, ts.app.Countdowns.Running(runID, 5))

	ts.streamFor(50 * time.Millisecond)

	assert.True(t, ts.app.Countdowns.Running(runID, 5))
}
