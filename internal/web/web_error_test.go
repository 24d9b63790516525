package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlashMessageClearedAfterDisplay(t *testing.T) {
	ts := newWebTestServer(t)
	ts.startMission("")

	doc := parseHTML(ts.get("/mission").Body)
	assertContainsElement(t, doc, ".flash")

	doc = parseHTML(ts.get("/mission").Body)
	assertNotContainsElement(t, doc, ".flash")
}

func TestFlashMessageDisplayedOnError(t *testing.T) {
	ts := newWebTestServer(t)
	ts.startMission("")

	rr := ts.post("/mission/puzzles/2", url.Values{"type": {"check"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, ".flash-error", "still locked")
}

func TestProtectedRoutesRedirectWithoutRun(t *testing.T) {
	ts := newWebTestServer(t)

	for _, path := range []string{"/mission/puzzles/1", "/mission/portal", "/mission/register", "/mission/abandon"} {
		rr := ts.post(path, url.Values{})
		assert.Equal(t, http.StatusSeeOther, rr.Code, path)
		assert.Equal(t, "/", rr.Header().Get("Location"), path)
	}
}

func TestStaleSessionTreatedAsNoRun(t *testing.T) {
	ts := newWebTestServer(t)
	ts.startMission("")
	ts.cookies.cookies["session"].Value = "sess_forged"

	rr := ts.get("/mission")
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.get("/").Body)
	assertContainsElement(t, doc, `form[action="/mission/start"]`)
}

func TestNonNumericPuzzleIDNotFound(t *testing.T) {
	ts := newWebTestServer(t)
	ts.startMission("")

	rr := ts.postHTMX("/mission/puzzles/abc", url.Values{"type": {"check"}})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUnknownRouteNotFound(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/hangar")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStaticFileServing(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/static/css/style.css")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rr.Body.String(), ".puzzle")
}

func TestMissingStaticFileNotFound(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/static/css/missing.css")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
