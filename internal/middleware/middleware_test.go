package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/mlctf/internal/testutil"
)

func TestLogging_RecordsRequest(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("locked"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/mission/puzzles/2", nil)
	req.Header.Set("HX-Request", "true")
	h.ServeHTTP(httptest.NewRecorder(), req)

	rec := logs.Find("http request")
	require.NotNil(t, rec)
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "/mission/puzzles/2", rec["path"])
	assert.EqualValues(t, http.StatusConflict, rec["status"])
	assert.EqualValues(t, 6, rec["size"])
	assert.Equal(t, true, rec["htmx"])
}

func TestLogging_StaticAtDebug(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	h := Logging(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/static/css/style.css", nil))

	rec := logs.Find("http request")
	require.NotNil(t, rec)
	assert.Equal(t, "DEBUG", rec["level"])
	assert.EqualValues(t, http.StatusOK, rec["status"])
}

func TestLogging_FirstStatusWins(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.EqualValues(t, http.StatusSeeOther, logs.Find("http request")["status"])
}

func TestRecovery_WritesResponse(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	h := Recovery(logger, func(w http.ResponseWriter, _ *http.Request, err any) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(err.(string)))
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/mission", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "boom", rr.Body.String())

	rec := logs.Find("panic recovered")
	require.NotNil(t, rec)
	assert.Equal(t, "boom", rec["error"])
	assert.Equal(t, false, rec["response_started"])
}

func TestRecovery_SkipsStartedResponse(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	called := false
	h := Recovery(logger, func(http.ResponseWriter, *http.Request, any) {
		called = true
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("event: connected\n\n"))
		panic("stream broke")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/mission/events", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, logs.Find("panic recovered")["response_started"])
}

func TestRecovery_ReraisesAbort(t *testing.T) {
	h := Recovery(testutil.NopLogger(), func(http.ResponseWriter, *http.Request, any) {
		t.Fatal("abort must not be handled")
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRecoveryAndLoggingShareWrapper(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, ok := w.(*ResponseWriter)
		assert.True(t, ok)
		_, _ = w.Write([]byte("ok"))
	})
	h := Recovery(logger, func(http.ResponseWriter, *http.Request, any) {})(Logging(logger)(inner))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.EqualValues(t, 2, logs.Find("http request")["size"])
}
