package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/mlctf/internal/leaderboard"
	"github.com/mcoot/mlctf/internal/model"
)

func newStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := New(Config{Endpoint: srv.URL + "/", Key: "anon-key", Timeout: time.Second})
	require.NoError(t, err)
	return store
}

func TestNewRequiresEndpointAndKey(t *testing.T) {
	_, err := New(Config{Endpoint: "https://example.supabase.co"})
	assert.ErrorIs(t, err, leaderboard.ErrNotConfigured)

	_, err = New(Config{Key: "k"})
	assert.ErrorIs(t, err, leaderboard.ErrNotConfigured)
}

func TestInsert(t *testing.T) {
	completed := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)
	var got []model.CompletionRecord

	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/ctf_completions", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusCreated)
	})

	err := store.Insert(context.Background(), &model.CompletionRecord{
		ID:             "c1",
		Name:           "Trinity",
		Email:          "trinity@example.com",
		CompletedAt:    completed,
		Flags:          []model.Flag{"FLAG{labels}"},
		ElapsedSeconds: 321,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Trinity", got[0].Name)
	assert.Equal(t, 321, got[0].ElapsedSeconds)
}

func TestInsertServerError(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusUnauthorized)
	})

	err := store.Insert(context.Background(), &model.CompletionRecord{ID: "c1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestTop(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "completion_time_seconds.asc,completed_at.asc", r.URL.Query().Get("order"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"a","user_name":"Neo","email":"neo@example.com","completed_at":"2024-01-01T12:00:00Z","flags_collected":["FLAG{classifier}"],"completion_time_seconds":60},
			{"id":"b","user_name":"Trinity","email":"t@example.com","completed_at":"2024-01-01T13:00:00Z","flags_collected":[],"completion_time_seconds":90}
		]`))
	})

	top, err := store.Top(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Neo", top[0].Name)
	assert.Equal(t, []model.Flag{"FLAG{classifier}"}, top[0].Flags)
	assert.Equal(t, 90, top[1].ElapsedSeconds)
}

func TestTopMalformedBody(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"oops":true}`))
	})

	_, err := store.Top(context.Background(), 5)
	assert.ErrorIs(t, err, leaderboard.ErrCorruptRecord)
}
