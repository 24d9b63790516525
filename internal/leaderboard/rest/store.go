// Package rest talks to a PostgREST-compatible endpoint that exposes the
// completions table, such as a hosted Supabase project.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/mlctf/internal/leaderboard"
	"github.com/mcoot/mlctf/internal/model"
)

// Config locates the REST endpoint
type Config struct {
	// Endpoint is the project base URL, without the /rest/v1 suffix
	Endpoint string
	// Key is sent as both apikey and bearer token
	Key     string
	Timeout time.Duration
}

// Store is an HTTP client for the completions table
type Store struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

var _ leaderboard.Store = (*Store)(nil)

// New creates a Store. Endpoint and Key must both be set.
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Key == "" {
		return nil, fmt.Errorf("%w: endpoint and key are required", leaderboard.ErrNotConfigured)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{
		baseURL: strings.TrimSuffix(cfg.Endpoint, "/") + "/rest/v1/" + leaderboard.Table,
		key:     cfg.Key,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (s *Store) Insert(ctx context.Context, record *model.CompletionRecord) error {
	data, err := json.Marshal([]*model.CompletionRecord{record})
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	_, err = s.do(req)
	return err
}

func (s *Store) Top(ctx context.Context, n int) ([]*model.CompletionRecord, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "completion_time_seconds.asc,completed_at.asc")
	query.Set("limit", strconv.Itoa(n))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	records := []*model.CompletionRecord{}
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", leaderboard.ErrCorruptRecord, err)
	}
	return records, nil
}

func (s *Store) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
