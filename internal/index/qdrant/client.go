package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nabla-works/ragd/internal/index"
)

// Compile-time check: Store implements index.Store.
var _ index.Store = (*Store)(nil)

const defaultTimeout = 30 * time.Second

// Config holds connection parameters for a Qdrant store.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Store implements index.Store over the Qdrant REST API.
type Store struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewStore creates a Qdrant store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Store{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Ping checks connectivity and credentials by listing collections.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.doRequest(ctx, http.MethodGet, "/collections", nil, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases idle connections.
func (s *Store) Close() {
	s.client.CloseIdleConnections()
}

// WaitForReady polls Ping until the index responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for vector index: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// doRequest performs one API call. A non-nil out receives the decoded
// response body. HTTP statuses are mapped onto the index sentinels.
func (s *Store) doRequest(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", index.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		msg := apiErrorMessage(resp.Body)
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", index.ErrCollectionNotFound, msg)
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: status %d: %s", index.ErrUnavailable, resp.StatusCode, msg)
		default:
			return fmt.Errorf("%w: status %d: %s", index.ErrBadRequest, resp.StatusCode, msg)
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// apiErrorMessage extracts the error string from a Qdrant error body.
func apiErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 32<<10))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}

	var body struct {
		Status struct {
			Error string `json:"error"`
		} `json:"status"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Status.Error != "" {
		return body.Status.Error
	}
	return string(bytes.TrimSpace(raw))
}
