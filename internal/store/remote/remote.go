// Package remote delegates document reads and writes to another running
// vault over its /api/db endpoint.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/retry"
	"github.com/MrSnakeDoc/tweetvault/internal/store/persist"
	"github.com/MrSnakeDoc/tweetvault/internal/utils"
)

// DocumentPath is the endpoint serving the whole document.
const DocumentPath = "/api/db"

// StatusError is a non-2xx answer from the owning vault.
type StatusError struct {
	Method string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, DocumentPath, e.Code, e.Body)
}

// IsBusy reports the statuses a busy owner answers with.
func IsBusy(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case http.StatusServiceUnavailable, http.StatusLocked, http.StatusTooManyRequests:
		return true
	}
	return false
}

// Store talks to the vault at baseURL.
type Store struct {
	baseURL string
	client  *http.Client
	policy  retry.Policy
	log     logger.Logger
}

// New returns a remote store. timeout bounds every single request.
func New(baseURL string, timeout time.Duration, r persist.Retry, log logger.Logger) *Store {
	log = log.With(logger.String("store", "remote"), logger.String("url", baseURL))
	return &Store{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		policy:  persist.Policy(r, IsBusy, log),
		log:     log,
	}
}

// Read fetches the document. The owning vault seeds it on first access.
func (s *Store) Read(ctx context.Context) (*domain.Document, error) {
	data, err := retry.DoValue(ctx, s.policy, func(ctx context.Context) ([]byte, error) {
		return s.do(ctx, http.MethodGet, nil)
	})
	if err != nil {
		return nil, persist.Classify("read document", err)
	}

	doc, err := domain.DecodeDocument(data)
	if err != nil {
		return nil, persist.Classify("read document", err)
	}
	return doc, nil
}

func (s *Store) Write(ctx context.Context, doc *domain.Document) error {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return persist.Classify("write document", err)
	}

	_, err = retry.DoValue(ctx, s.policy, func(ctx context.Context) ([]byte, error) {
		return s.do(ctx, http.MethodPost, data)
	})
	return persist.Classify("write document", err)
}

func (s *Store) do(ctx context.Context, method string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+DocumentPath, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, DocumentPath, err)
	}
	defer utils.Close(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Code: resp.StatusCode, Body: truncate(string(data), 200)}
	}
	return data, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
