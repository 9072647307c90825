// Package listing fetches paginated job listings and accumulates them into
// the in-memory Listing State.
package listing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jobmate/listing-service/internal/model"
)

// DefaultHTTPTimeout applies when NewHTTPSource is given a zero timeout.
const DefaultHTTPTimeout = 15 * time.Second

// PageSource yields the jobs of one listing page.
type PageSource interface {
	FetchPage(ctx context.Context, page int) ([]model.Job, error)
}

// StatusError is returned for any non-2xx listing response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("listing endpoint returned %d: %s", e.Code, e.Body)
}

// HTTPSource fetches pages from GET <base>/jobs?page=<n>.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource constructs a source with its own HTTP client.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchPage performs one GET and extracts the jobs from whichever envelope
// the server used.
func (s *HTTPSource) FetchPage(ctx context.Context, page int) ([]model.Job, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	reqURL := s.baseURL + "/jobs?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	ext, err := ExtractJobs(body)
	if err != nil {
		return nil, err
	}
	if ext.Dropped > 0 {
		slog.Info("dropped listing entries without an id", "page", page, "dropped", ext.Dropped)
	}
	slog.Debug("fetched listing page", "page", page, "shape", ext.Shape.String(), "jobs", len(ext.Jobs))
	return ext.Jobs, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
