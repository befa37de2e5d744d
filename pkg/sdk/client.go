package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client is the vacmatch API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Ingest submits one batch of extracted postings for a single source.
func (c *Client) Ingest(ctx context.Context, source Source, batch []Candidate) (IngestResult, error) {
	body := struct {
		Source    Source      `json:"source"`
		Vacancies []Candidate `json:"vacancies"`
	}{Source: source, Vacancies: batch}

	var result IngestResult
	if err := c.post(ctx, "/api/v1/vacancies/ingest", body, &result); err != nil {
		return IngestResult{}, err
	}
	return result, nil
}

// Match ranks the corpus for the criteria and returns the window around the
// cursor.
func (c *Client) Match(ctx context.Context, req MatchRequest) (MatchWindow, error) {
	var resp matchResponse
	if err := c.post(ctx, "/api/v1/vacancies/match", req, &resp); err != nil {
		return MatchWindow{}, err
	}
	return resp.Result, nil
}

// LastPublished returns the newest published time the server has ingested
// for a source, or nil when the source is empty. Scrapers use it to bound
// the next fetch window.
func (c *Client) LastPublished(ctx context.Context, source Source) (*time.Time, error) {
	var resp lastPublishedResponse
	path := "/api/v1/sources/" + url.PathEscape(string(source)) + "/last-published"
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.PublishedAt, nil
}

// Health fetches the server health report. A degraded server answers 503
// with a report body; that reports through the returned Health, not through
// the error.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.get(ctx, "/health", &h)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
			return h, nil
		}
		return Health{}, err
	}
	return h, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(data), out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Code = "unknown"
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		// Health reports a body worth decoding even on 503.
		if out != nil {
			_ = json.Unmarshal(raw, out)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
