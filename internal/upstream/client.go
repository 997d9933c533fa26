package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mbeaudoin/rates-relay/internal/model"
)

// Error represents a non-success response from the quote feed.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream error %d: %s", e.StatusCode, e.Message)
}

// Client fetches raw quote snapshots from the exchange's HTTP endpoint.
// Safe for concurrent use by many sessions.
type Client struct {
	url     string
	timeout time.Duration
	logger  *slog.Logger

	mu         sync.Mutex
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new quote feed client.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:     url,
		timeout: 10 * time.Second,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the per-fetch HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// client returns the shared pooled HTTP client, creating it on first use.
func (c *Client) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}
	return c.httpClient
}

// Fetch performs one GET against the quote feed and decodes the snapshot.
// Non-2xx statuses are returned as *Error. There is no in-call retry;
// the next polling cycle retries implicitly.
func (c *Client) Fetch(ctx context.Context) ([]model.RawQuote, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	var records []model.RawQuote
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	c.logger.Debug("fetched quote snapshot",
		"records", len(records),
		"duration", time.Since(start),
	)

	return records, nil
}
