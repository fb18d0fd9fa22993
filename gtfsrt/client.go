package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client fetches raw feed bytes over HTTP. Fetch failures are expected
// operating conditions; callers degrade to schedule-only output.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a client with the given request timeout. A zero timeout
// defaults to 10 seconds.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// Fetch downloads one feed. An empty URL is not an error; it returns nil
// bytes so optional feeds can be left unconfigured.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gtfsrt: build request for %s: %w", url, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gtfsrt: fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtfsrt: HTTP %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}
