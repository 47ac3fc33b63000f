package releasefilter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// EndpointPath is appended to the bridge base URL.
	EndpointPath = "/config/release-filter"
	// ContentType is sent with every release filter POST.
	ContentType = "application/json"

	defaultTimeout = 10 * time.Second
)

// Poster delivers a serialized payload to a URL.
type Poster interface {
	Post(ctx context.Context, url string, body []byte, contentType string) error
}

// HTTPDoer describes the HTTP client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts payloads over HTTP.
type Client struct {
	client    HTTPDoer
	userAgent string
}

// NewClient builds a Client with the given request timeout. A non-positive
// timeout uses the default.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{client: &http.Client{Timeout: timeout}, userAgent: userAgent}
}

// NewClientWithDoer wraps an existing HTTP client.
func NewClientWithDoer(doer HTTPDoer, userAgent string) *Client {
	return &Client{client: doer, userAgent: userAgent}
}

// Endpoint returns the release filter URL for a bridge base URL.
func Endpoint(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + EndpointPath
}

// Post sends body to url and treats any non-2xx answer as a failure.
func (c *Client) Post(ctx context.Context, url string, body []byte, contentType string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("release filter client not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build release filter request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post release filter: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if msg := strings.TrimSpace(string(snippet)); msg != "" {
			return fmt.Errorf("release filter returned %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("release filter returned %d", resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
