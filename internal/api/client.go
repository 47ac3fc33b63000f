package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lmbridge/internal/services"
	"lmbridge/internal/store"
)

// Client talks to a running daemon's HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the API listening on bind (host:port).
func NewClient(bind, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimSpace(bind)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: timeout},
	}
}

// ListProviders implements Host.
func (c *Client) ListProviders(ctx context.Context) ([]Provider, error) {
	var resp ProviderListResponse
	if err := c.do(ctx, http.MethodGet, "/api/providers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Providers, nil
}

// GetProvider implements Host.
func (c *Client) GetProvider(ctx context.Context, id int64) (Provider, error) {
	var resp ProviderResponse
	err := c.do(ctx, http.MethodGet, providerPath(id), nil, &resp)
	return resp.Provider, err
}

// CreateProvider implements Host.
func (c *Client) CreateProvider(ctx context.Context, req ProviderRequest) (ProviderResponse, error) {
	var resp ProviderResponse
	err := c.do(ctx, http.MethodPost, "/api/providers", req, &resp)
	return resp, err
}

// UpdateProvider implements Host.
func (c *Client) UpdateProvider(ctx context.Context, id int64, req ProviderRequest) (ProviderResponse, error) {
	var resp ProviderResponse
	err := c.do(ctx, http.MethodPut, providerPath(id), req, &resp)
	return resp, err
}

// DeleteProvider implements Host.
func (c *Client) DeleteProvider(ctx context.Context, id int64) (Provider, error) {
	var resp ProviderResponse
	err := c.do(ctx, http.MethodDelete, providerPath(id), nil, &resp)
	return resp.Provider, err
}

// MetadataSource implements Host.
func (c *Client) MetadataSource(ctx context.Context) (string, error) {
	var resp MetadataSourceResponse
	err := c.do(ctx, http.MethodGet, "/api/metadata-source", nil, &resp)
	return resp.MetadataSource, err
}

// ReplaceAlbums implements Host.
func (c *Client) ReplaceAlbums(ctx context.Context, albums []store.Album) (int, error) {
	var resp AlbumsResponse
	err := c.do(ctx, http.MethodPut, "/api/albums", AlbumsRequest{Albums: albums}, &resp)
	return resp.Count, err
}

// ListCommands implements Host.
func (c *Client) ListCommands(ctx context.Context, status string) ([]Command, error) {
	path := "/api/commands"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var resp CommandListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Commands, nil
}

// CompleteCommand implements Host.
func (c *Client) CompleteCommand(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/commands/"+url.PathEscape(id)+"/complete", nil, nil)
}

// Reconcile implements Host.
func (c *Client) Reconcile(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/reconcile", nil, nil)
}

// Status implements Host.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var resp Status
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp)
	return resp, err
}

func providerPath(id int64) string {
	return "/api/providers/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "api", "request", "daemon unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}
	if message == "" {
		message = resp.Status
	}

	var marker error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		marker = services.ErrValidation
	case http.StatusNotFound:
		marker = services.ErrNotFound
	case http.StatusConflict:
		marker = services.ErrConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		marker = services.ErrConfiguration
	default:
		marker = services.ErrTransient
	}
	return services.Wrap(marker, "api", "daemon", message, nil)
}
