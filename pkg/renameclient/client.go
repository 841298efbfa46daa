package renameclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a single request when no client is supplied.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of an error body is kept (1MB).
const maxBodySize = 1 << 20

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// BaseURLFunc returns the server base URL. It is called for every request.
type BaseURLFunc func() string

// Client talks to the inference server.
type Client struct {
	BaseURL BaseURLFunc       // Resolved on every request.
	Client  *http.Client      // HTTP client; falls back to a client with DefaultTimeout.
	Headers map[string]string // Extra headers applied to every request.
	Log     *slog.Logger      // Optional; nil discards.

	clientOnce    sync.Once
	defaultClient *http.Client
}

// New creates a Client. A nil client falls back to one with DefaultTimeout.
func New(baseURL BaseURLFunc, client *http.Client, log *slog.Logger) *Client {
	return &Client{BaseURL: baseURL, Client: client, Log: log}
}

// Static returns a BaseURLFunc that always yields u.
func Static(u string) BaseURLFunc { return func() string { return u } }

// Suggest posts req to /rename/ and returns the paired suggestions.
func (c *Client) Suggest(ctx context.Context, req RenameRequest) ([]Suggestion, error) {
	var resp RenameResponse
	if err := c.doJSON(ctx, http.MethodPost, "/rename/", req, &resp); err != nil {
		return nil, err
	}

	return resp.Pairs()
}

// Ping calls GET / and returns the server's message.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var resp PingResponse
	if err := c.doJSON(ctx, http.MethodGet, "/", nil, &resp); err != nil {
		return "", err
	}

	return resp.Message, nil
}

func (c *Client) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}

	c.clientOnce.Do(func() {
		c.defaultClient = &http.Client{Timeout: DefaultTimeout}
	})

	return c.defaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}

	return slog.New(slog.DiscardHandler)
}

// endpoint joins the current base URL with path.
func (c *Client) endpoint(path string) (string, error) {
	if c.BaseURL == nil {
		return "", fmt.Errorf("no server url configured")
	}

	base := strings.TrimRight(strings.TrimSpace(c.BaseURL()), "/")
	if base == "" {
		return "", fmt.Errorf("no server url configured")
	}

	u, err := url.Parse(base + path)
	if err != nil {
		return "", err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	return u.String(), nil
}

// newRequest builds an *http.Request with the base URL, request ID and custom
// headers already applied.
func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, string, error) {
	u, err := c.endpoint(path)
	if err != nil {
		return nil, "", &RequestError{Err: err}
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, "", &RequestError{Err: fmt.Errorf("marshal payload: %w", err)}
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, "", &RequestError{Err: err}
	}

	id := uuid.NewString()
	req.Header.Set(RequestIDHeader, id)
	req.Header.Set("Accept", "application/json")

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	return req, id, nil
}

// doJSON sends one request, checks for a 2xx status and decodes the body
// into dest. There is no retry: one user action is one request.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, dest any) error {
	req, id, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}

	log := c.logger()
	start := time.Now()

	resp, err := c.httpClient().Do(req) //nolint:gosec // URL is built from the configured server URL
	if err != nil {
		log.DebugContext(ctx, "inference request failed",
			"request_id", id,
			"path", path,
			"duration", time.Since(start),
			"error", err,
		)

		return &NoResponseError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	log.DebugContext(ctx, "inference request",
		"request_id", id,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("renameclient: decode response: %w", err)
	}

	return nil
}
