package pocketbase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single REST call. Realtime streams are not bounded by it.
	DefaultTimeout = 10 * time.Second
	// DefaultReadRetries is how many extra attempts a read gets after a 5xx or transport error.
	DefaultReadRetries = 2
	// DefaultRetryDelay is multiplied by the attempt number between read retries.
	DefaultRetryDelay = 200 * time.Millisecond
)

// Client talks to a PocketBase instance over its REST and realtime APIs.
type Client struct {
	baseURL    string
	http       *http.Client
	stream     *http.Client
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout for REST calls.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithReadRetries sets how many times a failed read is retried and the base delay between attempts.
func WithReadRetries(n int, delay time.Duration) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    DefaultTimeout,
		retries:    DefaultReadRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	// Realtime streams stay open indefinitely, so they use a copy without the timeout.
	streamClient := *c.http
	streamClient.Timeout = 0
	c.stream = &streamClient
	return c
}

// BaseURL returns the service URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type tokenKey struct{}

// WithToken returns a context whose requests are authenticated with token.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the auth token attached by WithToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// send performs one API call and decodes a JSON response into out.
// Reads (GET) are retried on transport errors and 5xx responses; writes never are.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body Payload, out any) error {
	attempts := 1
	if method == http.MethodGet {
		attempts += c.retries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		err := c.do(ctx, method, path, query, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body Payload, out any) error {
	target := c.endpoint(path, query)

	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		var err error
		reader, contentType, err = body.Encode()
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ClientError{URL: target, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ClientError{URL: target, Status: resp.StatusCode, Message: "read response body", Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return newClientError(target, resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ClientError{URL: target, Status: resp.StatusCode, Message: "decode response body", Err: err}
	}
	return nil
}

func collectionPath(collection string, parts ...string) string {
	p := "/api/collections/" + url.PathEscape(collection)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}
