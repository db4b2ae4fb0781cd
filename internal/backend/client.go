// Package backend is the HTTP client for the Talk2Dom backend API. Every
// call makes a single attempt; failures come back as *FetchError (the backend
// answered with a non-2xx status) or *NetworkError (it did not answer).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiPrefix = "/api/v1"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// Observer is notified after every completed request. status is 0 when no
// response was received.
type Observer func(method, route string, status int, elapsed time.Duration)

// Client talks to the backend on behalf of one credential. Use WithToken to
// derive a client for a specific session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	observe    Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithObserver registers a request observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observe = o
	}
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of the client that authenticates as token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one backend request. route is the path template used for
// metrics; fallback is the static message used when the error body says nothing.
type call struct {
	method   string
	route    string
	path     string
	query    url.Values
	body     any
	fallback string
}

func (c *Client) send(ctx context.Context, cl call) ([]byte, error) {
	target := c.baseURL + apiPrefix + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	op := cl.method + " " + cl.route
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.report(cl, 0, start)
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.report(cl, resp.StatusCode, start)

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := cl.fallback
		if readErr == nil {
			msg = MessageFromBody(body, cl.fallback)
		}
		return nil, &FetchError{Status: resp.StatusCode, Message: msg}
	}
	if readErr != nil {
		return nil, &NetworkError{Op: op, Err: readErr}
	}

	return body, nil
}

func (c *Client) report(cl call, status int, start time.Time) {
	if c.observe != nil {
		c.observe(cl.method, cl.route, status, time.Since(start))
	}
}

// Reachable reports whether the backend answers HTTP at all. Any status
// counts as reachable.
func (c *Client) Reachable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: "GET /", Err: err}
	}
	resp.Body.Close()
	return nil
}

func pathf(format string, segments ...string) string {
	args := make([]any, len(segments))
	for i, s := range segments {
		args[i] = url.PathEscape(s)
	}
	return fmt.Sprintf(format, args...)
}

// decodeWrite decodes a write response. Unlike reads, an undecodable body is
// an error.
func decodeWrite(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
