// Package api implements the HTTP envelope shared by every call to the
// marketplace backend: base-URL handling, bearer auth from the session
// store, and the response contract (auth normalization, message
// extraction, empty-body success).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"filedesk/internal/session"
)

var apiTracer = otel.Tracer("filedesk.api")

const maxResponseBytes = 8 << 20

// Client dispatches requests against the marketplace backend. It is
// stateless per invocation; the only shared resource is the injected
// session store, which it never writes.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	sessions       session.Store
	limiter        *rate.Limiter
	requestTimeout time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client (tests, proxies).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRequestTimeout sets the deadline applied when the caller's context
// has none.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

// WithRateLimit paces outgoing requests; zero disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewClient creates an envelope client for the given base URL. The session
// store supplies the bearer token; a store with no session simply means
// unauthenticated requests.
func NewClient(baseURL string, sessions session.Store, opts ...Option) *Client {
	c := &Client{
		httpClient:     &http.Client{},
		baseURL:        strings.TrimRight(baseURL, "/"),
		sessions:       sessions,
		requestTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved base URL the client dispatches against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs one request and interprets the response:
//   - 401/403 fail with ErrUnauthorized no matter what the body says
//   - other non-2xx fail with a StatusError carrying the extracted message
//   - 2xx with an empty body succeeds with a nil payload
//   - 2xx with a non-JSON body logs a warning and succeeds with nil
//   - 2xx with JSON succeeds with the raw payload
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	if _, ok := ctx.Deadline(); !ok && c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	ctx, span := apiTracer.Start(ctx, "api.request", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	))
	defer span.End()

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	c.attachAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		span.SetStatus(codes.Error, "unauthorized")
		return nil, ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := extractMessage(raw, resp.StatusCode)
		span.SetStatus(codes.Error, msg)
		return nil, &StatusError{Status: resp.StatusCode, Message: msg}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		log.Printf("Warning: %s %s returned a non-JSON body, treating as empty", method, path)
		return nil, nil
	}

	return json.RawMessage(raw), nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// DecodeInto unmarshals a payload returned by Do. A nil payload leaves the
// target untouched, mirroring the empty-body success case.
func DecodeInto(raw json.RawMessage, target any) error {
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// attachAuth adds the bearer header when a session exists. A missing
// session is not an error; the request simply goes out unauthenticated.
func (c *Client) attachAuth(req *http.Request) {
	if c.sessions == nil {
		return
	}
	s, err := c.sessions.Current()
	if err != nil || s.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
}

// extractMessage pulls a human-readable failure message out of an error
// body: the JSON message field, else the raw text, else a generic string.
func extractMessage(raw []byte, status int) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return fmt.Sprintf("API Request Failed: %d", status)
}
