// Package client is the REST client of the ordering API. Every response is
// unwrapped from the {data, message, success} envelope and every failure is
// normalized to *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every request
const DefaultTimeout = 10 * time.Second

// HTTPClient is the transport used to send requests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token for outgoing requests
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

// Token implements TokenSource
func (f TokenFunc) Token() string { return f() }

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient HTTPClient
	Tokens     TokenSource
	// OnUnauthorized runs after any 401 response, before the error is returned
	OnUnauthorized func()
	Logger         log.FieldLogger
	// Debug logs request and response bodies
	Debug bool
	// RequestIDs adds an X-Request-ID header to each request
	RequestIDs bool
}

// Client sends requests to the ordering API
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient HTTPClient
	logger     log.FieldLogger
	debug      bool
	requestIDs bool

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized func()
}

// Envelope is the wire shape of every response body
type Envelope struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Success bool            `json:"success"`
	Code    string          `json:"code,omitempty"`
	Details map[string]any  `json:"details,omitempty"`
}

// New creates a new client
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		timeout:        timeout,
		httpClient:     httpClient,
		logger:         logger,
		debug:          opts.Debug,
		requestIDs:     opts.RequestIDs,
		tokens:         opts.Tokens,
		onUnauthorized: opts.OnUnauthorized,
	}
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTokenSource replaces the bearer token source
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

// SetOnUnauthorized replaces the 401 hook
func (c *Client) SetOnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// BuildURL joins path and query onto the base URL
func (c *Client) BuildURL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Get sends a GET request and decodes the envelope data into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put sends a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch sends a PATCH request with a JSON body
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete sends a DELETE request
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do sends a request and decodes the envelope data into out when out is not nil.
// All errors are *APIError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return unknownError(fmt.Errorf("encode request body: %w", err))
		}
		reader = bytes.NewReader(buf)
	}

	target := c.BuildURL(path, query)
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return unknownError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	entry := c.logger.WithFields(log.Fields{"method": method, "path": path})
	if c.requestIDs {
		id := uuid.NewString()
		req.Header.Set("X-Request-ID", id)
		entry = entry.WithField("requestId", id)
	}
	if c.debug {
		entry.WithField("body", body).Debug("API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		entry.WithError(err).Warn("API network error")
		return networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(fmt.Errorf("read response: %w", err))
	}

	var env Envelope
	var decodeErr error
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Message: env.Message,
			Code:    env.Code,
			Details: env.Details,
			Status:  resp.StatusCode,
		}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("Request failed with status %d", resp.StatusCode)
		}
		if apiErr.Code == "" {
			apiErr.Code = HTTPCode(resp.StatusCode)
		}
		if apiErr.Details == nil {
			apiErr.Details = map[string]any{}
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized()
		}
		entry.WithFields(log.Fields{"status": resp.StatusCode, "code": apiErr.Code}).Warn("API error response")
		return apiErr
	}

	if decodeErr != nil {
		return unknownError(fmt.Errorf("decode response: %w", decodeErr))
	}
	if len(raw) > 0 && !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		code := env.Code
		if code == "" {
			code = CodeUnknown
		}
		return &APIError{Message: msg, Code: code, Details: env.Details, Status: resp.StatusCode}
	}

	if c.debug {
		entry.WithField("status", resp.StatusCode).Debug("API response")
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return unknownError(fmt.Errorf("decode response data: %w", err))
	}
	return nil
}

func (c *Client) token() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

func (c *Client) unauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Ping checks that the API is reachable
func (c *Client) Ping(ctx context.Context) error {
	if err := c.Get(ctx, HealthPath, nil, nil); err != nil {
		return fmt.Errorf("ping %s: %w", c.baseURL, err)
	}
	return nil
}
