// Package api is the typed client of the point-of-sale REST API.
//
// Every JSON answer is wrapped in the same envelope:
//
//	{"statusCode": 200, "message": "...", "data": ..., "paging": {...}}
//
// Non 2xx answers, and envelopes whose statusCode is not 2xx, are returned as
// *apperror.Error values; transport failures as apperror.KindNetwork.
package api

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
	"time"

	"github.com/goliatone/go-pos-console/apperror"
)

// DefaultTimeout bounds a request when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config holds client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// TokenSource supplies the bearer token of the current session. An empty token
// sends no Authorization header.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenSource sets where the bearer token comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHook is called when an authenticated request is rejected with
// 401 or 403. The session layer uses it to clear the session.
func WithUnauthorizedHook(fn func(ctx context.Context, err error)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to the API.
type Client struct {
	baseURL        string
	userAgent      string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized func(ctx context.Context, err error)
	logger         *slog.Logger
}

// New creates a new API client.
func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "api"))
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Paging is the paging block of a list answer.
type Paging struct {
	TotalElement int  `json:"totalElement"`
	TotalPages   int  `json:"totalPages"`
	Page         int  `json:"page,omitempty"`
	Size         int  `json:"size,omitempty"`
	HasNext      bool `json:"hasNext"`
	HasPrevious  bool `json:"hasPrevious"`
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Paging     *Paging         `json:"paging,omitempty"`
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	accept      string
}

// jsonRequest builds a request whose body is payload encoded as JSON.
func jsonRequest(method, path string, query url.Values, payload any) (request, error) {
	req := request{method: method, path: path, query: query, accept: "application/json"}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return req, fmt.Errorf("marshal request: %w", err)
		}
		req.body = bytes.NewReader(body)
		req.contentType = "application/json"
	}
	return req, nil
}

// send performs req and returns the raw answer. The caller closes the body.
// Non 2xx answers are converted into errors.
func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, req.body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.accept != "" {
		httpReq.Header.Set("Accept", req.accept)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	token := c.token()
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "api request failed", slog.String("method", req.method), slog.String("path", req.path), slog.String("error", err.Error()))
		return nil, apperror.Network(err)
	}

	c.logger.DebugContext(ctx, "api request",
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := apperror.FromStatus(resp.StatusCode, c.errorMessage(ctx, req, resp))
	c.unauthorized(ctx, token != "", apiErr)
	return nil, apiErr
}

// errorMessage reads the envelope message of a failed response. Bodies that
// cannot be read or decoded give an empty message.
func (c *Client) errorMessage(ctx context.Context, req request, resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var env envelope
	if err == nil {
		err = json.Unmarshal(body, &env)
	}
	if err != nil {
		c.logger.DebugContext(ctx, "api error body not decoded",
			slog.String("method", req.method),
			slog.String("path", req.path),
			slog.Int("status", resp.StatusCode),
			slog.String("error", err.Error()))
		return ""
	}
	return env.Message
}

// call performs a JSON request and decodes the envelope's data into out.
func (c *Client) call(ctx context.Context, req request, out any) (*Paging, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if env.StatusCode != 0 {
		if apiErr := apperror.FromStatus(env.StatusCode, env.Message); apiErr != nil {
			c.unauthorized(ctx, c.token() != "", apiErr)
			return nil, apiErr
		}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}
	return env.Paging, nil
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) unauthorized(ctx context.Context, authenticated bool, err error) {
	if authenticated && c.onUnauthorized != nil && apperror.IsUnauthorized(err) {
		c.onUnauthorized(ctx, err)
	}
}
