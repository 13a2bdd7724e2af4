// ABOUTME: HTTP client for the sales CRM REST API
// ABOUTME: Applies base URL, timeout, bearer auth, request ids, and the global 401 policy
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
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const DefaultTimeout = 30 * time.Second

// RequestInfo describes one completed request for observers.
type RequestInfo struct {
	RequestID string
	Method    string
	Path      string
	Status    int
	Duration  time.Duration
	Err       error
}

func (r RequestInfo) Failed() bool { return r.Err != nil }

type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
	observer       func(RequestInfo)
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the transport client. Its timeout is kept as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver registers fn to see every completed request.
func WithObserver(fn func(RequestInfo)) Option {
	return func(c *Client) { c.observer = fn }
}

func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// SetToken attaches a bearer token to every subsequent request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) ClearToken() { c.SetToken("") }

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetUnauthorizedHandler installs the hook run on any 401 response. It runs
// before the error is returned to the caller.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) SetObserver(fn func(RequestInfo)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = fn
}

// Do sends one request and returns the raw response body. There is no retry.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	started := time.Now()
	requestID := uuid.NewString()

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	info := RequestInfo{RequestID: requestID, Method: method, Path: path}
	raw, err := c.send(req, &info)
	info.Duration = time.Since(started)
	info.Err = err
	c.observe(info)

	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "status", info.Status, "request_id", requestID, "err", err)
	}
	return raw, err
}

func (c *Client) send(req *http.Request, info *RequestInfo) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: info.Method, Path: info.Path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	info.Status = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: info.Method, Path: info.Path, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.unauthorized()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(info.Method, info.Path, resp.StatusCode, body)
	}
	return json.RawMessage(body), nil
}

func (c *Client) unauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) observe(info RequestInfo) {
	c.mu.RLock()
	fn := c.observer
	c.mu.RUnlock()
	if fn != nil {
		fn(info)
	}
}

// fetch sends a request and decodes the unwrapped payload into out.
// A nil out or an empty body skips decoding.
func (c *Client) fetch(ctx context.Context, method, path string, query url.Values, body, out any) error {
	raw, err := c.Do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || isNull(raw) {
		return nil
	}
	if err := json.Unmarshal(unwrap(raw), out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// IsCanceled reports whether err came from a canceled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
