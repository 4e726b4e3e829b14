// Package directory is the client for the backend's user directory and
// invite endpoints.
//
// Every request carries HTTP Basic credentials obtained from the injected
// auth.CredentialProvider. Responses are normalized into User values and a
// small error taxonomy: ErrUnauthenticated, ErrDuplicateInvite and
// *RequestFailedError.
package directory

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

	"golang.org/x/time/rate"

	"github.com/tinyland-inc/alarmchat/pkg/auth"
	"github.com/tinyland-inc/alarmchat/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Config holds directory client configuration.
type Config struct {
	BaseURL string        // e.g. http://localhost:8081
	Timeout time.Duration // per-request timeout, default 10s
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit throttles outgoing requests to rps per second with the given
// burst. A non-positive rps leaves the client unthrottled.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Client talks to the directory and invite endpoints.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	credentials auth.CredentialProvider
	limiter     *rate.Limiter
}

// NewClient creates a directory client. creds may be nil, in which case
// requests are sent without an Authorization header.
func NewClient(cfg Config, creds auth.CredentialProvider, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid directory base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid directory base URL %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:     parsed,
		httpClient:  &http.Client{Timeout: timeout},
		credentials: creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ImageURL resolves a profile picture path against the backend's image
// endpoint. It returns "" for users without a picture.
func (c *Client) ImageURL(profilePicURL string) string {
	if profilePicURL == "" {
		return ""
	}
	return c.baseURL.String() + "/images/" + strings.TrimLeft(profilePicURL, "/")
}

// endpoint joins path segments onto the base URL, escaping each segment.
func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL.String() + "/" + strings.Join(escaped, "/")
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *Client) do(ctx context.Context, method, target, contentType string, body []byte) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.credentials != nil {
		creds, err := c.credentials.Credentials()
		if err != nil {
			return nil, fmt.Errorf("loading credentials: %w", err)
		}
		if h := creds.BasicAuthHeader(); h != "" {
			req.Header.Set("Authorization", h)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	logger.DebugCF("directory", "Request completed", map[string]any{
		"method":      method,
		"path":        req.URL.Path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return &response{status: resp.StatusCode, body: data}, nil
}

// check maps non-2xx responses onto the error taxonomy.
func check(resp *response) error {
	if resp.ok() {
		return nil
	}
	if resp.status == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	return &RequestFailedError{Status: resp.status, Body: strings.TrimSpace(string(resp.body))}
}

// getUsers fetches a user listing. A well-formed JSON payload that is not an
// array is treated as an empty listing.
func (c *Client) getUsers(ctx context.Context, target string) ([]User, error) {
	resp, err := c.do(ctx, http.MethodGet, target, "", nil)
	if err != nil {
		return nil, err
	}
	if err := check(resp); err != nil {
		return nil, err
	}
	return decodeUsers(resp.body)
}

func decodeUsers(body []byte) ([]User, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []User{}, nil
	}

	users := []User{}
	if err := json.Unmarshal(trimmed, &users); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}
	return users, nil
}
