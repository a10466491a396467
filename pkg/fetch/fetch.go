// Package fetch provides the HTTP transport used to pull files from
// Maven repositories: a small Fetcher interface so the resolver can be
// tested against canned responses, and a retrying client implementation.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrNotFound is returned when the repository answers 404 for a URL.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures (timeouts,
	// connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// Fetcher retrieves repository content over HTTP. GET returns the full
// response body; Head reports existence without a body.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
	Head(ctx context.Context, url string) error
}

// Client is a Fetcher backed by net/http with retry on transient
// failures. Redirects are followed; per-request timeouts come from the
// underlying http.Client.
type Client struct {
	http      *http.Client
	userAgent string
	attempts  int
	delay     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithAttempts sets the total attempt count for transient failures.
func WithAttempts(n int) Option {
	return func(c *Client) { c.attempts = n }
}

// NewClient creates a Client. Defaults: 60s request timeout, two
// attempts (one retry) with a one second initial delay.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 60 * time.Second},
		userAgent: "mvn2get/" + "1.0",
		attempts:  2,
		delay:     time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get downloads url and returns the body. A 404 yields ErrNotFound;
// transient failures are retried with exponential backoff.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		body, err = c.get(ctx, url)
		return err
	})
	return body, err
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// The connection dropped mid-body; worth another attempt.
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	return body, nil
}

// Head probes url. It returns nil when the resource exists, ErrNotFound
// on 404 or 308, and ErrNetwork otherwise.
func (c *Client) Head(ctx context.Context, url string) error {
	return Retry(ctx, c.attempts, c.delay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			return &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
		}
		resp.Body.Close()
		return checkStatus(resp.StatusCode)
	})
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound || code == http.StatusPermanentRedirect:
		return ErrNotFound
	case code >= 500 || code == http.StatusTooManyRequests:
		return &RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
