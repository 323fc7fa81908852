package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultUserAgent = "schedule-notifier/1.0"
	maxBodyBytes     = 8 << 20
)

// StatusError is returned when the league site answers with a non-2xx status
type StatusError struct {
	MatchID    int64
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("match %d: upstream returned status %d", e.MatchID, e.StatusCode)
}

// Client fetches match logs from the league site ajax endpoint
type Client struct {
	baseURL   string
	userAgent string
	retries   int
	retryWait time.Duration
	http      *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetry sets the attempt count and the initial backoff
func WithRetry(attempts int, wait time.Duration) Option {
	return func(c *Client) {
		c.retries = attempts
		c.retryWait = wait
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a client for the site rooted at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/") + "/",
		userAgent: defaultUserAgent,
		retries:   3,
		retryWait: 500 * time.Millisecond,
		http:      newHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	// Per-request deadlines come from the caller's context
	return &http.Client{Transport: tr}
}

// MatchLog posts the init action for a match and returns the raw response body.
// 5xx answers and transport errors are retried, 4xx answers are not.
func (c *Client) MatchLog(ctx context.Context, matchID int64) ([]byte, error) {
	form := url.Values{}
	form.Set("id", strconv.FormatInt(matchID, 10))
	form.Set("action", "init")

	var body []byte
	err := retry(ctx, c.retries, c.retryWait, 8*c.retryWait, func() error {
		b, err := c.post(ctx, "leagues_match/", form, matchID)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, matchID int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, permanent(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{MatchID: matchID, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, permanent(&StatusError{MatchID: matchID, StatusCode: resp.StatusCode})
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return &permanentError{err: err} }

// retry runs fn up to attempts times with doubling waits capped at max.
// Errors wrapped with permanent stop the loop and are returned unwrapped.
func retry(ctx context.Context, attempts int, initial, max time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	d := initial
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
			if d < max {
				d *= 2
				if d > max {
					d = max
				}
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		var p *permanentError
		if errors.As(err, &p) {
			return p.err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
