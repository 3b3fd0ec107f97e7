// Package probe issues the HEAD requests the redirect check relies on.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/timeout"

	"pubcheck/internal/check"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "pubcheck/1.0"
)

// Client is a check.Prober backed by net/http. It never follows redirects.
type Client struct {
	hc        *http.Client
	timeout   time.Duration
	userAgent string
	exec      failsafe.Executor[*http.Response]
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its CheckRedirect is
// overridden so that 3xx responses reach the caller.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			cp := *hc
			c.hc = &cp
		}
	}
}

// WithTimeout bounds each request. d <= 0 disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		hc:        &http.Client{},
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	if c.timeout > 0 {
		c.exec = failsafe.With(timeout.New[*http.Response](c.timeout))
	}
	return c
}

// Head sends a HEAD request to url and returns the status and headers of the
// first response, 3xx included.
func (c *Client) Head(ctx context.Context, url string) (check.ProbeResponse, error) {
	var (
		resp *http.Response
		err  error
	)
	if c.exec == nil {
		resp, err = c.do(ctx, url)
	} else {
		resp, err = c.exec.WithContext(ctx).GetWithExecution(func(exec failsafe.Execution[*http.Response]) (*http.Response, error) {
			return c.do(exec.Context(), url)
		})
	}
	if err != nil {
		return check.ProbeResponse{}, fmt.Errorf("HEAD %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return check.ProbeResponse{StatusCode: resp.StatusCode, Header: resp.Header.Clone()}, nil
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	return c.hc.Do(req)
}

var _ check.Prober = (*Client)(nil)
