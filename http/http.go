package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds a single request when no per-call timeout is given.
const DefaultTimeout = 10 * time.Second

type Client struct {
	StdClient *http.Client
	Timeout   time.Duration
}

// New builds a client with the given per-request timeout and optional proxy.
// A zero timeout falls back to DefaultTimeout.
func New(timeout time.Duration, rawProxyURL string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logrus.Debugf("HTTP request timeout is set to %s", timeout)

	// Thread safe
	stdClient := &http.Client{}
	if rawProxyURL != "" {
		proxyURL, err := url.Parse(rawProxyURL)
		if err != nil {
			logrus.Warnf("Failed to parse proxy URL: %s, error: %v, using system proxy", rawProxyURL, err)
		} else {
			transport := http.DefaultTransport.(*http.Transport).Clone()
			transport.Proxy = http.ProxyURL(proxyURL)
			logrus.Debugf("Using proxy %s", rawProxyURL)
			stdClient.Transport = transport
		}
	}
	return &Client{StdClient: stdClient, Timeout: timeout}
}

type requestOptions struct {
	query   map[string]string
	timeout time.Duration
}

type Option func(*requestOptions)

func WithQuery(query map[string]string) Option {
	return func(o *requestOptions) {
		o.query = query
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *requestOptions) {
		o.timeout = timeout
	}
}

// GetJSON issues one GET and returns the body once it is known to be valid JSON.
// The request is aborted when either ctx is done or the timeout elapses; no retries.
func (c *Client) GetJSON(ctx context.Context, rawURL string, options ...Option) ([]byte, error) {
	opts := requestOptions{timeout: c.Timeout}
	for _, o := range options {
		o(&opts)
	}
	if opts.timeout <= 0 {
		opts.timeout = DefaultTimeout
	}

	if opts.query != nil {
		parsedURL, err := url.Parse(rawURL)
		if err != nil {
			return nil, errors.Wrapf(err, "parse url %s", rawURL)
		}
		query := parsedURL.Query()
		for k, v := range opts.query {
			query.Set(k, v)
		}
		parsedURL.RawQuery = query.Encode()
		rawURL = parsedURL.String()
	}

	reqCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request %s", rawURL)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; crypto-bot)")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Add("Cache-Control", "no-store")

	resp, err := c.StdClient.Do(req)
	if err != nil {
		return nil, c.classify(ctx, reqCtx, rawURL, opts.timeout, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classify(ctx, reqCtx, rawURL, opts.timeout, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ResponseError{URL: rawURL, Status: resp.Status, StatusCode: resp.StatusCode, Body: respBytes}
	}
	if !gjson.ValidBytes(respBytes) {
		return nil, &ParseError{URL: rawURL, Body: respBytes}
	}
	return respBytes, nil
}

func (c *Client) classify(parent, reqCtx context.Context, rawURL string, timeout time.Duration, err error) error {
	// The caller gave up, not the venue.
	if parent.Err() != nil {
		return errors.Wrapf(parent.Err(), "GET %s", rawURL)
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{URL: rawURL, After: timeout}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{URL: rawURL, After: timeout}
	}
	return &NetworkError{URL: rawURL, Err: err}
}

type TimeoutError struct {
	URL   string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("GET %s: timeout after %s", e.URL, e.After)
}

func (e *TimeoutError) Timeout() bool { return true }

type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("GET %s: network error: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

type ResponseError struct {
	URL        string
	Status     string
	StatusCode int
	Body       []byte
}

func (e *ResponseError) Error() string {
	return "GET " + e.URL + ": HTTP " + e.Status + ", body " + truncate(e.Body, 200)
}

type ParseError struct {
	URL  string
	Body []byte
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("GET %s: invalid JSON body %q", e.URL, truncate(e.Body, 200))
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
