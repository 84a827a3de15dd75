package action

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

// DefaultTimeout bounds a single outbound call.
const DefaultTimeout = 30 * time.Second

var (
	// ErrTransport wraps network, DNS and TLS failures.
	ErrTransport = errors.New("transport failure")
	// ErrRejected wraps non-2xx upstream responses.
	ErrRejected = errors.New("upstream rejected request")
	// ErrUserNotFound is returned by assignee lookups with no match.
	ErrUserNotFound = errors.New("user not found")
)

// Request is a fully-formed outbound HTTP call.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Body   []byte
}

// Result is the outcome of a single Send.
type Result struct {
	Kind       Kind
	StatusCode int // 0 when no response was received
	Body       []byte
	Err        error
}

// Success reports whether the call returned a 2xx status.
func (r Result) Success() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode <= 299
}

// Client performs exactly one HTTP request per Send. There is no retry.
type Client struct {
	verified   *http.Client
	unverified *http.Client
}

// NewClient creates a client whose calls are bounded by timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		verified:   NewHTTPClient(true, timeout),
		unverified: NewHTTPClient(false, timeout),
	}
}

// NewHTTPClient returns an http.Client for tracker calls. With tlsVerify
// false the server certificate is not checked, which lets operators reach
// trackers with self-signed certificates at the cost of MITM protection.
func NewHTTPClient(tlsVerify bool, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !tlsVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // operator opt-in
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Send issues req once and classifies the response.
func (c *Client) Send(ctx context.Context, req Request, tlsVerify bool) Result {
	httpClient := c.verified
	if !tlsVerify {
		httpClient = c.unverified
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: create request: %v", ErrTransport, err)}
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: read response: %v", ErrTransport, err)}
	}

	res := Result{StatusCode: resp.StatusCode, Body: respBody}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Err = fmt.Errorf("%w (HTTP %d): %s", ErrRejected, resp.StatusCode, Truncate(string(respBody), 500))
	}
	return res
}

// Truncate shortens s to at most n bytes for logging, never splitting a
// UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
