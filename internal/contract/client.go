package contract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 10 * time.Second

// maxBodyRead bounds how much of a response body is kept for checks.
const maxBodyRead = 1 << 20

// SessionEncoder mints a session cookie from raw values.
type SessionEncoder interface {
	EncodeCookie(values map[string]string) (*http.Cookie, error)
}

// Response is what the checks see of an HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client issues contract requests. Redirects are never followed so their
// status and Location can be asserted.
type Client struct {
	base     *url.URL
	http     *http.Client
	sessions SessionEncoder
}

// NewClient creates a client for baseURL using transport (http.DefaultTransport
// when nil). sessions may be nil when no case needs a session.
func NewClient(baseURL string, transport http.RoundTripper, sessions SessionEncoder) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: base,
		http: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   DefaultTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		sessions: sessions,
	}, nil
}

// NewHandlerClient creates a client that serves requests from h in process,
// without opening a socket.
func NewHandlerClient(h http.Handler, sessions SessionEncoder) *Client {
	c, err := NewClient("http://moodtunes.test", handlerTransport{h}, sessions)
	if err != nil {
		panic(err)
	}
	return c
}

// SetTimeout bounds each request. A non-positive d keeps DefaultTimeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.http.Timeout = d
	}
}

// SessionTransaction writes values into the client's session for the
// duration of fn. The cookie jar is reset when fn returns, on every path.
func (c *Client) SessionTransaction(values map[string]string, fn func() error) (err error) {
	if c.sessions == nil {
		return fmt.Errorf("session transaction requires a session encoder")
	}
	cookie, err := c.sessions.EncodeCookie(values)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	defer func() {
		jar, jarErr := cookiejar.New(nil)
		if jarErr != nil && err == nil {
			err = jarErr
			return
		}
		c.http.Jar = jar
	}()

	c.http.Jar.SetCookies(c.base, []*http.Cookie{cookie})
	return fn()
}

// Do sends one request. A non-nil form is sent url-encoded.
func (c *Client) Do(ctx context.Context, method, path string, form url.Values) (*Response, error) {
	target := c.base.ResolveReference(&url.URL{Path: path})

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyRead))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// handlerTransport serves requests from an http.Handler through a recorder.
type handlerTransport struct {
	handler http.Handler
}

func (t handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, req)
	resp := rec.Result()
	resp.Request = req
	return resp, nil
}
