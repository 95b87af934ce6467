package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client issues requests against a single server. Credentials are attached
// once, through the Authenticator, to every request the client sends.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Auth       Authenticator
}

// Option configures a Client.
type Option func(*Client)

// WithBasicAuth attaches HTTP basic credentials to every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.Auth = &BasicAuth{Username: username, Password: password}
	}
}

// WithAuthenticator sets a custom authenticator.
func WithAuthenticator(auth Authenticator) Option {
	return func(c *Client) {
		c.Auth = auth
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = hc
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: timeout}).DialContext
	transport.TLSHandshakeTimeout = timeout

	c := &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Transport: transport,
			// Uploads are bounded by the overall timeout; a hung server ends in a
			// transport error instead of blocking the operator forever.
			Timeout: timeout,
		},
		Timeout: timeout,
		Auth:    &NoAuth{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is the status code and fully read body of a server reply. Non-2xx
// statuses are not errors at this layer: the publish protocol encodes its
// reply codes in the body of failed responses.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the server answered 200.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// Text returns the body as trimmed text.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Body))
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if r == nil {
		return fmt.Errorf("no response")
	}
	return json.Unmarshal(r.Body, v)
}

// URL resolves a path relative to the base URL. The base may or may not end
// in a slash.
func (c *Client) URL(path string, query url.Values) string {
	u := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, c.URL(path, query), nil, "", "application/json")
}

// GetRaw issues a GET against an already encoded path and query string. The
// repository tree endpoint needs control over the exact encoding.
func (c *Client) GetRaw(ctx context.Context, pathAndQuery string) (*Response, error) {
	return c.do(ctx, http.MethodGet, c.URL(pathAndQuery, nil), nil, "", "application/json")
}

func (c *Client) PostJSON(ctx context.Context, path string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.URL(path, nil), bytes.NewReader(payload), "application/json", "application/json")
}

func (c *Client) PostMultipart(ctx context.Context, path string, form *Form) (*Response, error) {
	return c.sendForm(ctx, http.MethodPost, path, form)
}

func (c *Client) PutMultipart(ctx context.Context, path string, form *Form) (*Response, error) {
	return c.sendForm(ctx, http.MethodPut, path, form)
}

func (c *Client) sendForm(ctx context.Context, method string, path string, form *Form) (*Response, error) {
	body, contentType, err := form.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode multipart form: %w", err)
	}
	return c.do(ctx, method, c.URL(path, nil), body, contentType, "text/plain")
}

func (c *Client) do(ctx context.Context, method string, urlStr string, body io.Reader, contentType string, accept string) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: urlStr, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.Auth != nil {
		c.Auth.Apply(req)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: urlStr, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: urlStr, Err: fmt.Errorf("read body: %w", err)}
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
