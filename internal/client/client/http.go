package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/dmitrijs2005/gophblog/internal/netx"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 8 << 20
)

// Response is a raw backend reply with a 2xx status.
type Response struct {
	Status int
	Body   []byte
}

// Doer is the generic request interface of the backend.
type Doer interface {
	Do(ctx context.Context, method, path string, body any, headers http.Header) (*Response, error)
}

// HTTPClient talks JSON (and multipart) to the blog backend. The bearer
// credential set with SetToken is attached to every request until cleared.
type HTTPClient struct {
	baseURL string
	auth    *authTransport
	http    *http.Client
	logger  logging.Logger
}

type Option func(*HTTPClient)

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithBaseTransport sets the RoundTripper wrapped by the auth transport.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) { c.auth.base = rt }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	auth := newAuthTransport(nil)
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		http:    &http.Client{Transport: auth, Timeout: defaultTimeout},
		logger:  logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *HTTPClient) SetToken(token string) { c.auth.SetToken(token) }

func (c *HTTPClient) ClearToken() { c.auth.SetToken("") }

func (c *HTTPClient) Token() string { return c.auth.Token() }

// Do sends a request. body may be nil, a *netx.MultipartBody or any value
// encodable as JSON. Non-2xx replies become *HTTPError, failures to get a
// reply become *TransportError.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body any, headers http.Header) (*Response, error) {
	op := method + " " + path

	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case *netx.MultipartBody:
		reader, contentType = b.Reader(), b.ContentType()
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader, contentType = bytes.NewReader(data), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Op: op, Cause: err}
	}

	c.logger.Debug(ctx, "api call", "op", op, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	return &Response{Status: resp.StatusCode, Body: data}, nil
}

func errorMessage(status int, body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return http.StatusText(status)
}
