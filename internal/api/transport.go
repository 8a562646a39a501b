package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const requestTimeout = 30 * time.Second

// Request describes one HTTP exchange against the service.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Params  url.Values
	Body    any // marshaled as JSON when non-nil
}

// Response is the raw outcome of a Request.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport issues authenticated requests. Two implementations exist: the
// plain HTTP transport below, and the browser-backed transport which routes
// the same requests through a live browser's cookie state.
type Transport interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
	Close() error
}

// HostPreloader is implemented by transports that can establish cross-domain
// cookies by visiting a host before API calls are made against it.
type HostPreloader interface {
	PreloadHost(ctx context.Context, baseURL string) error
}

// RESTTransport issues requests over a plain HTTP client using an API key and
// cookie header captured from an earlier browser session. The credentials are
// fixed at construction and sent on every request.
type RESTTransport struct {
	client  *http.Client
	headers http.Header
}

// RESTOption is a functional option for configuring the RESTTransport.
type RESTOption func(*RESTTransport)

func WithHTTPClient(hc *http.Client) RESTOption {
	return func(t *RESTTransport) { t.client = hc }
}

// NewRESTTransport creates a transport from a previously-captured cookie
// header. The Authorization header is injected per-request by the Session.
func NewRESTTransport(cookie string, opts ...RESTOption) *RESTTransport {
	t := &RESTTransport{
		client:  &http.Client{Timeout: requestTimeout},
		headers: http.Header{"Cookie": []string{cookie}},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *RESTTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	return DoHTTP(ctx, t.client, t.headers, req)
}

func (t *RESTTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// DoHTTP is the request path shared by both transports: build the
// http.Request, merge default and per-call headers, run it, read the body.
func DoHTTP(ctx context.Context, client *http.Client, defaults http.Header, req *Request) (*Response, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	fullURL := req.URL
	if len(req.Params) > 0 {
		sep := "?"
		if u, err := url.Parse(fullURL); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		fullURL += sep + req.Params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, vals := range defaults {
		for _, v := range vals {
			httpReq.Header.Set(k, v)
		}
	}
	for k, vals := range req.Headers {
		for _, v := range vals {
			httpReq.Header.Set(k, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}
