package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

const bodySnippetLimit = 200

// Record is one loosely-typed record as returned by the service. The service
// does not publish a schema, so records stay opaque maps at this boundary.
type Record = map[string]any

// Session is an authenticated conversation with the service. It owns a
// transport (browser-backed or plain HTTP), the API key captured at sign-in,
// and the status message from the last sign-in attempt. A Session is
// single-owner; it is not safe for concurrent use.
type Session struct {
	transport Transport
	apiKey    string
	status    string
	logf      func(format string, args ...any)

	creditLoaded bool
}

// Option is a functional option for configuring a Session.
type Option func(*Session)

// WithStatusMessage records the sign-in status banner text.
func WithStatusMessage(msg string) Option {
	return func(s *Session) { s.status = msg }
}

// WithLogger sets a diagnostic logger for non-fatal warnings.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(s *Session) { s.logf = logf }
}

// NewSession wraps a transport and an API key captured during sign-in.
func NewSession(t Transport, apiKey string, opts ...Option) *Session {
	s := &Session{transport: t, apiKey: apiKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRESTSession builds a session over a plain HTTP transport from an API key
// and cookie captured in an earlier browser session, bypassing the browser.
func NewRESTSession(apiKey, cookie string, opts ...Option) *Session {
	return NewSession(NewRESTTransport(cookie), apiKey, opts...)
}

// StatusMessage returns the post-login banner text from sign-in, if any.
func (s *Session) StatusMessage() string { return s.status }

// Close releases the transport (quits the browser or releases the client).
func (s *Session) Close() error {
	if s.transport == nil {
		return nil
	}
	return s.transport.Close()
}

func (s *Session) warnf(format string, args ...any) {
	if s.logf != nil {
		s.logf(format, args...)
	}
}

// CallOptions shape a single logical endpoint call.
type CallOptions struct {
	Params  url.Values
	Body    *SearchPayload
	Headers http.Header
}

// authHeaders are the per-request headers both transports need: the in-page
// API key in the service's proprietary scheme, plus a fresh transaction id.
func (s *Session) authHeaders(extra http.Header) http.Header {
	h := http.Header{}
	h.Set("Authorization", fmt.Sprintf("Intuit_APIKey intuit_apikey=%s, intuit_apikey_version=1.0", s.apiKey))
	h.Set("Accept", "application/json")
	h.Set("intuit_tid", uuid.NewString())
	for k, vals := range extra {
		for _, v := range vals {
			h.Set(k, v)
		}
	}
	return h
}

// CallRaw issues a single unpaginated request and returns the decoded JSON
// object. Non-2xx responses surface as *TransportError.
func (s *Session) CallRaw(ctx context.Context, ep Endpoint, opt CallOptions) (map[string]any, error) {
	if err := s.maybePreloadCredit(ctx, ep); err != nil {
		return nil, err
	}
	body, err := s.execute(ctx, ep.Method, ep.URL(), opt)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response from %s: %w", ep.URL(), err)
	}
	return parsed, nil
}

// Call issues a request and walks the service's link-based pagination,
// returning the concatenation of every page's records in traversal order.
func (s *Session) Call(ctx context.Context, ep Endpoint, opt CallOptions) ([]Record, error) {
	parsed, err := s.CallRaw(ctx, ep, opt)
	if err != nil {
		return nil, err
	}

	if ep.DataKey == "" {
		s.warnf("endpoint %s declares no data key; returning no records", ep.Path)
		return []Record{}, nil
	}

	var records []Record
	body := opt.Body
	for {
		page, ok := parsed[ep.DataKey]
		if !ok {
			if records == nil {
				return nil, &SchemaMismatchError{Endpoint: ep, Key: ep.DataKey}
			}
			s.warnf("page from %s is missing data key %q; stopping", ep.Path, ep.DataKey)
			break
		}
		records = append(records, toRecords(page)...)

		next := nextLink(parsed, ep.MetadataKey)
		if next == "" {
			break
		}

		nextURL := ep.APIURL + ep.Section + next
		nextOpt := CallOptions{Headers: opt.Headers}
		if ep.Method == http.MethodPost {
			// The next link encodes offset/limit as query parameters, but the
			// service expects them on the POST body. Copy them over.
			body = withPageFromLink(body, next)
			nextOpt.Body = body
		}

		raw, err := s.execute(ctx, ep.Method, nextURL, nextOpt)
		if err != nil {
			return nil, err
		}
		parsed = map[string]any{}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("parsing page from %s: %w", nextURL, err)
		}
	}

	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// execute performs one HTTP exchange through the transport, enforcing the
// authentication invariant and the non-2xx error contract.
func (s *Session) execute(ctx context.Context, method, fullURL string, opt CallOptions) ([]byte, error) {
	if s.apiKey == "" {
		return nil, ErrNotAuthenticated
	}

	req := &Request{
		Method:  method,
		URL:     fullURL,
		Headers: s.authHeaders(opt.Headers),
		Params:  opt.Params,
	}
	if opt.Body != nil {
		req.Body = opt.Body
	}

	resp, err := s.transport.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(resp.Body)
		if len(snippet) > bodySnippetLimit {
			snippet = snippet[:bodySnippetLimit]
		}
		return nil, &TransportError{StatusCode: resp.StatusCode, URL: fullURL, Body: snippet}
	}
	return resp.Body, nil
}

// maybePreloadCredit visits the credit host once per session before the first
// credit endpoint call, so the browser establishes cross-domain cookies.
func (s *Session) maybePreloadCredit(ctx context.Context, ep Endpoint) error {
	if ep.APIURL != CreditBaseURL || s.creditLoaded {
		return nil
	}
	if p, ok := s.transport.(HostPreloader); ok {
		if err := p.PreloadHost(ctx, CreditBaseURL); err != nil {
			return fmt.Errorf("preloading credit host: %w", err)
		}
	}
	s.creditLoaded = true
	return nil
}

// nextLink digs the rel=next href out of the page's pagination metadata.
// Malformed or missing metadata is terminal, not an error.
func nextLink(parsed map[string]any, metadataKey string) string {
	if metadataKey == "" {
		return ""
	}
	meta, ok := parsed[metadataKey].(map[string]any)
	if !ok {
		return ""
	}
	links, ok := meta["link"].([]any)
	if !ok {
		return ""
	}
	for _, l := range links {
		link, ok := l.(map[string]any)
		if !ok {
			continue
		}
		if rel, _ := link["rel"].(string); rel == "next" {
			href, _ := link["href"].(string)
			return href
		}
	}
	return ""
}

// withPageFromLink copies the offset/limit query values of a next link onto a
// copy of the POST body.
func withPageFromLink(body *SearchPayload, href string) *SearchPayload {
	next := SearchPayload{}
	if body != nil {
		next = *body
	}
	u, err := url.Parse(href)
	if err != nil {
		return &next
	}
	q := u.Query()
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		next.Offset = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		next.Limit = v
	}
	return &next
}

func toRecords(v any) []Record {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		if rec, ok := item.(Record); ok {
			records = append(records, rec)
		}
	}
	return records
}
