// Package http is the outgoing HTTP client behind app/client: a small
// request builder with JSON bodies, per-attempt timeouts and bounded retries
// for idempotent requests.
//
//	resp, err := http.Get(base + "/api/products").
//	    Bearer(token).
//	    Retry(3, 250*time.Millisecond).
//	    WithContext(ctx).
//	    Send()
//	if err == nil && resp.OK() {
//	    err = resp.JSON(&envelope)
//	}
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"time"

	"github.com/eadens/cakeworld/pkg/logger"
)

// DefaultClient carries every outgoing request. Tests may swap its
// Transport.
var DefaultClient = &gohttp.Client{
	Transport: &gohttp.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Request is a fluent request builder. It is not safe for concurrent use.
type Request struct {
	method   string
	url      string
	header   gohttp.Header
	body     interface{}
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	ctx      context.Context
}

func Get(url string) *Request    { return newRequest(gohttp.MethodGet, url) }
func Post(url string) *Request   { return newRequest(gohttp.MethodPost, url) }
func Patch(url string) *Request  { return newRequest(gohttp.MethodPatch, url) }
func Delete(url string) *Request { return newRequest(gohttp.MethodDelete, url) }

func newRequest(method, url string) *Request {
	h := gohttp.Header{}
	h.Set("Accept", "application/json")
	return &Request{
		method:   method,
		url:      url,
		header:   h,
		timeout:  30 * time.Second,
		attempts: 1,
		ctx:      context.Background(),
	}
}

func (r *Request) Header(key, value string) *Request {
	r.header.Set(key, value)
	return r
}

// Bearer sets the Authorization header.
func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

// Body sets a value to send as JSON.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	return r
}

// Timeout bounds each attempt.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry allows up to n attempts, waiting backoff, 2×backoff, ... between
// them. Only GET and DELETE are retried, and only after a transport error or
// a 429/502/503/504; other methods always make a single attempt.
func (r *Request) Retry(n int, backoff time.Duration) *Request {
	r.attempts = max(n, 1)
	r.backoff = backoff
	return r
}

func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

func (r *Request) idempotent() bool {
	return r.method == gohttp.MethodGet || r.method == gohttp.MethodDelete
}

// Send performs the request. A non-2xx status is not an error; the
// Response carries it. The error is non-nil only when no response arrived.
func (r *Request) Send() (*Response, error) {
	payload, err := r.encode()
	if err != nil {
		return nil, err
	}

	attempts := r.attempts
	if !r.idempotent() {
		attempts = 1
	}
	wait := r.backoff

	for attempt := 1; ; attempt++ {
		resp, err := r.do(payload)
		if attempt >= attempts || !transient(resp, err) || r.ctx.Err() != nil {
			return resp, err
		}

		logger.WithCtx(r.ctx).Warn("http: retrying",
			"method", r.method, "url", r.url, "attempt", attempt, "backoff", wait, "error", err)
		select {
		case <-r.ctx.Done():
			return nil, fmt.Errorf("http: %s %s: %w", r.method, r.url, r.ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func transient(resp *Response, err error) bool {
	if err != nil {
		return true
	}
	switch resp.StatusCode {
	case gohttp.StatusTooManyRequests, gohttp.StatusBadGateway, gohttp.StatusServiceUnavailable, gohttp.StatusGatewayTimeout:
		return true
	}
	return false
}

func (r *Request) encode() ([]byte, error) {
	if r.body == nil {
		return nil, nil
	}
	b, err := json.Marshal(r.body)
	if err != nil {
		return nil, fmt.Errorf("http: encode body: %w", err)
	}
	return b, nil
}

func (r *Request) do(payload []byte) (*Response, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	req.Header = r.header.Clone()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %s %s: %w", r.method, r.url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Raw: raw}, nil
}

// Response is a fully read response.
type Response struct {
	StatusCode int
	Header     gohttp.Header
	Raw        []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body into dest.
func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}
