package mws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Response is a raw MWS HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RequestID returns the request id MWS reports in the response headers.
func (r *Response) RequestID() string {
	if r == nil || r.Header == nil {
		return ""
	}
	if id := r.Header.Get("X-Amzn-RequestId"); id != "" {
		return id
	}
	return r.Header.Get("X-Mws-Request-Id")
}

// Transport submits a signed query to an MWS URL.
type Transport interface {
	Submit(ctx context.Context, url, query string) (*Response, error)
}

// HTTPTransport is the production Transport, a form POST over resty.
type HTTPTransport struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// HTTPTransportConfig holds configuration for the HTTP transport.
type HTTPTransportConfig struct {
	Timeout   time.Duration
	UserAgent string
	// RateLimit is the sustained requests per second; zero disables throttling.
	RateLimit float64
	RateBurst int
}

// NewHTTPTransport creates a new resty-backed transport.
func NewHTTPTransport(cfg HTTPTransportConfig) *HTTPTransport {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "mwslabels/1.0 (Language=Go)"
	}

	t := &HTTPTransport{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent),
	}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return t
}

// Submit POSTs query as an URL-encoded form body.
func (t *HTTPTransport) Submit(ctx context.Context, url, query string) (*Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for request quota: %w", err)
		}
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded; charset=utf-8").
		SetBody(query).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("posting request: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

var _ Transport = (*HTTPTransport)(nil)
