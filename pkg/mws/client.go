// Package mws provides the shared plumbing for Amazon MWS operation bindings:
// request signing, form transport, recorded fixtures and response checking.
package mws

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Inbound section of the API.
const (
	InboundBranch  = "/FulfillmentInboundShipment/2010-10-01"
	InboundVersion = "2010-10-01"
)

// DefaultEndpoint is the North America MWS endpoint.
const DefaultEndpoint = "https://mws.amazonservices.com"

// Backend is what an operation binding needs from the shared client.
type Backend interface {
	// URL returns the endpoint plus section branch requests are posted to.
	URL() string

	// BuildSignedQuery signs params and returns the form body.
	BuildSignedQuery(params Params) (string, error)

	// Submit posts a signed query.
	Submit(ctx context.Context, url, query string) (*Response, error)

	// LoadFixture returns the recorded response for an operation.
	LoadFixture(name string) ([]byte, error)

	// MockMode reports whether fixtures replace the network.
	MockMode() bool
}

// Config holds MWS client configuration.
type Config struct {
	Credentials Credentials
	Endpoint    string
	Branch      string
	Version     string
	Timeout     time.Duration
	RateLimit   float64
	RateBurst   int
	UseMock     bool
	MockDir     string
}

// Client is the MWS base client shared by operation bindings.
type Client struct {
	config    Config
	signer    *Signer
	transport Transport
	fixtures  FixtureLoader
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new client with the HTTP transport and, in mock mode, the
// fixtures from MockDir or the embedded defaults.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var fixtures FixtureLoader
	if cfg.MockDir != "" {
		fixtures = DirFixtures(cfg.MockDir)
	} else {
		fixtures = DefaultFixtures()
	}

	transport := NewHTTPTransport(HTTPTransportConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})

	return NewWithTransport(cfg, transport, fixtures, logger, tracer)
}

// NewWithTransport creates a new client with a custom transport and fixture loader.
func NewWithTransport(cfg Config, transport Transport, fixtures FixtureLoader, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Branch == "" {
		cfg.Branch = InboundBranch
	}
	if cfg.Version == "" {
		cfg.Version = InboundVersion
	}
	if fixtures == nil {
		fixtures = DefaultFixtures()
	}
	if tracer == nil {
		tracer = otel.Tracer("github.com/tournevent/mwslabels/pkg/mws")
	}

	return &Client{
		config:    cfg,
		signer:    NewSigner(cfg.Credentials, cfg.Version),
		transport: transport,
		fixtures:  fixtures,
		logger:    logger,
		tracer:    tracer,
	}
}

// Signer exposes the request signer, mainly to pin its clock in tests.
func (c *Client) Signer() *Signer {
	return c.signer
}

// URL returns endpoint + branch.
func (c *Client) URL() string {
	return strings.TrimRight(c.config.Endpoint, "/") + c.config.Branch
}

// MockMode reports whether fixtures replace the network.
func (c *Client) MockMode() bool {
	return c.config.UseMock
}

// BuildSignedQuery signs params for the client URL.
func (c *Client) BuildSignedQuery(params Params) (string, error) {
	return c.signer.Sign(c.URL(), params)
}

// Submit posts a signed query through the transport.
func (c *Client) Submit(ctx context.Context, url, query string) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "mws.Submit", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("http.url", url))

	start := time.Now()
	resp, err := c.transport.Submit(ctx, url, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Ctx(ctx).Debug("MWS request failed",
			zap.String("url", url),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Ctx(ctx).Debug("MWS request completed",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", resp.RequestID()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// LoadFixture returns the recorded response for name.
func (c *Client) LoadFixture(name string) ([]byte, error) {
	return c.fixtures.LoadFixture(name)
}

var _ Backend = (*Client)(nil)
