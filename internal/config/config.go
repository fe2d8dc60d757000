package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`

	// MWS seller account
	SellerID    string `envconfig:"MWS_SELLER_ID"`
	AccessKeyID string `envconfig:"MWS_ACCESS_KEY_ID"`
	SecretKey   string `envconfig:"MWS_SECRET_KEY"`
	AuthToken   string `envconfig:"MWS_AUTH_TOKEN"`

	// MWS transport
	Endpoint  string        `envconfig:"MWS_ENDPOINT" default:"https://mws.amazonservices.com"`
	Timeout   time.Duration `envconfig:"MWS_TIMEOUT" default:"30s"`
	RateLimit float64       `envconfig:"MWS_RATE_LIMIT" default:"2"`
	RateBurst int           `envconfig:"MWS_RATE_BURST" default:"30"`
	UseMock   bool          `envconfig:"MWS_USE_MOCK" default:"false"`
	MockDir   string        `envconfig:"MWS_MOCK_DIR"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"mwslabels"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that live mode has credentials to sign with.
func (c *Config) Validate() error {
	if c.UseMock {
		return nil
	}
	var errs []error
	if c.SellerID == "" {
		errs = append(errs, errors.New("MWS_SELLER_ID is required"))
	}
	if c.AccessKeyID == "" {
		errs = append(errs, errors.New("MWS_ACCESS_KEY_ID is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("MWS_SECRET_KEY is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("mws.endpoint", c.Endpoint),
		attribute.Bool("mws.mock", c.UseMock),
	}
}
