package main

import (
	"context"

	"github.com/tournevent/mwslabels/internal/config"
	"github.com/tournevent/mwslabels/internal/telemetry"
	"github.com/tournevent/mwslabels/pkg/mws"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(telemetry.LogOptions{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
	})
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return otel.Tracer(cfg.ServiceName), func(context.Context) error { return nil }, nil
	}

	tracer, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Attributes()...)
	if err != nil {
		return otel.Tracer(cfg.ServiceName), nil, err
	}
	return tracer, shutdown, nil
}

func initBackend(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *mws.Client {
	return mws.New(mws.Config{
		Credentials: mws.Credentials{
			SellerID:    cfg.SellerID,
			AccessKeyID: cfg.AccessKeyID,
			SecretKey:   cfg.SecretKey,
			AuthToken:   cfg.AuthToken,
		},
		Endpoint:  cfg.Endpoint,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		UseMock:   cfg.UseMock,
		MockDir:   cfg.MockDir,
	}, logger, tracer)
}
