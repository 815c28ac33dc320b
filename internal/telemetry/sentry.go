// Package telemetry wires Sentry error reporting for jobs and HTTP panics.
package telemetry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	zlog "github.com/rs/zerolog/log"
)

const serviceName = "recommendation-service"

type Config struct {
	DSN         string
	Environment string
	Release     string
}

// Init initializes Sentry and returns a flush function.
// An empty DSN yields a no-op flush.
func Init(cfg Config) func() {
	if cfg.DSN == "" {
		return func() {}
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		ServerName:  serviceName,
	})
	if err != nil {
		zlog.Warn().Err(err).Msg("sentry init failed (continuing without error reporting)")
		return func() {}
	}

	zlog.Info().Str("environment", cfg.Environment).Msg("sentry initialized")
	return func() {
		sentry.Flush(5 * time.Second)
	}
}

// CaptureError reports err with the given tags. No-op when Sentry is not initialized.
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}
