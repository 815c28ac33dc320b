package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/jobs"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/telemetry"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/transport/http/handlers"
	mw "github.com/baechuer/real-time-ressys/services/recommendation-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/transport/http/router"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, order consumer and job scheduler",
		RunE:  runServe,
	}
	cmd.Flags().Bool("no-migrate", false, "Skip database migrations on startup")
	cmd.Flags().Bool("no-scheduler", false, "Do not run periodic jobs in this process")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flush := telemetry.Init(telemetry.Config{DSN: cfg.SentryDSN, Environment: cfg.AppEnv, Release: version})
	defer flush()

	if skip, _ := cmd.Flags().GetBool("no-migrate"); !skip {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}

	var consumer *rabbitmq.Consumer
	if cfg.RabbitURL != "" {
		consumer = rabbitmq.NewConsumer(rabbitmq.Config{
			URL:      cfg.RabbitURL,
			Exchange: cfg.RabbitExchange,
			Queue:    cfg.RabbitQueue,
		}, app.Recommend)
		if err := consumer.Start(ctx); err != nil {
			return fmt.Errorf("start order consumer: %w", err)
		}
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: purchases will not be attributed to recommendations")
	}

	var scheduler *jobs.Scheduler
	if noSched, _ := cmd.Flags().GetBool("no-scheduler"); cfg.SchedulerEnabled && !noSched {
		scheduler = jobs.NewScheduler(app.Schedules()...)
		scheduler.Start(ctx)
	}

	deps := map[string]handlers.Pinger{"postgres": app.Pool}
	if app.Redis != nil {
		deps["redis"] = app.Redis
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: router.New(
			handlers.NewRecommendationsHandler(app.Recommend),
			handlers.NewAnalyticsHandler(app.Analytics),
			handlers.NewHealthHandler(deps),
			mw.NewAuth(cfg.JWTSecret, cfg.JWTIssuer),
			mw.NewSessions(cfg.SessionSecret, cfg.SessionTTL, cfg.SessionCookieSecure),
			cfg,
		),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var crashed error
	select {
	case <-ctx.Done():
		zlog.Info().Msg("shutdown signal received")
	case crashed = <-serveErr:
		zlog.Error().Err(crashed).Msg("server crashed")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn().Err(err).Msg("http shutdown incomplete")
	}
	if consumer != nil {
		if err := consumer.Stop(shutdownCtx); err != nil {
			zlog.Warn().Err(err).Msg("order consumer stop incomplete")
		}
	}
	if scheduler != nil {
		scheduler.Wait()
	}
	app.Close(shutdownCtx)

	zlog.Info().Msg("shutdown complete")
	return crashed
}
