package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/analytics"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/jobs"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/recommend"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/tracking"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/config"
	rediscache "github.com/baechuer/real-time-ressys/services/recommendation-service/internal/infrastructure/caching/redis"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/infrastructure/catalog"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/infrastructure/storage"
)

// sysClock implements the Clock ports using system time.
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

// App holds the wired dependencies shared by the serve and job commands.
type App struct {
	Config *config.Config

	Pool      *pgxpool.Pool
	CatalogDB *sql.DB
	Redis     *rediscache.Client
	Tracker   *tracking.Pool

	Recommend *recommend.Service
	Analytics *analytics.Service
	Jobs      *jobs.Registry
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	catalogDB, err := catalog.Open(cfg.CatalogDatabaseURL, 10, 5)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	// The cache is optional: without Redis every request recomputes.
	var cache recommend.Cache
	rdb, err := rediscache.New(cfg.RedisURL)
	if err != nil {
		zlog.Warn().Err(err).Msg("redis unavailable: recommendation cache disabled")
	} else {
		cache = rdb
	}

	breaker := catalog.BreakerSettings{Failures: cfg.BreakerFailures, OpenTimeout: cfg.BreakerOpenTimeout}
	products := catalog.NewProductGateway(catalogDB, breaker)
	orders := catalog.NewOrderGateway(catalogDB, breaker)

	interactions := postgres.NewInteractionRepo(pool)
	exposures := postgres.NewExposureRepo(pool)
	tracker := tracking.NewPool(cfg.TrackWorkers, cfg.TrackQueueSize)
	clock := sysClock{}

	reco := recommend.New(recommend.Deps{
		Interactions: interactions,
		Writer:       interactions,
		Exposures:    exposures,
		Catalog:      products,
		Orders:       orders,
		Cache:        cache,
		Tracker:      tracker,
		Clock:        clock,
	}, recommend.Options{
		CollaborativeTTL:     cfg.CacheTTLCollaborative,
		ContentTTL:           cfg.CacheTTLContent,
		TrendingTTL:          cfg.CacheTTLTrending,
		BoughtTogetherTTL:    cfg.CacheTTLFBT,
		PersonalizedTTL:      cfg.CacheTTLPersonalized,
		StrategyTimeout:      cfg.StrategyTimeout,
		ExposureWriteTimeout: cfg.ExposureWriteTimeout,
		ConversionWindow:     cfg.ConversionWindow,
	})
	stats := analytics.New(interactions, exposures, products, clock)

	var sink jobs.ReportSink
	if cfg.HasReportStorage() {
		store, err := storage.NewReportStore(ctx, storage.S3Config{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			Bucket:       cfg.S3ReportBucket,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			zlog.Warn().Err(err).Msg("report storage init failed: reports will only be logged")
		} else {
			sink = store
		}
	}

	registry := jobs.NewRegistry(
		jobs.NewRecommendationPrewarm(reco, products, interactions, clock, cfg.PrewarmProductLimit, cfg.PrewarmCustomerLimit),
		jobs.NewTrendingPrewarm(reco),
		jobs.NewRetention(interactions, exposures, clock, cfg.RetentionDays),
		jobs.NewPerformanceReport(stats, sink, clock),
	)

	return &App{
		Config:    cfg,
		Pool:      pool,
		CatalogDB: catalogDB,
		Redis:     rdb,
		Tracker:   tracker,
		Recommend: reco,
		Analytics: stats,
		Jobs:      registry,
	}, nil
}

const (
	trendingPrewarmEvery = 15 * time.Minute
	prewarmEvery         = time.Hour
	reportEvery          = 24 * time.Hour
	retentionEvery       = 30 * 24 * time.Hour
)

// Schedules returns the periodic job plan.
func (a *App) Schedules() []jobs.Schedule {
	plan, err := schedules(a.Jobs)
	if err != nil {
		panic(err)
	}
	return plan
}

// schedules maps registered jobs onto their cadence. The long-period jobs also
// run at boot so a process restarting more often than their interval still
// executes them.
func schedules(reg *jobs.Registry) ([]jobs.Schedule, error) {
	cadence := []struct {
		name  string
		every time.Duration
		boot  bool
	}{
		{jobs.NameTrendingPrewarm, trendingPrewarmEvery, true},
		{jobs.NameRecommendationPrewarm, prewarmEvery, false},
		{jobs.NameRetention, retentionEvery, true},
		{jobs.NamePerformanceReport, reportEvery, true},
	}
	plan := make([]jobs.Schedule, 0, len(cadence))
	for _, c := range cadence {
		j, err := reg.Get(c.name)
		if err != nil {
			return nil, err
		}
		plan = append(plan, jobs.Schedule{Job: j, Interval: c.every, RunAtBoot: c.boot})
	}
	return plan, nil
}

// Close drains queued interaction writes and releases connections.
func (a *App) Close(ctx context.Context) {
	if err := a.Tracker.Stop(ctx); err != nil {
		zlog.Warn().Err(err).Msg("tracking pool did not drain before shutdown")
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	_ = a.CatalogDB.Close()
	a.Pool.Close()
}
