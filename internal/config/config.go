package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string

	HTTPAddr           string
	DatabaseURL        string
	CatalogDatabaseURL string // read-only catalog/orders store; defaults to DatabaseURL

	JWTSecret string
	JWTIssuer string

	// Anonymous session cookie
	SessionSecret       string
	SessionTTL          time.Duration
	SessionCookieSecure bool

	// RabbitMQ
	RabbitURL      string
	RabbitExchange string
	RabbitQueue    string

	// Redis & Caching
	RedisURL              string
	CacheTTLCollaborative time.Duration
	CacheTTLContent       time.Duration
	CacheTTLTrending      time.Duration
	CacheTTLFBT           time.Duration
	CacheTTLPersonalized  time.Duration

	// Strategy execution
	StrategyTimeout      time.Duration
	ExposureWriteTimeout time.Duration
	BreakerFailures      uint32
	BreakerOpenTimeout   time.Duration

	// Tracking write path
	TrackWorkers     int
	TrackQueueSize   int
	ConversionWindow time.Duration

	// Jobs
	SchedulerEnabled     bool
	RetentionDays        int
	PrewarmProductLimit  int
	PrewarmCustomerLimit int

	// Rate Limiting
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	LogLevel  string
	LogFormat string

	SentryDSN string

	// Report export (optional)
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3ReportBucket string
	S3UsePathStyle bool

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8086")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.CatalogDatabaseURL = firstNonEmpty(getEnv("CATALOG_DATABASE_URL", ""), cfg.DatabaseURL)

	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.JWTIssuer = getEnv("JWT_ISSUER", "")

	cfg.SessionSecret = getEnv("SESSION_SECRET", "")
	cfg.SessionTTL = getDuration("SESSION_TTL", 30*24*time.Hour)
	cfg.SessionCookieSecure = getBool("SESSION_COOKIE_SECURE", cfg.AppEnv != "dev")

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "city.events")
	cfg.RabbitQueue = getEnv("RABBIT_QUEUE", "recommendation-service.orders")

	cfg.RedisURL = getEnv("REDIS_URL", "redis://localhost:6379/0")
	cfg.CacheTTLCollaborative = getDuration("CACHE_TTL_COLLABORATIVE", 30*time.Minute)
	cfg.CacheTTLContent = getDuration("CACHE_TTL_CONTENT", 60*time.Minute)
	cfg.CacheTTLTrending = getDuration("CACHE_TTL_TRENDING", 30*time.Minute)
	cfg.CacheTTLFBT = getDuration("CACHE_TTL_FBT", 60*time.Minute)
	cfg.CacheTTLPersonalized = getDuration("CACHE_TTL_PERSONALIZED", 30*time.Minute)

	cfg.StrategyTimeout = getDuration("STRATEGY_TIMEOUT", 2*time.Second)
	cfg.ExposureWriteTimeout = getDuration("EXPOSURE_WRITE_TIMEOUT", 300*time.Millisecond)
	cfg.BreakerFailures = uint32(getIntEnv("BREAKER_FAILURES", 5))
	cfg.BreakerOpenTimeout = getDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second)

	cfg.TrackWorkers = getIntEnv("TRACK_WORKERS", 4)
	cfg.TrackQueueSize = getIntEnv("TRACK_QUEUE_SIZE", 1024)
	cfg.ConversionWindow = getDuration("CONVERSION_WINDOW", 7*24*time.Hour)

	cfg.SchedulerEnabled = getBool("SCHEDULER_ENABLED", true)
	cfg.RetentionDays = getIntEnv("RETENTION_DAYS", 180)
	cfg.PrewarmProductLimit = getIntEnv("PREWARM_PRODUCT_LIMIT", 100)
	cfg.PrewarmCustomerLimit = getIntEnv("PREWARM_CUSTOMER_LIMIT", 500)

	// Rate Limiting Defaults: 300 reqs / 1 min
	cfg.RLEnabled = getBool("RL_ENABLED", true)
	cfg.RLLimit = getIntEnv("RL_IP_LIMIT", 300)
	cfg.RLWindow = getDuration("RL_IP_WINDOW", 1*time.Minute)

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")

	cfg.SentryDSN = getEnv("SENTRY_DSN", "")

	cfg.S3Endpoint = getEnv("S3_ENDPOINT", "")
	cfg.S3Region = getEnv("S3_REGION", "us-east-1")
	cfg.S3AccessKey = getEnv("S3_ACCESS_KEY_ID", "")
	cfg.S3SecretKey = getEnv("S3_SECRET_ACCESS_KEY", "")
	cfg.S3ReportBucket = getEnv("S3_REPORT_BUCKET", "")
	cfg.S3UsePathStyle = getBool("S3_USE_PATH_STYLE", true)

	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 20*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)

	// validation
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("missing DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("missing SESSION_SECRET")
	}
	if cfg.AppEnv != "dev" && cfg.RabbitURL == "" {
		return nil, fmt.Errorf("missing RABBIT_URL (required when APP_ENV != dev)")
	}
	if cfg.RetentionDays <= 0 {
		return nil, fmt.Errorf("RETENTION_DAYS must be positive, got %d", cfg.RetentionDays)
	}
	if cfg.TrackWorkers <= 0 {
		return nil, fmt.Errorf("TRACK_WORKERS must be positive, got %d", cfg.TrackWorkers)
	}

	return cfg, nil
}

// HasReportStorage reports whether daily reports should be exported to S3.
func (c *Config) HasReportStorage() bool {
	return c.S3ReportBucket != ""
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
