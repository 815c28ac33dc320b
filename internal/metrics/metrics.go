package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	recommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_recommendations_served_total",
			Help: "Total number of recommendation lists returned, by strategy",
		},
		[]string{"strategy"},
	)

	strategyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reco_strategy_duration_seconds",
			Help:    "Strategy computation duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	strategyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_strategy_failures_total",
			Help: "Strategy calls that failed soft and returned an empty list",
		},
		[]string{"strategy", "reason"},
	)

	cacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_cache_events_total",
			Help: "Recommendation cache lookups by result (hit, miss, error)",
		},
		[]string{"strategy", "result"},
	)

	trackingEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_tracking_events_total",
			Help: "Interaction writes by outcome (written, failed, dropped)",
		},
		[]string{"outcome"},
	)

	trackingQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reco_tracking_queue_depth",
			Help: "Interactions waiting in the tracking queue",
		},
	)

	productViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reco_product_views_total",
			Help: "Tracked product view interactions",
		},
	)

	exposureEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_exposure_events_total",
			Help: "Exposure log events (logged, log_failed, click, conversion)",
		},
		[]string{"event"},
	)

	jobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_job_runs_total",
			Help: "Scheduled job runs by status",
		},
		[]string{"job", "status"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reco_job_duration_seconds",
			Help:    "Scheduled job duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"job"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reco_gateway_breaker_open",
			Help: "1 when a gateway circuit breaker is open",
		},
		[]string{"gateway"},
	)

	messagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_messages_consumed_total",
			Help: "RabbitMQ deliveries by routing key and result",
		},
		[]string{"routing_key", "result"},
	)
)

func RecordServed(strategy string) {
	recommendationsServed.WithLabelValues(strategy).Inc()
}

func ObserveStrategy(strategy string, d time.Duration) {
	strategyDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

func RecordStrategyFailure(strategy, reason string) {
	strategyFailures.WithLabelValues(strategy, reason).Inc()
}

func RecordCache(strategy, result string) {
	cacheEvents.WithLabelValues(strategy, result).Inc()
}

func RecordTracking(outcome string) {
	trackingEvents.WithLabelValues(outcome).Inc()
}

func SetTrackingQueueDepth(n int) {
	trackingQueueDepth.Set(float64(n))
}

func RecordProductView() {
	productViews.Inc()
}

func RecordExposure(event string) {
	exposureEvents.WithLabelValues(event).Inc()
}

func RecordJob(job, status string, d time.Duration) {
	jobRuns.WithLabelValues(job, status).Inc()
	jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func SetBreakerOpen(gateway string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	breakerState.WithLabelValues(gateway).Set(v)
}

func RecordMessage(routingKey, result string) {
	messagesConsumed.WithLabelValues(routingKey, result).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
