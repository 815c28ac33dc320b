package catalog

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/metrics"
)

// BreakerSettings configures the circuit breaker in front of a gateway.
type BreakerSettings struct {
	Failures    uint32        // consecutive failures before opening
	OpenTimeout time.Duration // time spent open before a trial request
}

type breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[any]
}

func newBreaker(name string, s BreakerSettings) *breaker {
	if s.Failures == 0 {
		s.Failures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	metrics.SetBreakerOpen(name, false)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= s.Failures
		},
		// a missing row is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || domain.HasCode(err, domain.CodeNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log := logger.Component("catalog")
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.SetBreakerOpen(name, to == gobreaker.StateOpen)
		},
	})
	return &breaker{name: name, cb: cb}
}

// do runs fn through the breaker. Infrastructure failures and rejections
// surface as upstream errors; domain errors pass through unchanged.
func do[T any](b *breaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := b.cb.Execute(func() (any, error) {
		v, err := fn()
		return v, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, domain.ErrUpstream(b.name+" unavailable", err)
		}
		if _, ok := domain.AsAppError(err); ok {
			return zero, err
		}
		return zero, domain.ErrUpstream(b.name+" query failed", err)
	}
	typed, _ := res.(T)
	return typed, nil
}
