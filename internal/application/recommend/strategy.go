package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/metrics"
)

const (
	NameCollaborative  = string(domain.StrategyCollaborative)
	NameContentBased   = string(domain.StrategyContentBased)
	NameTrending       = string(domain.StrategyTrending)
	NamePersonalized   = string(domain.StrategyPersonalized)
	NameBoughtTogether = "frequently_bought_together"
)

const defaultTrendingDays = 7

// Request carries every input a strategy may read. Unused fields stay zero.
type Request struct {
	CustomerID int64 // 0 = anonymous
	ProductID  int64
	Limit      int
	Days       int
	CategoryID *int64
	Exclude    []int64
}

// Strategy produces an ordered list of candidate product ids.
// An empty result is a legitimate outcome, not an error.
type Strategy interface {
	Name() string
	Recommend(ctx context.Context, req Request) ([]int64, error)
}

// ErrDegraded accompanies a usable result that was built without one of its
// sources. Callers serve the ids but must not cache them.
var ErrDegraded = errors.New("degraded result")

// runner executes strategies under a bounded timeout and never fails:
// errors are logged and counted, and the caller receives an empty list.
type runner struct {
	timeout time.Duration
}

func (r runner) run(ctx context.Context, s Strategy, req Request) []int64 {
	ids, _ := r.try(ctx, s, req)
	return ids
}

// try is run with a report of whether s produced a complete result.
func (r runner) try(ctx context.Context, s Strategy, req Request) ([]int64, bool) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	ids, err := s.Recommend(ctx, req)
	metrics.ObserveStrategy(s.Name(), time.Since(start))
	switch {
	case errors.Is(err, ErrDegraded):
		logger.Ctx(ctx).Debug().Str("strategy", s.Name()).Int("count", len(ids)).Msg("serving degraded result")
		return ids, false
	case err != nil:
		reason := failureReason(err)
		metrics.RecordStrategyFailure(s.Name(), reason)
		logger.Ctx(ctx).Warn().Err(err).
			Str("strategy", s.Name()).
			Str("reason", reason).
			Msg("strategy failed; serving empty result")
		return nil, false
	}
	return ids, true
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case domain.HasCode(err, domain.CodeUpstream):
		return "upstream_unavailable"
	default:
		return "error"
	}
}

// dedupe accumulates ids in first-seen order, skipping blocked ids.
type dedupe struct {
	ids  []int64
	seen map[int64]struct{}
}

func newDedupe(blocked []int64) *dedupe {
	return &dedupe{seen: idSet(blocked)}
}

func (d *dedupe) add(ids ...int64) {
	for _, id := range ids {
		if _, ok := d.seen[id]; ok {
			continue
		}
		d.seen[id] = struct{}{}
		d.ids = append(d.ids, id)
	}
}

func (d *dedupe) len() int { return len(d.ids) }
