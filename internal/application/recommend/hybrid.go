package recommend

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
)

const (
	hybridRecentViews = 5
	hybridSeedLimit   = 5
)

// Hybrid composes collaborative and content-based candidates for a known
// customer and tops the list up with trending products.
//
// When a personal source fails, or the customer has no personal candidates
// yet, the list is still returned but together with ErrDegraded.
type Hybrid struct {
	collaborative Strategy
	content       Strategy
	trending      Strategy
	log           InteractionLog
	run           runner
}

func NewHybrid(collaborative, content, trending Strategy, log InteractionLog, timeout time.Duration) *Hybrid {
	return &Hybrid{
		collaborative: collaborative,
		content:       content,
		trending:      trending,
		log:           log,
		run:           runner{timeout: timeout},
	}
}

func (h *Hybrid) Name() string { return NamePersonalized }

func (h *Hybrid) Recommend(ctx context.Context, req Request) ([]int64, error) {
	if req.Limit <= 0 {
		return nil, nil
	}

	var (
		collab   []int64
		collabOK bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		collab, collabOK = h.run.try(gctx, h.collaborative, Request{
			CustomerID: req.CustomerID,
			Limit:      req.Limit * 2,
			Exclude:    req.Exclude,
		})
		return nil
	})

	seeds, seedsOK := h.recentViews(gctx, req.CustomerID)
	similar := make([][]int64, len(seeds))
	similarOK := make([]bool, len(seeds))
	for i, seed := range seeds {
		g.Go(func() error {
			similar[i], similarOK[i] = h.run.try(gctx, h.content, Request{ProductID: seed, Limit: hybridSeedLimit})
			return nil
		})
	}
	_ = g.Wait()

	complete := collabOK && seedsOK
	merged := newDedupe(req.Exclude)
	merged.add(collab...)
	for i, ids := range similar {
		complete = complete && similarOK[i]
		merged.add(ids...)
	}
	personal := merged.len()

	if personal < req.Limit {
		merged.add(h.run.run(ctx, h.trending, Request{
			Limit: req.Limit * 2,
			Days:  defaultTrendingDays,
		})...)
	}
	ids := topN(merged.ids, req.Limit)
	if !complete || personal == 0 {
		return ids, ErrDegraded
	}
	return ids, nil
}

func (h *Hybrid) recentViews(ctx context.Context, customerID int64) ([]int64, bool) {
	if customerID == 0 {
		return nil, true
	}
	if h.run.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.run.timeout)
		defer cancel()
	}
	ids, err := h.log.RecentViews(ctx, customerID, hybridRecentViews)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Int64("customer_id", customerID).Msg("recent views unavailable; skipping content seeds")
		return nil, false
	}
	return ids, true
}
