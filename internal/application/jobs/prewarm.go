package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
)

const (
	NameRecommendationPrewarm = "recommendation-prewarm"
	NameTrendingPrewarm       = "trending-prewarm"

	activeCustomerWindow = 90 * 24 * time.Hour
	prewarmParallelism   = 4
)

var (
	trendingDays   = []int{1, 7, 30}
	trendingLimits = []int{10, 20, 50}
)

// RecommendationPrewarm refreshes similar-product lists for top active
// products and personalized lists for recently purchasing customers.
type RecommendationPrewarm struct {
	reco          Prewarmer
	products      ActiveProducts
	customers     ActiveCustomers
	clock         Clock
	productLimit  int
	customerLimit int
}

func NewRecommendationPrewarm(reco Prewarmer, products ActiveProducts, customers ActiveCustomers, clock Clock, productLimit, customerLimit int) *RecommendationPrewarm {
	if productLimit <= 0 {
		productLimit = 100
	}
	if customerLimit <= 0 {
		customerLimit = 500
	}
	return &RecommendationPrewarm{
		reco:          reco,
		products:      products,
		customers:     customers,
		clock:         clock,
		productLimit:  productLimit,
		customerLimit: customerLimit,
	}
}

func (j *RecommendationPrewarm) Name() string { return NameRecommendationPrewarm }

func (j *RecommendationPrewarm) Run(ctx context.Context) error {
	products, err := j.products.ListActiveProducts(ctx, domain.ProductFilter{Limit: j.productLimit})
	if err != nil {
		return fmt.Errorf("list active products: %w", err)
	}
	customers, err := j.customers.ActiveCustomers(ctx, j.clock.Now().UTC().Add(-activeCustomerWindow), j.customerLimit)
	if err != nil {
		return fmt.Errorf("list active customers: %w", err)
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prewarmParallelism)
	for _, p := range products {
		g.Go(func() error {
			if err := j.reco.PrewarmProduct(gctx, p.ID); err != nil {
				failed.Add(1)
				logger.Ctx(gctx).Warn().Err(err).Int64("product_id", p.ID).Msg("product prewarm failed")
			}
			return nil
		})
	}
	for _, c := range customers {
		g.Go(func() error {
			if err := j.reco.PrewarmCustomer(gctx, c); err != nil {
				failed.Add(1)
				logger.Ctx(gctx).Warn().Err(err).Int64("customer_id", c).Msg("customer prewarm failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	log := logger.Component("jobs")
	log.Info().
		Int("products", len(products)).
		Int("customers", len(customers)).
		Int64("failed", failed.Load()).
		Msg("recommendations prewarmed")
	return nil
}

// TrendingPrewarm refreshes trending lists for the canonical windows and limits.
type TrendingPrewarm struct {
	reco Prewarmer
}

func NewTrendingPrewarm(reco Prewarmer) *TrendingPrewarm {
	return &TrendingPrewarm{reco: reco}
}

func (j *TrendingPrewarm) Name() string { return NameTrendingPrewarm }

func (j *TrendingPrewarm) Run(ctx context.Context) error {
	var errs []error
	for _, days := range trendingDays {
		for _, limit := range trendingLimits {
			if err := j.reco.PrewarmTrending(ctx, limit, days); err != nil {
				errs = append(errs, fmt.Errorf("trending days=%d limit=%d: %w", days, limit, err))
			}
		}
	}
	if len(errs) == len(trendingDays)*len(trendingLimits) {
		return errs[0]
	}
	for _, err := range errs {
		logger.Ctx(ctx).Warn().Err(err).Msg("trending prewarm partially failed")
	}
	return nil
}
