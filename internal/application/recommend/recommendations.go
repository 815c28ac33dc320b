package recommend

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/metrics"
)

// GetRecommendations serves one of the four exposure strategies. Anonymous
// personalized requests are answered with trending products.
func (s *Service) GetRecommendations(ctx context.Context, v Viewer, q RecommendationQuery) (*Result, error) {
	st, err := domain.ParseStrategy(q.Strategy)
	if err != nil {
		return nil, err
	}
	limit, err := normalizeRange("limit", q.Limit, defaultLimit, maxRecommendLimit)
	if err != nil {
		return nil, err
	}
	page, err := domain.ParsePageType(q.PageType)
	if err != nil {
		return nil, err
	}

	var (
		ids    []int64
		source *int64
	)
	switch st {
	case domain.StrategyContentBased:
		if q.ProductID <= 0 {
			return nil, domain.ErrValidationMeta("product_id is required for content-based recommendations", map[string]string{
				"product_id": "required",
			})
		}
		pid := q.ProductID
		source = &pid
		ids = s.run.run(ctx, s.content, Request{ProductID: pid, Limit: limit, Exclude: q.Exclude})

	case domain.StrategyCollaborative:
		if v.Anonymous() {
			return nil, domain.ErrUnauthorized("authentication required for collaborative recommendations")
		}
		ids = s.keepActive(ctx, s.run.run(ctx, s.collaborative, Request{CustomerID: v.CustomerID, Limit: limit, Exclude: q.Exclude}))

	case domain.StrategyTrending:
		ids = s.run.run(ctx, s.trending, Request{Limit: limit, Days: defaultTrendingDays, Exclude: q.Exclude})

	case domain.StrategyPersonalized:
		if v.Anonymous() {
			st = domain.StrategyTrending
			ids = s.run.run(ctx, s.trending, Request{Limit: limit, Days: defaultTrendingDays, Exclude: q.Exclude})
			break
		}
		ids = s.keepActive(ctx, s.run.run(ctx, s.personalized, Request{CustomerID: v.CustomerID, Limit: limit, Exclude: q.Exclude}))
	}

	return s.serve(ctx, v, st, ids, source, page), nil
}

// GetSimilarProducts returns content-based neighbours of productID.
func (s *Service) GetSimilarProducts(ctx context.Context, v Viewer, productID int64, limit int) (*Result, error) {
	if err := requireProduct(productID); err != nil {
		return nil, err
	}
	limit, err := normalizeRange("limit", limit, defaultLimit, maxSimilarLimit)
	if err != nil {
		return nil, err
	}

	ids := s.run.run(ctx, s.content, Request{ProductID: productID, Limit: limit})
	return s.serve(ctx, v, domain.StrategyContentBased, ids, &productID, domain.PageProduct), nil
}

func (s *Service) GetTrending(ctx context.Context, v Viewer, q TrendingQuery) (*Result, error) {
	limit, err := normalizeRange("limit", q.Limit, defaultLimit, maxRecommendLimit)
	if err != nil {
		return nil, err
	}
	days, err := normalizeRange("days", q.Days, defaultTrendingDays, maxTrendingDays)
	if err != nil {
		return nil, err
	}

	ids := s.run.run(ctx, s.trending, Request{Limit: limit, Days: days, CategoryID: q.CategoryID})
	return s.serve(ctx, v, domain.StrategyTrending, ids, nil, domain.PageHomepage), nil
}

// GetPersonalized runs the hybrid composer for an authenticated customer.
func (s *Service) GetPersonalized(ctx context.Context, v Viewer, q PersonalizedQuery) (*Result, error) {
	if v.Anonymous() {
		return nil, domain.ErrUnauthorized("authentication required for personalized recommendations")
	}
	limit, err := normalizeRange("limit", q.Limit, defaultLimit, maxRecommendLimit)
	if err != nil {
		return nil, err
	}
	page, err := domain.ParsePageType(q.PageType)
	if err != nil {
		return nil, err
	}

	ids := s.keepActive(ctx, s.run.run(ctx, s.personalized, Request{CustomerID: v.CustomerID, Limit: limit, Exclude: q.Exclude}))
	return s.serve(ctx, v, domain.StrategyPersonalized, ids, nil, page), nil
}

func (s *Service) GetFrequentlyBoughtTogether(ctx context.Context, productID int64, limit int) ([]int64, error) {
	if err := requireProduct(productID); err != nil {
		return nil, err
	}
	limit, err := normalizeRange("limit", limit, defaultTogetherLimit, maxTogetherLimit)
	if err != nil {
		return nil, err
	}

	ids := s.keepActive(ctx, s.run.run(ctx, s.together, Request{ProductID: productID, Limit: limit}))
	metrics.RecordServed(NameBoughtTogether)
	return nonNil(ids), nil
}

// GetRecentlyViewed lists the customer's distinct viewed products, newest first.
func (s *Service) GetRecentlyViewed(ctx context.Context, v Viewer, limit int, exclude []int64) ([]int64, error) {
	if v.Anonymous() {
		return nil, domain.ErrUnauthorized("authentication required for recently viewed products")
	}
	limit, err := normalizeRange("limit", limit, defaultLimit, maxRecentLimit)
	if err != nil {
		return nil, err
	}

	lookup, cancel := context.WithTimeout(ctx, s.opts.StrategyTimeout)
	defer cancel()
	// over-fetch so inactive products do not shrink the page
	ids, err := s.interactions.RecentlyViewed(lookup, v.CustomerID, exclude, limit*2)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Int64("customer_id", v.CustomerID).Msg("recently viewed unavailable")
		return []int64{}, nil
	}
	return nonNil(topN(s.keepActive(ctx, ids), limit)), nil
}

func (s *Service) serve(ctx context.Context, v Viewer, st domain.Strategy, ids []int64, source *int64, page domain.PageType) *Result {
	ids = nonNil(ids)
	metrics.RecordServed(string(st))
	return &Result{
		Strategy:        st,
		ProductIDs:      ids,
		SourceProductID: source,
		ExposureID:      s.logExposure(ctx, v, st, ids, source, page),
	}
}

// keepActive drops inactive products while preserving order. When the catalog
// cannot be reached the list is returned unfiltered.
func (s *Service) keepActive(ctx context.Context, ids []int64) []int64 {
	if len(ids) == 0 || s.catalog == nil {
		return ids
	}
	lookup, cancel := context.WithTimeout(ctx, s.opts.StrategyTimeout)
	defer cancel()

	active, err := s.catalog.ListActiveProducts(lookup, domain.ProductFilter{IDs: ids})
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("active filter skipped; catalog unavailable")
		return ids
	}
	keep := make(map[int64]struct{}, len(active))
	for _, p := range active {
		keep[p.ID] = struct{}{}
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := keep[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
