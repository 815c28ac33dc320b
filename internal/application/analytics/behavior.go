package analytics

import (
	"context"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/recommend"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

const topGroups = 5

type NamedCount struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type CustomerBehavior struct {
	CustomerID             int64            `json:"customer_id"`
	Days                   int              `json:"days"`
	TotalInteractions      int64            `json:"total_interactions"`
	Views                  int64            `json:"views"`
	CartAdds               int64            `json:"cart_adds"`
	Purchases              int64            `json:"purchases"`
	WishlistAdds           int64            `json:"wishlist_adds"`
	CountsByType           map[string]int64 `json:"counts_by_type"`
	MostViewedCategories   []NamedCount     `json:"most_viewed_categories"`
	FavoriteBrands         []NamedCount     `json:"favorite_brands"`
	AverageSessionDuration float64          `json:"average_session_duration"`
	ConversionRate         float64          `json:"conversion_rate"`
}

// CustomerBehavior summarizes one customer's interactions over the last days.
func (s *Service) CustomerBehavior(ctx context.Context, customerID int64, days int) (*CustomerBehavior, error) {
	if customerID <= 0 {
		return nil, domain.ErrValidationMeta("invalid customer_id", map[string]string{
			"customer_id": "must be a positive integer",
		})
	}
	days, since, err := s.window(days)
	if err != nil {
		return nil, err
	}

	rows, err := s.interactions.CustomerInteractions(ctx, customerID, since)
	if err != nil {
		return nil, fmt.Errorf("customer interactions: %w", err)
	}

	out := &CustomerBehavior{
		CustomerID:           customerID,
		Days:                 days,
		TotalInteractions:    int64(len(rows)),
		CountsByType:         make(map[string]int64, len(domain.InteractionTypes())),
		MostViewedCategories: []NamedCount{},
		FavoriteBrands:       []NamedCount{},
	}
	for _, t := range domain.InteractionTypes() {
		out.CountsByType[string(t)] = 0
	}

	var (
		durationSum   int64
		durationCount int64
		productIDs    []int64
		seen          = map[int64]struct{}{}
	)
	for _, r := range rows {
		out.CountsByType[string(r.Type)]++
		if r.DurationSeconds != nil {
			durationSum += int64(*r.DurationSeconds)
			durationCount++
		}
		if _, ok := seen[r.ProductID]; !ok {
			seen[r.ProductID] = struct{}{}
			productIDs = append(productIDs, r.ProductID)
		}
	}
	out.Views = out.CountsByType[string(domain.InteractionView)]
	out.CartAdds = out.CountsByType[string(domain.InteractionCart)]
	out.Purchases = out.CountsByType[string(domain.InteractionPurchase)]
	out.WishlistAdds = out.CountsByType[string(domain.InteractionWishlist)]
	out.ConversionRate = percent(out.Purchases, out.Views)
	if durationCount > 0 {
		out.AverageSessionDuration = float64(durationSum) / float64(durationCount)
	}

	if len(productIDs) == 0 {
		return out, nil
	}
	products, err := s.products.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("behavior products: %w", err)
	}
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	categories, categoryNames := recommend.NewScoreBoard(), map[int64]string{}
	brands, brandNames := recommend.NewScoreBoard(), map[int64]string{}
	for _, r := range rows {
		p, ok := byID[r.ProductID]
		if !ok {
			continue
		}
		if r.Type == domain.InteractionView {
			categories.Add(p.CategoryID, 1)
			categoryNames[p.CategoryID] = p.CategoryName
		}
		if p.BrandID != nil {
			brands.Add(*p.BrandID, 1)
			brandNames[*p.BrandID] = p.BrandName
		}
	}
	out.MostViewedCategories = topNamed(categories, categoryNames)
	out.FavoriteBrands = topNamed(brands, brandNames)
	return out, nil
}

func topNamed(b *recommend.ScoreBoard, names map[int64]string) []NamedCount {
	ranked := b.Ranked()
	if len(ranked) > topGroups {
		ranked = ranked[:topGroups]
	}
	out := make([]NamedCount, 0, len(ranked))
	for _, id := range ranked {
		out = append(out, NamedCount{ID: id, Name: names[id], Count: int64(b.Score(id))})
	}
	return out
}
