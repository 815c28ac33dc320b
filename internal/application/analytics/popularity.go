package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

const maxPopularProducts = 50

type ProductPopularity struct {
	ProductID       int64   `json:"product_id"`
	Name            string  `json:"name"`
	ViewCount       int64   `json:"view_count"`
	CartCount       int64   `json:"cart_count"`
	PurchaseCount   int64   `json:"purchase_count"`
	WishlistCount   int64   `json:"wishlist_count"`
	ConversionRate  float64 `json:"conversion_rate"`
	PopularityScore float64 `json:"popularity_score"`
}

// ProductPopularity ranks active products by a weighted interaction score.
func (s *Service) ProductPopularity(ctx context.Context, days int) ([]ProductPopularity, error) {
	_, since, err := s.window(days)
	if err != nil {
		return nil, err
	}

	counts, err := s.interactions.CountsByProduct(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("product counts: %w", err)
	}
	if len(counts) == 0 {
		return []ProductPopularity{}, nil
	}

	ids := make([]int64, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.ProductID)
	}
	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("popularity products: %w", err)
	}
	active := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		if p.IsActive {
			active[p.ID] = p
		}
	}

	out := make([]ProductPopularity, 0, len(counts))
	for _, c := range counts {
		p, ok := active[c.ProductID]
		if !ok {
			continue
		}
		views := c.Count(domain.InteractionView)
		carts := c.Count(domain.InteractionCart)
		purchases := c.Count(domain.InteractionPurchase)
		wishlists := c.Count(domain.InteractionWishlist)
		out = append(out, ProductPopularity{
			ProductID:       p.ID,
			Name:            p.Name,
			ViewCount:       views,
			CartCount:       carts,
			PurchaseCount:   purchases,
			WishlistCount:   wishlists,
			ConversionRate:  percent(purchases, views),
			PopularityScore: float64(views*1 + carts*3 + purchases*5 + wishlists*2),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PopularityScore > out[j].PopularityScore
	})
	if len(out) > maxPopularProducts {
		out = out[:maxPopularProducts]
	}
	return out, nil
}
