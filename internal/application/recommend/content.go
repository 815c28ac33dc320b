package recommend

import (
	"context"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

// ContentBased recommends active products sharing the seed's category or brand.
type ContentBased struct {
	catalog Catalog
}

func NewContentBased(catalog Catalog) *ContentBased {
	return &ContentBased{catalog: catalog}
}

func (c *ContentBased) Name() string { return NameContentBased }

func (c *ContentBased) Recommend(ctx context.Context, req Request) ([]int64, error) {
	if req.ProductID <= 0 {
		return nil, nil
	}

	seed, err := c.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		if domain.HasCode(err, domain.CodeNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("seed product: %w", err)
	}
	if !seed.IsActive {
		return nil, nil
	}

	products, err := c.catalog.ListActiveProducts(ctx, domain.ProductFilter{
		SharesWith: seed,
		ExcludeIDs: append([]int64{seed.ID}, req.Exclude...),
		Limit:      req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("similar products: %w", err)
	}

	out := make([]int64, 0, len(products))
	for _, p := range products {
		if p.ID == seed.ID {
			continue
		}
		out = append(out, p.ID)
	}
	return topN(out, req.Limit), nil
}
