package analytics

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

type Clock interface{ Now() time.Time }

type InteractionReader interface {
	// CustomerInteractions returns the customer's interactions at or after since, oldest first.
	CustomerInteractions(ctx context.Context, customerID int64, since time.Time) ([]domain.Interaction, error)
	// CountsByProduct aggregates per-product counts by type at or after since, ordered by product id.
	CountsByProduct(ctx context.Context, since time.Time) ([]domain.ProductCounts, error)
	// CountByType counts interactions created in [from, to).
	CountByType(ctx context.Context, from, to time.Time) (map[domain.InteractionType]int64, error)
}

type ExposureReader interface {
	// ListBetween returns exposures created in [from, to), oldest first.
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.Exposure, error)
}

type ProductLookup interface {
	GetProducts(ctx context.Context, ids []int64) ([]domain.Product, error)
}
