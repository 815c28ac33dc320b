package jobs

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/analytics"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

type Clock interface{ Now() time.Time }

// Prewarmer refreshes cached recommendation lists.
type Prewarmer interface {
	PrewarmProduct(ctx context.Context, productID int64) error
	PrewarmCustomer(ctx context.Context, customerID int64) error
	PrewarmTrending(ctx context.Context, limit, days int) error
}

type ActiveCustomers interface {
	// ActiveCustomers returns up to limit distinct customers with a purchase at or after since.
	ActiveCustomers(ctx context.Context, since time.Time, limit int) ([]int64, error)
}

type ActiveProducts interface {
	ListActiveProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
}

// Purger deletes rows created strictly before cutoff and returns how many went.
type Purger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type Reporter interface {
	DailyReport(ctx context.Context, day time.Time) (*analytics.DailyReport, error)
}

// ReportSink stores an exported report under key.
type ReportSink interface {
	PutReport(ctx context.Context, key string, body []byte) error
}
