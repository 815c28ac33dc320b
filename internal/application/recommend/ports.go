package recommend

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

type Clock interface{ Now() time.Time }

// InteractionLog is the read side of the interaction store used by strategies.
type InteractionLog interface {
	// OwnedProducts returns distinct products the customer interacted with using any of types.
	OwnedProducts(ctx context.Context, customerID int64, types []domain.InteractionType) ([]int64, error)
	// CustomersWhoInteracted returns up to limit distinct customers (other than excludeCustomer)
	// with an interaction of one of types on any of productIDs.
	CustomersWhoInteracted(ctx context.Context, productIDs []int64, types []domain.InteractionType, excludeCustomer int64, limit int) ([]int64, error)
	// SignalsByCustomers returns interactions of customerIDs outside excludeProducts, oldest first.
	SignalsByCustomers(ctx context.Context, customerIDs []int64, excludeProducts []int64) ([]domain.Signal, error)
	// SignalsSince returns every interaction created at or after since, oldest first.
	SignalsSince(ctx context.Context, since time.Time) ([]domain.Signal, error)
	// RecentViews returns product ids of the customer's latest views, newest first, duplicates kept.
	RecentViews(ctx context.Context, customerID int64, limit int) ([]int64, error)
	// RecentlyViewed returns distinct viewed products, most recent first.
	RecentlyViewed(ctx context.Context, customerID int64, exclude []int64, limit int) ([]int64, error)
}

// InteractionWriter persists tracked interactions.
type InteractionWriter interface {
	Append(ctx context.Context, in *domain.Interaction) error
}

type ExposureStore interface {
	Create(ctx context.Context, e *domain.Exposure) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Exposure, error)
	// AppendClick appends productID to the clicked list if it was recommended and not yet clicked.
	AppendClick(ctx context.Context, id uuid.UUID, productID int64) error
	MarkConverted(ctx context.Context, id uuid.UUID) error
	// MarkConvertedByPurchase flags exposures of customerID created within
	// [since, until] that recommended any of productIDs. Returns the number of
	// rows changed.
	MarkConvertedByPurchase(ctx context.Context, customerID int64, productIDs []int64, since, until time.Time) (int64, error)
}

type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListActiveProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
}

type OrderHistory interface {
	ListDeliveredOrderItems(ctx context.Context, productID int64) ([]domain.OrderItem, error)
}

// Cache is the recommendation cache backing store. Values round-trip as JSON.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Tracker runs jobs asynchronously. Submit must not block and reports
// whether the job was accepted.
type Tracker interface {
	Submit(job func(ctx context.Context)) bool
}
