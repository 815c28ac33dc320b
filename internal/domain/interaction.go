package domain

import (
	"time"

	"github.com/google/uuid"
)

type InteractionType string

const (
	InteractionView     InteractionType = "view"
	InteractionClick    InteractionType = "click"
	InteractionCart     InteractionType = "cart"
	InteractionWishlist InteractionType = "wishlist"
	InteractionPurchase InteractionType = "purchase"
	InteractionReview   InteractionType = "review"
	InteractionShare    InteractionType = "share"
	InteractionSearch   InteractionType = "search"
)

var interactionWeights = map[InteractionType]float64{
	InteractionView:     1.0,
	InteractionClick:    1.5,
	InteractionCart:     3.0,
	InteractionWishlist: 2.0,
	InteractionPurchase: 5.0,
	InteractionReview:   2.5,
	InteractionShare:    2.0,
	InteractionSearch:   1.0,
}

// InteractionTypes lists every tracked type in a fixed order.
func InteractionTypes() []InteractionType {
	return []InteractionType{
		InteractionView, InteractionClick, InteractionCart, InteractionWishlist,
		InteractionPurchase, InteractionReview, InteractionShare, InteractionSearch,
	}
}

func (t InteractionType) Valid() bool {
	_, ok := interactionWeights[t]
	return ok
}

// Weight returns the scoring weight of t. Unknown types weigh nothing.
func Weight(t InteractionType) float64 {
	return interactionWeights[t]
}

func ParseInteractionType(s string) (InteractionType, error) {
	t := InteractionType(s)
	if !t.Valid() {
		return "", ErrValidationMeta("invalid interaction type", map[string]string{
			"interaction_type": "must be one of: view, click, cart, wishlist, purchase, review, share, search",
		})
	}
	return t, nil
}

// Interaction is one observed user/product event. Rows are never updated.
type Interaction struct {
	ID              uuid.UUID
	CustomerID      *int64
	SessionID       string
	ProductID       int64
	Type            InteractionType
	Source          string
	SearchQuery     string
	ReferrerURL     string
	DurationSeconds *int
	Position        *int
	CreatedAt       time.Time
}

func (i *Interaction) Anonymous() bool { return i.CustomerID == nil }

// Signal is the (product, type) pair consumed by scoring.
type Signal struct {
	ProductID int64
	Type      InteractionType
}

// ProductCounts aggregates interaction counts for a single product.
type ProductCounts struct {
	ProductID int64
	Counts    map[InteractionType]int64
}

func (c ProductCounts) Count(t InteractionType) int64 {
	if c.Counts == nil {
		return 0
	}
	return c.Counts[t]
}
