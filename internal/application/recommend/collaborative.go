package recommend

import (
	"context"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

const maxSimilarCustomers = 100

var (
	ownedTypes = []domain.InteractionType{
		domain.InteractionPurchase, domain.InteractionCart, domain.InteractionWishlist,
	}
	similarityTypes = []domain.InteractionType{
		domain.InteractionPurchase, domain.InteractionCart,
	}
)

// Collaborative recommends what customers with overlapping purchases engaged with.
type Collaborative struct {
	log InteractionLog
}

func NewCollaborative(log InteractionLog) *Collaborative {
	return &Collaborative{log: log}
}

func (c *Collaborative) Name() string { return NameCollaborative }

func (c *Collaborative) Recommend(ctx context.Context, req Request) ([]int64, error) {
	if req.CustomerID == 0 {
		return nil, nil
	}

	owned, err := c.log.OwnedProducts(ctx, req.CustomerID, ownedTypes)
	if err != nil {
		return nil, fmt.Errorf("owned products: %w", err)
	}
	if len(owned) == 0 {
		return nil, nil
	}

	similar, err := c.log.CustomersWhoInteracted(ctx, owned, similarityTypes, req.CustomerID, maxSimilarCustomers)
	if err != nil {
		return nil, fmt.Errorf("similar customers: %w", err)
	}
	if len(similar) == 0 {
		return nil, nil
	}

	excluded := append(append([]int64{}, owned...), req.Exclude...)
	signals, err := c.log.SignalsByCustomers(ctx, similar, excluded)
	if err != nil {
		return nil, fmt.Errorf("similar customer signals: %w", err)
	}

	skip := idSet(excluded)
	board := NewScoreBoard()
	for _, s := range signals {
		if _, ok := skip[s.ProductID]; ok {
			continue
		}
		board.Add(s.ProductID, domain.Weight(s.Type))
	}
	return topN(board.Ranked(), req.Limit), nil
}
