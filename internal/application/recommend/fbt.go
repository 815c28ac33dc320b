package recommend

import (
	"context"
	"fmt"
)

// BoughtTogether counts co-occurrence with the seed across delivered orders.
type BoughtTogether struct {
	orders OrderHistory
}

func NewBoughtTogether(orders OrderHistory) *BoughtTogether {
	return &BoughtTogether{orders: orders}
}

func (b *BoughtTogether) Name() string { return NameBoughtTogether }

func (b *BoughtTogether) Recommend(ctx context.Context, req Request) ([]int64, error) {
	if req.ProductID <= 0 {
		return nil, nil
	}

	items, err := b.orders.ListDeliveredOrderItems(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("delivered order items: %w", err)
	}

	skip := idSet(req.Exclude)
	skip[req.ProductID] = struct{}{}

	together := make([]int64, 0, len(items))
	for _, it := range items {
		if _, ok := skip[it.ProductID]; ok {
			continue
		}
		together = append(together, it.ProductID)
	}
	return topN(CountOccurrences(together).Ranked(), req.Limit), nil
}
