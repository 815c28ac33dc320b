package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

// OrderGateway reads delivered order lines from the orders database.
type OrderGateway struct {
	db *sql.DB
	br *breaker
}

func NewOrderGateway(db *sql.DB, s BreakerSettings) *OrderGateway {
	return &OrderGateway{db: db, br: newBreaker("orders", s)}
}

// ListDeliveredOrderItems returns every line item of the delivered orders
// that contain productID, the product's own lines included.
func (g *OrderGateway) ListDeliveredOrderItems(ctx context.Context, productID int64) ([]domain.OrderItem, error) {
	return do(g.br, func() ([]domain.OrderItem, error) {
		rows, err := g.db.QueryContext(ctx, deliveredOrderItemsSQL, productID)
		if err != nil {
			return nil, fmt.Errorf("query order items: %w", err)
		}
		defer rows.Close()

		var out []domain.OrderItem
		for rows.Next() {
			var it domain.OrderItem
			if err := rows.Scan(&it.OrderID, &it.ProductID); err != nil {
				return nil, err
			}
			out = append(out, it)
		}
		return out, rows.Err()
	})
}
