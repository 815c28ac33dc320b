package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

const (
	RoutingKeyOrderDelivered = "order.delivered"

	envelopeVersion = 1
)

// PurchaseRecorder attributes a completed purchase to earlier recommendations.
type PurchaseRecorder interface {
	RecordPurchase(ctx context.Context, customerID int64, productIDs []int64, at time.Time) error
}

// Envelope is the outer wrapper of every domain event on the exchange.
type Envelope struct {
	Version    int             `json:"version"`
	MessageID  string          `json:"message_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type OrderDeliveredPayload struct {
	OrderID     int64     `json:"order_id"`
	CustomerID  int64     `json:"customer_id"`
	ProductIDs  []int64   `json:"product_ids"`
	PlacedAt    time.Time `json:"placed_at"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// purchasedAt is the moment the customer bought, not when the parcel arrived.
func (p OrderDeliveredPayload) purchasedAt(env Envelope) time.Time {
	for _, t := range []time.Time{p.PlacedAt, p.DeliveredAt, env.OccurredAt} {
		if !t.IsZero() {
			return t
		}
	}
	return time.Now().UTC()
}

// errPoison marks a message that will never succeed and must not be requeued.
var errPoison = errors.New("poison message")

// handleMessage decodes and dispatches one delivery body.
func handleMessage(ctx context.Context, rec PurchaseRecorder, routingKey string, body []byte) error {
	if routingKey != RoutingKeyOrderDelivered {
		return fmt.Errorf("%w: unexpected routing key %q", errPoison, routingKey)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: bad envelope: %v", errPoison, err)
	}
	if env.Version != envelopeVersion {
		return fmt.Errorf("%w: unsupported envelope version %d", errPoison, env.Version)
	}

	var p OrderDeliveredPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("%w: bad payload: %v", errPoison, err)
	}
	if p.CustomerID <= 0 || len(p.ProductIDs) == 0 {
		return fmt.Errorf("%w: order %d has no customer or products", errPoison, p.OrderID)
	}

	return rec.RecordPurchase(ctx, p.CustomerID, p.ProductIDs, p.purchasedAt(env))
}
