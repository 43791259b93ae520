package inventory

import (
	"context"
	"time"
)

// OrderPlacedEvent is published once a WhatsApp order has been committed.
type OrderPlacedEvent struct {
	Reference    string
	CustomerName string
	PhoneNumber  string
	Items        []OrderItem
	TotalBill    float64
	PlacedAt     time.Time
}

// OrderNotifier hands a placed order to the confirmation pipeline.
type OrderNotifier interface {
	NotifyOrderPlaced(ctx context.Context, evt OrderPlacedEvent) error
}
