// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPlacedItem is one line of an order as carried in events.
type OrderPlacedItem struct {
	MealID         uint64 `json:"meal_id"`
	Title          string `json:"title"`
	Quantity       uint32 `json:"quantity"`
	UnitPriceCents uint32 `json:"unit_price_cents"`
}

// OrderPlacedEvent is published when an order is created.  It carries
// enough detail for downstream consumers to log, notify or feed
// analytics without querying the primary database.
type OrderPlacedEvent struct {
	OrderID          uint64            `json:"order_id"`
	UserID           uint64            `json:"user_id"`
	Status           string            `json:"status"`
	DeliveryAddress  string            `json:"delivery_address"`
	DeliveryTimeSlot string            `json:"delivery_time_slot,omitempty"`
	Items            []OrderPlacedItem `json:"items"`
	TotalCents       uint32            `json:"total_cents"`
	PlacedAt         string            `json:"placed_at"`
}
