package model

import (
	"fmt"
	"time"
)

// OrderStatus is the closed set of states an order can be in.  The
// update endpoint accepts any status for any order (no transition graph
// is enforced); delivered and cancelled are considered terminal only in
// the sense that a non-pending order can no longer be deleted.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every valid status in a stable order, matching
// what GET /v1/orders/status-options returns.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderPending, OrderConfirmed, OrderPreparing, OrderDelivered, OrderCancelled}
}

// ParseOrderStatus validates a raw status string against the closed set.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch OrderStatus(raw) {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderDelivered, OrderCancelled:
		return OrderStatus(raw), nil
	}
	return "", fmt.Errorf("unknown order status %q", raw)
}

// Order records a user's placed order.  TotalCents is derived from the
// order's items and is never supplied by the client; after creation it
// always equals the sum of quantity * unit_price_cents over the items.
//
// Fields:
//
//	ID               – primary key identifier.
//	UserID           – user who placed the order.
//	TotalCents       – derived total in minor units.
//	Status           – current order status.
//	DeliveryAddress  – free-text delivery address (max 255 chars).
//	DeliveryTimeSlot – requested delivery window (max 50 chars).
//	CreatedAt        – when the order was placed.
//	UpdatedAt        – last update timestamp.
type Order struct {
	ID               uint64      // orders.id
	UserID           uint64      // orders.user_id
	TotalCents       uint32      // orders.total_cents
	Status           OrderStatus // orders.status
	DeliveryAddress  string      // orders.delivery_address
	DeliveryTimeSlot *string     // orders.delivery_time_slot (nullable)
	CreatedAt        time.Time   // orders.created_at
	UpdatedAt        time.Time   // orders.updated_at
}

// OrderItem is one line of an order.  UnitPriceCents is a snapshot of
// the meal's price at the moment the order was placed and is immutable
// afterwards: later catalog price changes never touch it.
//
// Fields:
//
//	OrderID        – owning order.
//	MealID         – ordered meal.
//	Quantity       – number of units (≥ 1).
//	UnitPriceCents – per-unit price snapshot in minor units.
type OrderItem struct {
	OrderID        uint64 // order_items.order_id
	MealID         uint64 // order_items.meal_id
	Quantity       uint32 // order_items.quantity
	UnitPriceCents uint32 // order_items.unit_price_cents
}
