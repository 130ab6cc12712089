package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/MustafaFares445/healthy/internal/model"
)

// OrderRepo provides CRUD operations for orders and their line items.
// Line items snapshot the meal's unit price at order time and are
// immutable afterwards; every order's total is recomputed wholly from
// its own item set inside its own transaction, never incrementally
// mutated.  All timestamp fields are assumed to be stored in UTC.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new order within the scope of an existing
// transaction.  The order starts in status pending with a zero total;
// the caller fills in the real total via UpdateTotalTx once the items
// exist.  The generated ID and server-side defaults are populated on
// the provided struct.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO orders (user_id, total_cents, status, delivery_address, delivery_time_slot)
        VALUES (?, 0, 'pending', ?, ?)`
	res, err := tx.ExecContext(ctx, q, o.UserID, o.DeliveryAddress, o.DeliveryTimeSlot)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return scanOrderTx(ctx, tx, o)
}

// CreateItemsBulkTx inserts all order item lines in a single statement.
// The caller must supply the order ID in each item.  Passing an empty
// slice has no effect and returns nil.
func (r *OrderRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, meal_id, quantity, unit_price_cents) VALUES `
	args := make([]any, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, it.OrderID, it.MealID, it.Quantity, it.UnitPriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// UpdateTotalTx sets the order's derived total.  Called exactly once
// per placement, after every item line has been created.
func (r *OrderRepo) UpdateTotalTx(ctx context.Context, tx *sql.Tx, orderID uint64, totalCents uint32) error {
	_, err := tx.ExecContext(ctx, `UPDATE orders SET total_cents = ? WHERE id = ?`, totalCents, orderID)
	return err
}

const orderColumns = `id, user_id, total_cents, status, delivery_address, delivery_time_slot, created_at, updated_at`

func scanOrder(row *sql.Row, o *model.Order) error {
	var slot sql.NullString
	var status string
	err := row.Scan(&o.ID, &o.UserID, &o.TotalCents, &status, &o.DeliveryAddress, &slot, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}
	o.Status = model.OrderStatus(status)
	if slot.Valid {
		s := slot.String
		o.DeliveryTimeSlot = &s
	} else {
		o.DeliveryTimeSlot = nil
	}
	return nil
}

func scanOrderTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const sel = `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	return scanOrder(tx.QueryRowContext(ctx, sel, o.ID), o)
}

// OrderItemDetail is one hydrated order line for responses: the
// snapshot price together with the referenced meal's title.
type OrderItemDetail struct {
	MealID         uint64  `json:"meal_id"`
	MealTitle      string  `json:"meal_title"`
	Quantity       uint32  `json:"quantity"`
	UnitPriceCents uint32  `json:"unit_price_cents"`
	UnitPrice      float64 `json:"unit_price"`
	LineTotalCents uint64  `json:"line_total_cents"`
}

// OrderDetail is a fully hydrated order: the order row plus its items
// and derived major-unit totals.
type OrderDetail struct {
	ID               uint64            `json:"id"`
	UserID           uint64            `json:"user_id"`
	Status           string            `json:"status"`
	TotalCents       uint32            `json:"total_cents"`
	Total            float64           `json:"total"`
	DeliveryAddress  string            `json:"delivery_address"`
	DeliveryTimeSlot *string           `json:"delivery_time_slot"`
	PlacedAt         time.Time         `json:"placed_at"`
	Items            []OrderItemDetail `json:"items"`
}

// GetByID returns a single hydrated order.  Returns ErrOrderNotFound
// when no order with the given id exists.
func (r *OrderRepo) GetByID(ctx context.Context, orderID uint64) (*OrderDetail, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	var o model.Order
	if err := scanOrder(r.db.QueryRowContext(ctx, q, orderID), &o); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	det := detailFromOrder(&o)
	const itemQ = `SELECT oi.meal_id, m.title, oi.quantity, oi.unit_price_cents
        FROM order_items oi
        JOIN meals m ON m.id = oi.meal_id
        WHERE oi.order_id = ?
        ORDER BY oi.meal_id`
	rows, err := r.db.QueryContext(ctx, itemQ, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItemDetail
		if err := rows.Scan(&it.MealID, &it.MealTitle, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		it.UnitPrice = float64(it.UnitPriceCents) / 100.0
		it.LineTotalCents = uint64(it.Quantity) * uint64(it.UnitPriceCents)
		det.Items = append(det.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return det, nil
}

func detailFromOrder(o *model.Order) *OrderDetail {
	return &OrderDetail{
		ID:               o.ID,
		UserID:           o.UserID,
		Status:           string(o.Status),
		TotalCents:       o.TotalCents,
		Total:            float64(o.TotalCents) / 100.0,
		DeliveryAddress:  o.DeliveryAddress,
		DeliveryTimeSlot: o.DeliveryTimeSlot,
		PlacedAt:         o.CreatedAt,
		Items:            []OrderItemDetail{},
	}
}

// ListOrdersQuery holds the filters accepted by GET /v1/orders.  Dates
// apply to the day the order was placed (inclusive bounds).
type ListOrdersQuery struct {
	UserID   uint64
	Status   *model.OrderStatus
	FromDate string // YYYY-MM-DD
	ToDate   string // YYYY-MM-DD
	Page     int
	PerPage  int
}

// List returns one page of hydrated orders, newest first, with the
// total matching count.  Items for the whole page are fetched in a
// single query.
func (r *OrderRepo) List(ctx context.Context, q ListOrdersQuery) ([]OrderDetail, int64, error) {
	where := []string{}
	args := []any{}
	if q.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*q.Status))
	}
	if q.FromDate != "" {
		where = append(where, "DATE(created_at) >= ?")
		args = append(args, q.FromDate)
	}
	if q.ToDate != "" {
		where = append(where, "DATE(created_at) <= ?")
		args = append(args, q.ToDate)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PerPage
	offset := (q.Page - 1) * q.PerPage
	dataSQL := `SELECT ` + orderColumns + ` FROM orders WHERE ` + cond +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	details := make([]OrderDetail, 0, limit)
	index := make(map[uint64]int)
	for rows.Next() {
		var o model.Order
		var slot sql.NullString
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalCents, &status, &o.DeliveryAddress, &slot, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		o.Status = model.OrderStatus(status)
		if slot.Valid {
			s := slot.String
			o.DeliveryTimeSlot = &s
		}
		index[o.ID] = len(details)
		details = append(details, *detailFromOrder(&o))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(details) == 0 {
		return details, total, nil
	}

	// Populate items for all orders in a single query.
	ids := make([]any, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	itemQ := `SELECT oi.order_id, oi.meal_id, m.title, oi.quantity, oi.unit_price_cents
        FROM order_items oi
        JOIN meals m ON m.id = oi.meal_id
        WHERE oi.order_id IN (` + strings.Join(placeholders, ",") + `)
        ORDER BY oi.order_id, oi.meal_id`
	irows, err := r.db.QueryContext(ctx, itemQ, ids...)
	if err != nil {
		return nil, 0, err
	}
	defer irows.Close()
	for irows.Next() {
		var oid uint64
		var it OrderItemDetail
		if err := irows.Scan(&oid, &it.MealID, &it.MealTitle, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, 0, err
		}
		idx, ok := index[oid]
		if !ok {
			continue
		}
		it.UnitPrice = float64(it.UnitPriceCents) / 100.0
		it.LineTotalCents = uint64(it.Quantity) * uint64(it.UnitPriceCents)
		details[idx].Items = append(details[idx].Items, it)
	}
	if err := irows.Err(); err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// GetForUpdateTx loads the order row inside a transaction so the
// handler can merge a partial update or check the status before a
// delete.  Returns ErrOrderNotFound when the id is unknown.
func (r *OrderRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, orderID uint64) (*model.Order, error) {
	o := model.Order{ID: orderID}
	if err := scanOrderTx(ctx, tx, &o); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// UpdateFieldsTx persists the mutable order fields: status, delivery
// address and delivery time slot.  Line items and the total are left
// untouched; items are immutable after creation.
func (r *OrderRepo) UpdateFieldsTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `UPDATE orders SET status = ?, delivery_address = ?, delivery_time_slot = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, string(o.Status), o.DeliveryAddress, o.DeliveryTimeSlot, o.ID)
	if err != nil {
		return err
	}
	return scanOrderTx(ctx, tx, o)
}

// DeleteTx hard-deletes an order and its items.  The pending-only rule
// is enforced by the handler before calling this.
func (r *OrderRepo) DeleteTx(ctx context.Context, tx *sql.Tx, orderID uint64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, orderID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, orderID)
	return err
}
