package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/model"
	"github.com/MustafaFares445/healthy/internal/queue"
	"github.com/MustafaFares445/healthy/internal/repository"
	"github.com/MustafaFares445/healthy/internal/service"
)

// OrderHandler groups the repositories needed for order placement and
// management.  Placement runs in a single transaction: the order row,
// the snapshot-priced item lines and the derived total either all land
// or none do.
type OrderHandler struct {
	Orders *repository.OrderRepo
	Meals  *repository.MealRepo
}

// NewOrderHandler constructs an OrderHandler.  Both dependencies must be non-nil.
func NewOrderHandler(orders *repository.OrderRepo, meals *repository.MealRepo) *OrderHandler {
	if orders == nil || meals == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: orders, Meals: meals}
}

// ----- DTOs -----

type orderItemReq struct {
	MealID   uint64 `json:"mealId"`
	Quantity uint32 `json:"quantity"`
}

type createOrderReq struct {
	UserID           uint64         `json:"userId"`
	DeliveryAddress  string         `json:"deliveryAddress"`
	DeliveryTimeSlot *string        `json:"deliveryTimeSlot"`
	Items            []orderItemReq `json:"items"`
}

type updateOrderReq struct {
	Status           *string `json:"status"`
	DeliveryAddress  *string `json:"deliveryAddress"`
	DeliveryTimeSlot *string `json:"deliveryTimeSlot"`
}

// mergeItems collapses duplicate meal ids by summing their quantities.
// The items table keys on (order_id, meal_id), so one line per meal.
// Sums run in uint64 and a merged quantity that no longer fits the
// INT UNSIGNED quantity column is rejected rather than wrapped.
func mergeItems(in []orderItemReq) ([]orderItemReq, *repository.ValidationError) {
	index := make(map[uint64]int, len(in))
	sums := make(map[uint64]uint64, len(in))
	out := make([]orderItemReq, 0, len(in))
	for _, it := range in {
		sums[it.MealID] += uint64(it.Quantity)
		if _, ok := index[it.MealID]; !ok {
			index[it.MealID] = len(out)
			out = append(out, it)
		}
	}
	for i := range out {
		sum := sums[out[i].MealID]
		if sum > math.MaxUint32 {
			return nil, repository.Invalid("items", "combined quantity for a meal is too large")
		}
		out[i].Quantity = uint32(sum)
	}
	return out, nil
}

func validateCreateOrder(req *createOrderReq) *repository.ValidationError {
	if req.UserID == 0 {
		return repository.Invalid("userId", "must be a positive integer")
	}
	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	if req.DeliveryAddress == "" || len(req.DeliveryAddress) > 255 {
		return repository.Invalid("deliveryAddress", "is required and must be at most 255 characters")
	}
	if req.DeliveryTimeSlot != nil && len(*req.DeliveryTimeSlot) > 50 {
		return repository.Invalid("deliveryTimeSlot", "must be at most 50 characters")
	}
	if len(req.Items) == 0 {
		return repository.Invalid("items", "at least one item is required")
	}
	for _, it := range req.Items {
		if it.MealID == 0 {
			return repository.Invalid("items", "mealId must be a positive integer")
		}
		if it.Quantity < 1 {
			return repository.Invalid("items", "quantity must be at least 1")
		}
	}
	return nil
}

// Create handles POST /v1/orders (admin).  Each line's unit price is
// read from the meal exactly once inside the transaction and becomes
// the immutable snapshot; the total is the sum over those snapshots.
// An unknown meal id rolls the whole order back with a 404.
func (h *OrderHandler) Create(c echo.Context) error {
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if ve := validateCreateOrder(&req); ve != nil {
		return validationJSON(c, ve)
	}
	lines, ve := mergeItems(req.Items)
	if ve != nil {
		return validationJSON(c, ve)
	}

	ctx := c.Request().Context()
	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	order := model.Order{
		UserID:           req.UserID,
		DeliveryAddress:  req.DeliveryAddress,
		DeliveryTimeSlot: req.DeliveryTimeSlot,
	}
	if err := h.Orders.CreateTx(ctx, tx, &order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
	}

	items := make([]model.OrderItem, 0, len(lines))
	var total uint64
	for _, line := range lines {
		cents, err := h.Meals.PriceCentsTx(ctx, tx, line.MealID)
		if err != nil {
			if err == repository.ErrMealNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "meal not found", "meal_id": line.MealID})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read meal price"})
		}
		items = append(items, model.OrderItem{
			OrderID:        order.ID,
			MealID:         line.MealID,
			Quantity:       line.Quantity,
			UnitPriceCents: cents,
		})
		total += uint64(line.Quantity) * uint64(cents)
	}
	// The total column is INT UNSIGNED; a sum past that bound is a bad
	// request, not a wrapped value.  The transaction rolls back.
	if total > math.MaxUint32 {
		return validationJSON(c, repository.Invalid("items", "order total exceeds the supported maximum"))
	}
	if err := h.Orders.CreateItemsBulkTx(ctx, tx, items); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order items"})
	}
	if err := h.Orders.UpdateTotalTx(ctx, tx, order.ID, uint32(total)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order total"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	detail, err := h.Orders.GetByID(ctx, order.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load order"})
	}

	// Best effort; the order stands even when the broker is down.
	event := queue.OrderPlacedEvent{
		OrderID:         detail.ID,
		UserID:          detail.UserID,
		Status:          detail.Status,
		DeliveryAddress: detail.DeliveryAddress,
		TotalCents:      detail.TotalCents,
		PlacedAt:        detail.PlacedAt.UTC().Format(time.RFC3339),
	}
	if detail.DeliveryTimeSlot != nil {
		event.DeliveryTimeSlot = *detail.DeliveryTimeSlot
	}
	for _, it := range detail.Items {
		event.Items = append(event.Items, queue.OrderPlacedItem{
			MealID:         it.MealID,
			Title:          it.MealTitle,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = service.PublishOrderPlaced(pctx, event)
	}()

	return c.JSON(http.StatusCreated, echo.Map{"item": detail})
}

// List handles GET /v1/orders (admin) with userId, status, fromDate
// and toDate filters.  Dates bound the day the order was placed.
func (h *OrderHandler) List(c echo.Context) error {
	q := repository.ListOrdersQuery{}
	q.Page, q.PerPage = pageParams(c)

	if raw := c.QueryParam("userId"); raw != "" {
		uid, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || uid == 0 {
			return validationJSON(c, repository.Invalid("userId", "must be a positive integer"))
		}
		q.UserID = uid
	}
	if raw := c.QueryParam("status"); raw != "" {
		st, err := model.ParseOrderStatus(raw)
		if err != nil {
			return validationJSON(c, repository.Invalid("status", "unknown status "+raw))
		}
		q.Status = &st
	}
	if raw := c.QueryParam("fromDate"); raw != "" {
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			return validationJSON(c, repository.Invalid("fromDate", "must be a YYYY-MM-DD date"))
		}
		q.FromDate = raw
	}
	if raw := c.QueryParam("toDate"); raw != "" {
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			return validationJSON(c, repository.Invalid("toDate", "must be a YYYY-MM-DD date"))
		}
		q.ToDate = raw
	}

	details, total, err := h.Orders.List(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list orders"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     details,
		"total":     total,
		"page":      q.Page,
		"per_page":  q.PerPage,
		"last_page": lastPage(total, q.PerPage),
	})
}

// Get handles GET /v1/orders/:id (admin), returning the hydrated order.
func (h *OrderHandler) Get(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	detail, err := h.Orders.GetByID(c.Request().Context(), orderID)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load order"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// Update handles PUT /v1/orders/:id (admin).  Only status, address and
// time slot can change; items and the total are immutable.  Status
// moves freely within the closed enum.
func (h *OrderHandler) Update(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var req updateOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	var status *model.OrderStatus
	if req.Status != nil {
		st, err := model.ParseOrderStatus(*req.Status)
		if err != nil {
			return validationJSON(c, repository.Invalid("status", "unknown status "+*req.Status))
		}
		status = &st
	}
	if req.DeliveryAddress != nil {
		addr := strings.TrimSpace(*req.DeliveryAddress)
		if addr == "" || len(addr) > 255 {
			return validationJSON(c, repository.Invalid("deliveryAddress", "must be non-empty and at most 255 characters"))
		}
		req.DeliveryAddress = &addr
	}
	if req.DeliveryTimeSlot != nil && len(*req.DeliveryTimeSlot) > 50 {
		return validationJSON(c, repository.Invalid("deliveryTimeSlot", "must be at most 50 characters"))
	}

	ctx := c.Request().Context()
	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	order, err := h.Orders.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if status != nil {
		order.Status = *status
	}
	if req.DeliveryAddress != nil {
		order.DeliveryAddress = *req.DeliveryAddress
	}
	if req.DeliveryTimeSlot != nil {
		order.DeliveryTimeSlot = req.DeliveryTimeSlot
	}
	if err := h.Orders.UpdateFieldsTx(ctx, tx, order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	detail, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load order"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// Delete handles DELETE /v1/orders/:id (admin).  Only pending orders
// are deletable; anything further along returns 422.
func (h *OrderHandler) Delete(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()
	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	order, err := h.Orders.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if order.Status != model.OrderPending {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "only pending orders can be deleted"})
	}
	if err := h.Orders.DeleteTx(ctx, tx, orderID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete order"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}

// StatusOptions handles GET /v1/orders/status-options: the closed
// status list clients build pickers from.
func (h *OrderHandler) StatusOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": model.OrderStatuses()})
}
