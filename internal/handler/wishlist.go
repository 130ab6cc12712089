package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/repository"
)

// WishlistHandler manages the caller's saved-meals list.
type WishlistHandler struct {
	Wishlists *repository.WishlistRepo
	Meals     *repository.MealRepo
}

func NewWishlistHandler(wishlists *repository.WishlistRepo, meals *repository.MealRepo) *WishlistHandler {
	if wishlists == nil || meals == nil {
		panic("nil repository passed to NewWishlistHandler")
	}
	return &WishlistHandler{Wishlists: wishlists, Meals: meals}
}

type addWishlistReq struct {
	MealID uint64 `json:"mealId"`
}

// Get handles GET /v1/wishlist (auth).  Returns the caller's saved
// meals, most recently added first.
func (h *WishlistHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	ids, err := h.Wishlists.MealIDs(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	meals, err := h.Meals.ByIDs(ctx, ids)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	// ByIDs does not promise an order, so re-sort by wishlist recency.
	byID := make(map[uint64]int, len(meals))
	for i := range meals {
		byID[meals[i].ID] = i
	}
	items := make([]mealResp, 0, len(ids))
	for _, id := range ids {
		if i, ok := byID[id]; ok {
			items = append(items, mealJSON(&meals[i]))
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Add handles POST /v1/wishlist (auth).  Adding a meal that is already
// saved is a no-op so the endpoint stays idempotent.
func (h *WishlistHandler) Add(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req addWishlistReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.MealID == 0 {
		return validationJSON(c, repository.Invalid("mealId", "must be a positive integer"))
	}
	ctx := c.Request().Context()
	if _, err := h.Meals.GetByID(ctx, req.MealID); err != nil {
		if err == repository.ErrMealNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "meal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Wishlists.Add(ctx, userID, req.MealID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add to wishlist"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "meal added to wishlist"})
}

// Remove handles DELETE /v1/wishlist/:mealId (auth).  Removing a meal
// that is not saved succeeds silently.
func (h *WishlistHandler) Remove(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	mealID, err := pathID(c, "mealId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid meal id"})
	}
	if err := h.Wishlists.Remove(c.Request().Context(), userID, mealID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove from wishlist"})
	}
	return c.NoContent(http.StatusNoContent)
}
