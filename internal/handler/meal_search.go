package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/model"
	"github.com/MustafaFares445/healthy/internal/repository"
)

// searchMealsReq is the public search body.  Absent fields are nil and
// impose no constraint; filters compose as a logical AND.
type searchMealsReq struct {
	Query         string   `json:"query"`
	DietType      *string  `json:"dietType"`
	MinPrice      *float64 `json:"minPrice"`
	MaxPrice      *float64 `json:"maxPrice"`
	IsAvailable   *bool    `json:"isAvailable"`
	AllergenIDs   []uint64 `json:"allergenIds"`
	IngredientIDs []uint64 `json:"ingredientIds"`
	MinRating     *float64 `json:"minRating"`
	OwnerID       *uint64  `json:"ownerId"`
	SortBy        string   `json:"sortBy"`
	SortDirection string   `json:"sortDirection"`
	Page          int      `json:"page"`
	PerPage       int      `json:"perPage"`
}

// Search handles POST /v1/meals/search, the public filter engine.
// Validation failures come back as 422 with the offending field.
func (h *MealHandler) Search(c echo.Context) error {
	var req searchMealsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	q := repository.MealSearchQuery{
		Query:         req.Query,
		MinPrice:      req.MinPrice,
		MaxPrice:      req.MaxPrice,
		IsAvailable:   req.IsAvailable,
		AllergenIDs:   req.AllergenIDs,
		IngredientIDs: req.IngredientIDs,
		MinRating:     req.MinRating,
		OwnerID:       req.OwnerID,
		SortBy:        req.SortBy,
		SortDirection: req.SortDirection,
		Page:          req.Page,
		PerPage:       req.PerPage,
	}
	if req.DietType != nil && *req.DietType != "" {
		dt, err := model.ParseDietType(*req.DietType)
		if err != nil {
			return validationJSON(c, repository.Invalid("dietType", "unknown diet type "+*req.DietType))
		}
		q.DietType = &dt
	}

	rows, total, err := h.Meals.Search(c.Request().Context(), q)
	if err != nil {
		if ve, ok := repository.AsValidation(err); ok {
			return validationJSON(c, ve)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}

	page := q.Page
	perPage := q.PerPage
	if page == 0 {
		page = 1
	}
	if perPage == 0 {
		perPage = 15
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     rows,
		"total":     total,
		"page":      page,
		"per_page":  perPage,
		"last_page": lastPage(total, perPage),
	})
}
