package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/model"
	"github.com/MustafaFares445/healthy/internal/repository"
	"github.com/MustafaFares445/healthy/internal/service"
)

// HomeHandler serves the storefront landing endpoints.
type HomeHandler struct {
	Meals       *repository.MealRepo
	Recommender *service.Recommender
}

func NewHomeHandler(meals *repository.MealRepo, rec *service.Recommender) *HomeHandler {
	if meals == nil || rec == nil {
		panic("nil dependency passed to NewHomeHandler")
	}
	return &HomeHandler{Meals: meals, Recommender: rec}
}

// Matched handles GET /v1/home/meals/matched (auth).  The list comes
// from the external recommender; when it is unreachable the response
// is an empty list rather than an error.
func (h *HomeHandler) Matched(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	meals, err := h.Recommender.MatchedMeals(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]mealResp, 0, len(meals))
	for i := range meals {
		items = append(items, mealJSON(&meals[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ByType handles GET /v1/home/meals/types?dietType=... (public).
func (h *HomeHandler) ByType(c echo.Context) error {
	raw := c.QueryParam("dietType")
	if raw == "" {
		return validationJSON(c, repository.Invalid("dietType", "is required"))
	}
	diet, err := model.ParseDietType(raw)
	if err != nil {
		return validationJSON(c, repository.Invalid("dietType", "must be one of the supported diet types"))
	}
	meals, err := h.Meals.ByDietType(c.Request().Context(), diet)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]mealResp, 0, len(meals))
	for i := range meals {
		items = append(items, mealJSON(&meals[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
