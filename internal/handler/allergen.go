package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/repository"
)

// AllergenHandler manages the allergen catalog.  Deleting an allergen
// that any meal still declares is refused with 422.
type AllergenHandler struct {
	Allergens *repository.AllergenRepo
}

func NewAllergenHandler(allergens *repository.AllergenRepo) *AllergenHandler {
	if allergens == nil {
		panic("nil repository passed to NewAllergenHandler")
	}
	return &AllergenHandler{Allergens: allergens}
}

type allergenReq struct {
	Name string `json:"name"`
}

func (r *allergenReq) normalize() *repository.ValidationError {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" || len(r.Name) > 100 {
		return repository.Invalid("name", "name is required and must be at most 100 characters")
	}
	return nil
}

// List handles GET /v1/allergens with an optional name search.
func (h *AllergenHandler) List(c echo.Context) error {
	page, perPage := pageParams(c)
	rows, total, err := h.Allergens.List(c.Request().Context(), strings.TrimSpace(c.QueryParam("search")), page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list allergens"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     rows,
		"total":     total,
		"page":      page,
		"per_page":  perPage,
		"last_page": lastPage(total, perPage),
	})
}

// Create handles POST /v1/allergens.
func (h *AllergenHandler) Create(c echo.Context) error {
	var req allergenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if ve := req.normalize(); ve != nil {
		return validationJSON(c, ve)
	}
	a, err := h.Allergens.Create(c.Request().Context(), req.Name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create allergen"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": repository.AllergenRow{ID: a.ID, Name: a.Name}})
}

// Get handles GET /v1/allergens/:id, returning the allergen with its
// meal usage count.
func (h *AllergenHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid allergen id"})
	}
	row, err := h.Allergens.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrAllergenNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "allergen not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": row})
}

// Update handles PUT /v1/allergens/:id.
func (h *AllergenHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid allergen id"})
	}
	var req allergenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if ve := req.normalize(); ve != nil {
		return validationJSON(c, ve)
	}
	ctx := c.Request().Context()
	if err := h.Allergens.Update(ctx, id, req.Name); err != nil {
		if err == repository.ErrAllergenNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "allergen not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update allergen"})
	}
	row, err := h.Allergens.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": row})
}

// Delete handles DELETE /v1/allergens/:id.  A referenced allergen is
// not deleted; the caller gets 422 and must detach it from meals first.
func (h *AllergenHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid allergen id"})
	}
	if err := h.Allergens.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case repository.ErrAllergenNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "allergen not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "allergen is still used by one or more meals"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete allergen"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats handles GET /v1/allergens/stats.
func (h *AllergenHandler) Stats(c echo.Context) error {
	s, err := h.Allergens.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute stats"})
	}
	return c.JSON(http.StatusOK, s)
}
