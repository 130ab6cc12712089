package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/model"
	"github.com/MustafaFares445/healthy/internal/repository"
)

// IngredientHandler manages the ingredient catalog with the same
// referential delete guard as allergens.
type IngredientHandler struct {
	Ingredients *repository.IngredientRepo
}

func NewIngredientHandler(ingredients *repository.IngredientRepo) *IngredientHandler {
	if ingredients == nil {
		panic("nil repository passed to NewIngredientHandler")
	}
	return &IngredientHandler{Ingredients: ingredients}
}

// ingredientReq is the create/update body.  Nutrition values are per
// reference amount and must be non-negative.
type ingredientReq struct {
	Name          string   `json:"name"`
	Calories      *int     `json:"calories"`
	Sugar         *float64 `json:"sugar"`
	Fat           *float64 `json:"fat"`
	Protein       *float64 `json:"protein"`
	Fiber         *float64 `json:"fiber"`
	Carbohydrates *float64 `json:"carbohydrates"`
	Sodium        *float64 `json:"sodium"`
}

func (r *ingredientReq) toModel() (*model.Ingredient, *repository.ValidationError) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" || len(r.Name) > 100 {
		return nil, repository.Invalid("name", "name is required and must be at most 100 characters")
	}
	if r.Calories != nil && *r.Calories < 0 {
		return nil, repository.Invalid("calories", "must be non-negative")
	}
	ing := model.Ingredient{Name: r.Name, Calories: r.Calories}
	for _, f := range []struct {
		field string
		src   *float64
		dst   *float64
	}{
		{"sugar", r.Sugar, &ing.Sugar},
		{"fat", r.Fat, &ing.Fat},
		{"protein", r.Protein, &ing.Protein},
		{"fiber", r.Fiber, &ing.Fiber},
		{"carbohydrates", r.Carbohydrates, &ing.Carbohydrates},
		{"sodium", r.Sodium, &ing.Sodium},
	} {
		if f.src == nil {
			continue
		}
		if *f.src < 0 {
			return nil, repository.Invalid(f.field, "must be non-negative")
		}
		*f.dst = *f.src
	}
	return &ing, nil
}

// List handles GET /v1/ingredients with name search and nutrition
// bound filters.
func (h *IngredientHandler) List(c echo.Context) error {
	q := repository.ListIngredientsQuery{Search: strings.TrimSpace(c.QueryParam("search"))}
	q.Page, q.PerPage = pageParams(c)
	if raw := c.QueryParam("minProtein"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return validationJSON(c, repository.Invalid("minProtein", "must be a non-negative number"))
		}
		q.MinProtein = &v
	}
	if raw := c.QueryParam("maxSugar"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return validationJSON(c, repository.Invalid("maxSugar", "must be a non-negative number"))
		}
		q.MaxSugar = &v
	}
	rows, total, err := h.Ingredients.List(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list ingredients"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     rows,
		"total":     total,
		"page":      q.Page,
		"per_page":  q.PerPage,
		"last_page": lastPage(total, q.PerPage),
	})
}

// Create handles POST /v1/ingredients.
func (h *IngredientHandler) Create(c echo.Context) error {
	var req ingredientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ing, ve := req.toModel()
	if ve != nil {
		return validationJSON(c, ve)
	}
	ctx := c.Request().Context()
	if err := h.Ingredients.Create(ctx, ing); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create ingredient"})
	}
	row, err := h.Ingredients.GetByID(ctx, ing.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": row})
}

// Get handles GET /v1/ingredients/:id.
func (h *IngredientHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ingredient id"})
	}
	row, err := h.Ingredients.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrIngredientNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ingredient not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": row})
}

// Update handles PUT /v1/ingredients/:id.
func (h *IngredientHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ingredient id"})
	}
	var req ingredientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ing, ve := req.toModel()
	if ve != nil {
		return validationJSON(c, ve)
	}
	ing.ID = id
	ctx := c.Request().Context()
	if err := h.Ingredients.Update(ctx, ing); err != nil {
		if err == repository.ErrIngredientNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ingredient not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update ingredient"})
	}
	row, err := h.Ingredients.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": row})
}

// Delete handles DELETE /v1/ingredients/:id with the referential guard.
func (h *IngredientHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ingredient id"})
	}
	if err := h.Ingredients.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case repository.ErrIngredientNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ingredient not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "ingredient is still used by one or more meals"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete ingredient"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats handles GET /v1/ingredients/stats.
func (h *IngredientHandler) Stats(c echo.Context) error {
	s, err := h.Ingredients.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute stats"})
	}
	return c.JSON(http.StatusOK, s)
}
