package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/model"
	"github.com/MustafaFares445/healthy/internal/repository"
	"github.com/MustafaFares445/healthy/internal/utils"
)

// MealHandler groups the repositories needed to manage and browse the
// meal catalog.  Mutations run inside handler-owned transactions so a
// meal write and its association syncs land atomically.
type MealHandler struct {
	Meals       *repository.MealRepo
	Allergens   *repository.AllergenRepo
	Ingredients *repository.IngredientRepo
	Reviews     *repository.ReviewRepo
	Users       *repository.UserRepo
}

// NewMealHandler constructs a MealHandler.  All dependencies must be non-nil.
func NewMealHandler(meals *repository.MealRepo, allergens *repository.AllergenRepo, ingredients *repository.IngredientRepo, reviews *repository.ReviewRepo, users *repository.UserRepo) *MealHandler {
	if meals == nil || allergens == nil || ingredients == nil || reviews == nil || users == nil {
		panic("nil repository passed to NewMealHandler")
	}
	return &MealHandler{Meals: meals, Allergens: allergens, Ingredients: ingredients, Reviews: reviews, Users: users}
}

// ----- DTOs -----

// mealIngredientInput attaches one ingredient when creating or
// updating a meal.  Quantity and unit are optional pivot attributes.
type mealIngredientInput struct {
	ID       uint64   `json:"id"`
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
}

// createMealReq carries the POST body.  Prices arrive in major
// currency units and are converted to cents before storage.  The two
// slice fields are pointers: nil means the field was absent from the
// request (leave associations alone on update, none on create), while
// an empty slice explicitly clears the set.
type createMealReq struct {
	Title         string                 `json:"title"`
	Description   *string                `json:"description"`
	Price         *float64               `json:"price"`
	IsAvailable   *bool                  `json:"isAvailable"`
	AvailableFrom *string                `json:"availableFrom"`
	AvailableTo   *string                `json:"availableTo"`
	DietType      *string                `json:"dietType"`
	AllergenIDs   *[]uint64              `json:"allergenIds"`
	Ingredients   *[]mealIngredientInput `json:"ingredients"`
}

type mealResp struct {
	ID            uint64  `json:"id"`
	OwnerID       uint64  `json:"owner_id"`
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	PriceCents    uint32  `json:"price_cents"`
	Price         float64 `json:"price"`
	IsAvailable   bool    `json:"is_available"`
	AvailableFrom string  `json:"available_from"`
	AvailableTo   string  `json:"available_to"`
	DietType      *string `json:"diet_type"`
	Rate          float64 `json:"rate"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// allergenPart is the allergen shape embedded in meal detail payloads.
type allergenPart struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

func mealJSON(m *model.Meal) mealResp {
	var diet *string
	if m.DietType != nil {
		d := string(*m.DietType)
		diet = &d
	}
	return mealResp{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		Title:         m.Title,
		Description:   m.Description,
		PriceCents:    m.PriceCents,
		Price:         utils.ToMajor(m.PriceCents),
		IsAvailable:   m.IsAvailable,
		AvailableFrom: m.AvailableFrom,
		AvailableTo:   m.AvailableTo,
		DietType:      diet,
		Rate:          m.Rate,
		CreatedAt:     m.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     m.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// parseIngredientInputs validates the raw pivot rows into model values.
func parseIngredientInputs(in []mealIngredientInput) ([]model.MealIngredient, *repository.ValidationError) {
	out := make([]model.MealIngredient, 0, len(in))
	seen := make(map[uint64]struct{}, len(in))
	for _, item := range in {
		if item.ID == 0 {
			return nil, repository.Invalid("ingredients", "ingredient id must be positive")
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		if item.Quantity != nil && *item.Quantity < 0 {
			return nil, repository.Invalid("ingredients", "quantity must be non-negative")
		}
		var unit *model.IngredientUnit
		if item.Unit != nil && *item.Unit != "" {
			u, err := model.ParseIngredientUnit(*item.Unit)
			if err != nil {
				return nil, repository.Invalid("ingredients", "unknown unit "+*item.Unit)
			}
			unit = &u
		}
		out = append(out, model.MealIngredient{IngredientID: item.ID, Quantity: item.Quantity, Unit: unit})
	}
	return out, nil
}

// validTimeOfDay accepts HH:MM or HH:MM:SS clock values.
func validTimeOfDay(s string) bool {
	if _, err := time.Parse("15:04:05", s); err == nil {
		return true
	}
	if _, err := time.Parse("15:04", s); err == nil {
		return true
	}
	return false
}

// Create handles POST /v1/meals (owner or admin).  The meal row, its allergen
// membership and its ingredient pivot rows are written in one
// transaction.
func (h *MealHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createMealReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	m := model.Meal{
		OwnerID:       userID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		IsAvailable:   true,
		AvailableFrom: "00:00:00",
		AvailableTo:   "23:59:59",
	}
	if m.Title == "" || len(m.Title) > 150 {
		return validationJSON(c, repository.Invalid("title", "title is required and must be at most 150 characters"))
	}
	if req.Price == nil || *req.Price < 0 {
		return validationJSON(c, repository.Invalid("price", "price is required and must be non-negative"))
	}
	m.PriceCents = utils.ToCents(*req.Price)
	if req.IsAvailable != nil {
		m.IsAvailable = *req.IsAvailable
	}
	if req.AvailableFrom != nil {
		if !validTimeOfDay(*req.AvailableFrom) {
			return validationJSON(c, repository.Invalid("availableFrom", "must be a time of day (HH:MM or HH:MM:SS)"))
		}
		m.AvailableFrom = *req.AvailableFrom
	}
	if req.AvailableTo != nil {
		if !validTimeOfDay(*req.AvailableTo) {
			return validationJSON(c, repository.Invalid("availableTo", "must be a time of day (HH:MM or HH:MM:SS)"))
		}
		m.AvailableTo = *req.AvailableTo
	}
	if req.DietType != nil && *req.DietType != "" {
		dt, err := model.ParseDietType(*req.DietType)
		if err != nil {
			return validationJSON(c, repository.Invalid("dietType", "unknown diet type "+*req.DietType))
		}
		m.DietType = &dt
	}

	var ingredients []model.MealIngredient
	if req.Ingredients != nil {
		var ve *repository.ValidationError
		ingredients, ve = parseIngredientInputs(*req.Ingredients)
		if ve != nil {
			return validationJSON(c, ve)
		}
	}

	ctx := c.Request().Context()
	if req.AllergenIDs != nil {
		ok, err := h.Allergens.AllExist(ctx, *req.AllergenIDs)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !ok {
			return validationJSON(c, repository.Invalid("allergenIds", "one or more allergen ids do not exist"))
		}
	}
	if req.Ingredients != nil {
		ids := make([]uint64, 0, len(ingredients))
		for _, it := range ingredients {
			ids = append(ids, it.IngredientID)
		}
		ok, err := h.Ingredients.AllExist(ctx, ids)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !ok {
			return validationJSON(c, repository.Invalid("ingredients", "one or more ingredient ids do not exist"))
		}
	}

	tx, err := h.Meals.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Meals.CreateTx(ctx, tx, &m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create meal"})
	}
	if req.AllergenIDs != nil {
		if err := h.Meals.SyncAllergensTx(ctx, tx, m.ID, *req.AllergenIDs); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sync allergens"})
		}
	}
	if req.Ingredients != nil {
		if err := h.Meals.SyncIngredientsTx(ctx, tx, m.ID, ingredients); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sync ingredients"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"item": mealJSON(&m)})
}

// Update handles PUT /v1/meals/:id (owner or admin).  Only fields present in
// the request change; absent association fields leave the current
// membership untouched while an empty array clears it.
func (h *MealHandler) Update(c echo.Context) error {
	mealID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid meal id"})
	}
	var req createMealReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	var ingredients []model.MealIngredient
	if req.Ingredients != nil {
		var ve *repository.ValidationError
		ingredients, ve = parseIngredientInputs(*req.Ingredients)
		if ve != nil {
			return validationJSON(c, ve)
		}
	}

	ctx := c.Request().Context()
	if req.AllergenIDs != nil {
		ok, err := h.Allergens.AllExist(ctx, *req.AllergenIDs)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !ok {
			return validationJSON(c, repository.Invalid("allergenIds", "one or more allergen ids do not exist"))
		}
	}
	if req.Ingredients != nil {
		ids := make([]uint64, 0, len(ingredients))
		for _, it := range ingredients {
			ids = append(ids, it.IngredientID)
		}
		ok, err := h.Ingredients.AllExist(ctx, ids)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !ok {
			return validationJSON(c, repository.Invalid("ingredients", "one or more ingredient ids do not exist"))
		}
	}

	tx, err := h.Meals.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	m, err := h.Meals.GetByIDTx(ctx, tx, mealID)
	if err != nil {
		if err == repository.ErrMealNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "meal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Merge present fields over the stored row.
	if req.Title != "" {
		t := strings.TrimSpace(req.Title)
		if t == "" || len(t) > 150 {
			return validationJSON(c, repository.Invalid("title", "title must be at most 150 characters"))
		}
		m.Title = t
	}
	if req.Description != nil {
		m.Description = req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return validationJSON(c, repository.Invalid("price", "price must be non-negative"))
		}
		m.PriceCents = utils.ToCents(*req.Price)
	}
	if req.IsAvailable != nil {
		m.IsAvailable = *req.IsAvailable
	}
	if req.AvailableFrom != nil {
		if !validTimeOfDay(*req.AvailableFrom) {
			return validationJSON(c, repository.Invalid("availableFrom", "must be a time of day (HH:MM or HH:MM:SS)"))
		}
		m.AvailableFrom = *req.AvailableFrom
	}
	if req.AvailableTo != nil {
		if !validTimeOfDay(*req.AvailableTo) {
			return validationJSON(c, repository.Invalid("availableTo", "must be a time of day (HH:MM or HH:MM:SS)"))
		}
		m.AvailableTo = *req.AvailableTo
	}
	if req.DietType != nil {
		if *req.DietType == "" {
			m.DietType = nil
		} else {
			dt, err := model.ParseDietType(*req.DietType)
			if err != nil {
				return validationJSON(c, repository.Invalid("dietType", "unknown diet type "+*req.DietType))
			}
			m.DietType = &dt
		}
	}

	if err := h.Meals.UpdateTx(ctx, tx, m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update meal"})
	}
	if req.AllergenIDs != nil {
		if err := h.Meals.SyncAllergensTx(ctx, tx, m.ID, *req.AllergenIDs); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sync allergens"})
		}
	}
	if req.Ingredients != nil {
		if err := h.Meals.SyncIngredientsTx(ctx, tx, m.ID, ingredients); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sync ingredients"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"item": mealJSON(m)})
}

// Delete handles DELETE /v1/meals/:id (owner or admin).  The cascade removes
// pivot rows, reviews, wishlist entries and order item lines, leaving
// historical orders themselves intact.
func (h *MealHandler) Delete(c echo.Context) error {
	mealID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid meal id"})
	}
	ctx := c.Request().Context()
	tx, err := h.Meals.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Meals.DeleteCascadeTx(ctx, tx, mealID); err != nil {
		if err == repository.ErrMealNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "meal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete meal"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/meals (auth).  Admins see every meal and may
// filter by ownerId; everyone else is scoped to their own listings.
func (h *MealHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	q := repository.ListMealsQuery{Search: strings.TrimSpace(c.QueryParam("search"))}
	q.Page, q.PerPage = pageParams(c)

	if isAdmin(c) {
		if raw := c.QueryParam("ownerId"); raw != "" {
			oid, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || oid == 0 {
				return validationJSON(c, repository.Invalid("ownerId", "must be a positive integer"))
			}
			q.OwnerID = oid
		}
	} else {
		q.OwnerID = userID
	}
	if raw := c.QueryParam("dietType"); raw != "" {
		dt, err := model.ParseDietType(raw)
		if err != nil {
			return validationJSON(c, repository.Invalid("dietType", "unknown diet type "+raw))
		}
		q.DietType = &dt
	}
	if raw := c.QueryParam("available"); raw != "" {
		avail := raw == "true" || raw == "1"
		q.IsAvailable = &avail
	}

	ctx := c.Request().Context()
	meals, total, err := h.Meals.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list meals"})
	}
	items := make([]mealResp, 0, len(meals))
	for i := range meals {
		items = append(items, mealJSON(&meals[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     items,
		"total":     total,
		"page":      q.Page,
		"per_page":  q.PerPage,
		"last_page": lastPage(total, q.PerPage),
	})
}

// Get handles GET /v1/meals/:id (public).  The meal is returned with
// its owner, allergens, ingredients and reviews.
func (h *MealHandler) Get(c echo.Context) error {
	mealID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid meal id"})
	}
	ctx := c.Request().Context()
	m, err := h.Meals.GetByID(ctx, mealID)
	if err != nil {
		if err == repository.ErrMealNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "meal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	allergens, err := h.Meals.AllergensByMeal(ctx, mealID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load allergens"})
	}
	ingredients, err := h.Meals.IngredientsByMeal(ctx, mealID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load ingredients"})
	}
	reviews, err := h.Reviews.ListByMeal(ctx, mealID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reviews"})
	}
	owner, err := h.Users.GetByID(ctx, m.OwnerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load owner"})
	}
	allergenItems := make([]allergenPart, 0, len(allergens))
	for _, a := range allergens {
		allergenItems = append(allergenItems, allergenPart{ID: a.ID, Name: a.Name})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item":        mealJSON(m),
		"owner":       userPart{ID: owner.ID, Email: owner.Email, Role: owner.Role},
		"allergens":   allergenItems,
		"ingredients": ingredients,
		"reviews":     reviews,
	})
}

// DietTypes handles GET /v1/meals/diet-types (public).  The list is
// the closed enum, not a scan over stored rows.
func (h *MealHandler) DietTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": model.DietTypes()})
}

// Popular handles GET /v1/meals/popular (public): the highest rated
// available meals, at most 50.
func (h *MealHandler) Popular(c echo.Context) error {
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return validationJSON(c, repository.Invalid("limit", "must be a positive integer"))
		}
		if v > 50 {
			v = 50
		}
		limit = v
	}
	meals, err := h.Meals.Popular(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load meals"})
	}
	items := make([]mealResp, 0, len(meals))
	for i := range meals {
		items = append(items, mealJSON(&meals[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
