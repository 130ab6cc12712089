package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/model"
	"github.com/MustafaFares445/healthy/internal/repository"
)

// ReviewHandler manages meal reviews.  Every write recomputes the
// meal's aggregate rating inside the same transaction so the rate
// column never drifts from its reviews.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
	Meals   *repository.MealRepo
}

func NewReviewHandler(reviews *repository.ReviewRepo, meals *repository.MealRepo) *ReviewHandler {
	if reviews == nil || meals == nil {
		panic("nil repository passed to NewReviewHandler")
	}
	return &ReviewHandler{Reviews: reviews, Meals: meals}
}

type createReviewReq struct {
	MealID  uint64  `json:"mealId"`
	Rating  *uint8  `json:"rating"`
	Comment *string `json:"comment"`
}

type updateReviewReq struct {
	Rating  *uint8  `json:"rating"`
	Comment *string `json:"comment"`
}

func validRating(r *uint8) bool { return r != nil && *r >= 1 && *r <= 5 }

func validComment(comment *string) bool { return comment == nil || len(*comment) <= 1000 }

// Create handles POST /v1/reviews (auth).
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.MealID == 0 {
		return validationJSON(c, repository.Invalid("mealId", "must be a positive integer"))
	}
	if !validRating(req.Rating) {
		return validationJSON(c, repository.Invalid("rating", "must be an integer between 1 and 5"))
	}
	if !validComment(req.Comment) {
		return validationJSON(c, repository.Invalid("comment", "must be at most 1000 characters"))
	}

	ctx := c.Request().Context()
	if _, err := h.Meals.GetByID(ctx, req.MealID); err != nil {
		if err == repository.ErrMealNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "meal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Reviews.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rv := model.Review{UserID: userID, MealID: req.MealID, Rating: *req.Rating, Comment: req.Comment}
	if err := h.Reviews.CreateTx(ctx, tx, &rv); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create review"})
	}
	if err := h.Meals.RecomputeRateTx(ctx, tx, req.MealID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update meal rating"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"item": reviewJSON(&rv)})
}

// Update handles PUT /v1/reviews/:id (auth).  Only the author or an
// admin may change a review.
func (h *ReviewHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reviewID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	var req updateReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Rating != nil && !validRating(req.Rating) {
		return validationJSON(c, repository.Invalid("rating", "must be an integer between 1 and 5"))
	}
	if !validComment(req.Comment) {
		return validationJSON(c, repository.Invalid("comment", "must be at most 1000 characters"))
	}

	ctx := c.Request().Context()
	tx, err := h.Reviews.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rv, err := h.Reviews.GetByIDTx(ctx, tx, reviewID)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if rv.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if req.Rating != nil {
		rv.Rating = *req.Rating
	}
	if req.Comment != nil {
		rv.Comment = req.Comment
	}
	if err := h.Reviews.UpdateTx(ctx, tx, rv); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update review"})
	}
	if err := h.Meals.RecomputeRateTx(ctx, tx, rv.MealID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update meal rating"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"item": reviewJSON(rv)})
}

// Delete handles DELETE /v1/reviews/:id (auth), same ownership rule.
func (h *ReviewHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reviewID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	ctx := c.Request().Context()
	tx, err := h.Reviews.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rv, err := h.Reviews.GetByIDTx(ctx, tx, reviewID)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if rv.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Reviews.DeleteTx(ctx, tx, reviewID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete review"})
	}
	if err := h.Meals.RecomputeRateTx(ctx, tx, rv.MealID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update meal rating"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}

type reviewResp struct {
	ID      uint64  `json:"id"`
	UserID  uint64  `json:"user_id"`
	MealID  uint64  `json:"meal_id"`
	Rating  uint8   `json:"rating"`
	Comment *string `json:"comment"`
}

func reviewJSON(rv *model.Review) reviewResp {
	return reviewResp{ID: rv.ID, UserID: rv.UserID, MealID: rv.MealID, Rating: rv.Rating, Comment: rv.Comment}
}
