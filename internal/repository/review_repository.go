package repository

import (
	"context"
	"database/sql"

	"github.com/MustafaFares445/healthy/internal/model"
)

// ReviewRepo provides CRUD for meal reviews.  Every write comes in a
// *Tx variant because the handler pairs it with a recompute of the
// meal's aggregate rating in the same transaction.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *ReviewRepo) DB() *sql.DB { return r.db }

const reviewColumns = `id, user_id, meal_id, rating, comment, created_at, updated_at`

func scanReview(row *sql.Row, rv *model.Review) error {
	var comment sql.NullString
	if err := row.Scan(&rv.ID, &rv.UserID, &rv.MealID, &rv.Rating, &comment, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
		return err
	}
	if comment.Valid {
		c := comment.String
		rv.Comment = &c
	} else {
		rv.Comment = nil
	}
	return nil
}

// CreateTx inserts a review and populates the generated id.
func (r *ReviewRepo) CreateTx(ctx context.Context, tx *sql.Tx, rv *model.Review) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO reviews (user_id, meal_id, rating, comment) VALUES (?, ?, ?, ?)`,
		rv.UserID, rv.MealID, rv.Rating, rv.Comment)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	const sel = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	return scanReview(tx.QueryRowContext(ctx, sel, rv.ID), rv)
}

// GetByID loads one review.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (*model.Review, error) {
	const sel = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	var rv model.Review
	if err := scanReview(r.db.QueryRowContext(ctx, sel, id), &rv); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &rv, nil
}

// GetByIDTx is GetByID inside an existing transaction.
func (r *ReviewRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Review, error) {
	const sel = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	var rv model.Review
	if err := scanReview(tx.QueryRowContext(ctx, sel, id), &rv); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &rv, nil
}

// UpdateTx persists the rating and comment of an existing review.
func (r *ReviewRepo) UpdateTx(ctx context.Context, tx *sql.Tx, rv *model.Review) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reviews SET rating = ?, comment = ? WHERE id = ?`,
		rv.Rating, rv.Comment, rv.ID)
	return err
}

// DeleteTx removes a review.
func (r *ReviewRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	return err
}

// ReviewRow is a review hydrated with its author's email for display.
type ReviewRow struct {
	ID        uint64  `json:"id"`
	UserID    uint64  `json:"user_id"`
	UserEmail string  `json:"user_email"`
	MealID    uint64  `json:"meal_id"`
	Rating    uint8   `json:"rating"`
	Comment   *string `json:"comment"`
	CreatedAt string  `json:"created_at"`
}

// ListByMeal returns every review of one meal, newest first.
func (r *ReviewRepo) ListByMeal(ctx context.Context, mealID uint64) ([]ReviewRow, error) {
	const q = `SELECT rv.id, rv.user_id, u.email, rv.meal_id, rv.rating, rv.comment,
            DATE_FORMAT(rv.created_at, '%Y-%m-%d %T')
        FROM reviews rv
        JOIN users u ON u.id = rv.user_id
        WHERE rv.meal_id = ?
        ORDER BY rv.created_at DESC, rv.id DESC`
	rows, err := r.db.QueryContext(ctx, q, mealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReviewRow, 0)
	for rows.Next() {
		var row ReviewRow
		var comment sql.NullString
		var created []byte
		if err := rows.Scan(&row.ID, &row.UserID, &row.UserEmail, &row.MealID, &row.Rating, &comment, &created); err != nil {
			return nil, err
		}
		if comment.Valid {
			c := comment.String
			row.Comment = &c
		}
		row.CreatedAt = string(created)
		out = append(out, row)
	}
	return out, rows.Err()
}
