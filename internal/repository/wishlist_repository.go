package repository

import (
	"context"
	"database/sql"
)

// WishlistRepo manages the user wishlist pivot table.
type WishlistRepo struct {
	db *sql.DB
}

// NewWishlistRepo returns a new WishlistRepo bound to the given database.
func NewWishlistRepo(db *sql.DB) *WishlistRepo { return &WishlistRepo{db: db} }

// Add saves a meal for a user.  Re-adding an already saved meal is a
// no-op thanks to INSERT IGNORE on the composite primary key.
func (r *WishlistRepo) Add(ctx context.Context, userID, mealID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO wishlists (user_id, meal_id) VALUES (?, ?)`,
		userID, mealID)
	return err
}

// Remove drops a meal from a user's wishlist.  Removing an absent
// entry succeeds silently.
func (r *WishlistRepo) Remove(ctx context.Context, userID, mealID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlists WHERE user_id = ? AND meal_id = ?`,
		userID, mealID)
	return err
}

// MealIDs lists the ids of a user's saved meals, most recently saved
// first.
func (r *WishlistRepo) MealIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT meal_id FROM wishlists WHERE user_id = ? ORDER BY created_at DESC, meal_id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
