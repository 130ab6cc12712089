package model

import "time"

// WishlistEntry marks a meal a user has saved for later.  The pivot is
// membership only; adding the same meal twice is a no-op.
type WishlistEntry struct {
	UserID    uint64    // wishlists.user_id
	MealID    uint64    // wishlists.meal_id
	CreatedAt time.Time // wishlists.created_at
}
