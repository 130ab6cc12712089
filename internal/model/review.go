package model

import "time"

// Review is a user's rating of a meal.  Ratings are integers from 1 to
// 5; the meal's aggregate rate column is recomputed from its reviews
// whenever one is created, updated or deleted.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – review author.
//	MealID    – reviewed meal.
//	Rating    – integer rating, 1..5.
//	Comment   – optional free-text comment.
//	CreatedAt – creation timestamp.
//	UpdatedAt – last update timestamp.
type Review struct {
	ID        uint64    // reviews.id
	UserID    uint64    // reviews.user_id
	MealID    uint64    // reviews.meal_id
	Rating    uint8     // reviews.rating
	Comment   *string   // reviews.comment (nullable)
	CreatedAt time.Time // reviews.created_at
	UpdatedAt time.Time // reviews.updated_at
}
