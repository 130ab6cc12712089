package model

import "time"

// Ingredient is a catalog entry describing a single ingredient and its
// nutrition profile per reference amount.  Ingredients are shared
// between meals through the ingredient_meal pivot, which carries the
// per-meal quantity and unit.
//
// Fields:
//
//	ID            – primary key identifier.
//	Name          – unique display name (max 100 chars).
//	Calories      – calorie count, nullable when unknown.
//	Sugar         – grams of sugar.
//	Fat           – grams of fat.
//	Protein       – grams of protein.
//	Fiber         – grams of fiber.
//	Carbohydrates – grams of carbohydrates.
//	Sodium        – milligrams of sodium.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type Ingredient struct {
	ID            uint64    // ingredients.id
	Name          string    // ingredients.name
	Calories      *int      // ingredients.calories (nullable)
	Sugar         float64   // ingredients.sugar
	Fat           float64   // ingredients.fat
	Protein       float64   // ingredients.protein
	Fiber         float64   // ingredients.fiber
	Carbohydrates float64   // ingredients.carbohydrates
	Sodium        float64   // ingredients.sodium
	CreatedAt     time.Time // ingredients.created_at
	UpdatedAt     time.Time // ingredients.updated_at
}
