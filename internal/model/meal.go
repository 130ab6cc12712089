package model

import (
	"fmt"
	"time"
)

// DietType is the closed set of diet classifications a meal can carry.
// Values are stored as-is in the meals.diet_type enum column and are
// validated at the request boundary, never treated as free-form text
// internally.
type DietType string

const (
	DietKeto       DietType = "keto"
	DietLowCarb    DietType = "low_carb"
	DietVegetarian DietType = "vegetarian"
	DietVegan      DietType = "vegan"
	DietPaleo      DietType = "paleo"
	DietBalanced   DietType = "balanced"
)

// DietTypes lists every valid diet type in a stable order.  Endpoints
// that expose the available classifications return this list rather
// than scanning distinct column values.
func DietTypes() []DietType {
	return []DietType{DietKeto, DietLowCarb, DietVegetarian, DietVegan, DietPaleo, DietBalanced}
}

// ParseDietType validates a raw string against the closed set.  The
// empty string is rejected; callers representing "no filter" should
// not call this at all.
func ParseDietType(raw string) (DietType, error) {
	switch DietType(raw) {
	case DietKeto, DietLowCarb, DietVegetarian, DietVegan, DietPaleo, DietBalanced:
		return DietType(raw), nil
	}
	return "", fmt.Errorf("unknown diet type %q", raw)
}

// IngredientUnit is the closed set of measurement units accepted on the
// ingredient_meal pivot.
type IngredientUnit string

const (
	UnitTbsp  IngredientUnit = "tbsp"
	UnitGram  IngredientUnit = "g"
	UnitPiece IngredientUnit = "piece"
	UnitLiter IngredientUnit = "l"
)

// ParseIngredientUnit validates a raw pivot unit value.
func ParseIngredientUnit(raw string) (IngredientUnit, error) {
	switch IngredientUnit(raw) {
	case UnitTbsp, UnitGram, UnitPiece, UnitLiter:
		return IngredientUnit(raw), nil
	}
	return "", fmt.Errorf("unknown ingredient unit %q", raw)
}

// Meal represents a sellable food item listed by an owner.  Prices are
// kept as integer minor currency units (cents) in the database to avoid
// floating-point rounding error; conversion to major units happens only
// at the response boundary.
//
// Fields:
//
//	ID            – primary key identifier.
//	OwnerID       – user who listed the meal.
//	Title         – display title (max 150 chars).
//	Description   – optional longer text.
//	PriceCents    – current price in minor units.
//	IsAvailable   – availability flag.
//	AvailableFrom – daily availability window start (HH:MM:SS).
//	AvailableTo   – daily availability window end.  from ≤ to is not
//	                enforced; both values are stored exactly as given.
//	DietType      – optional diet classification.
//	Rate          – aggregate review rating (0 when unreviewed).
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type Meal struct {
	ID            uint64    // meals.id
	OwnerID       uint64    // meals.owner_id
	Title         string    // meals.title
	Description   *string   // meals.description (nullable)
	PriceCents    uint32    // meals.price_cents
	IsAvailable   bool      // meals.is_available
	AvailableFrom string    // meals.available_from (TIME)
	AvailableTo   string    // meals.available_to (TIME)
	DietType      *DietType // meals.diet_type (nullable)
	Rate          float64   // meals.rate
	CreatedAt     time.Time // meals.created_at
	UpdatedAt     time.Time // meals.updated_at
}

// MealIngredient is one row of the ingredient_meal pivot: an ingredient
// attached to a meal together with its quantity and unit.
type MealIngredient struct {
	MealID       uint64          // ingredient_meal.meal_id
	IngredientID uint64          // ingredient_meal.ingredient_id
	Quantity     *float64        // ingredient_meal.quantity (nullable)
	Unit         *IngredientUnit // ingredient_meal.unit (nullable)
}
