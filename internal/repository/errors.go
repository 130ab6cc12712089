// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrConflict signals that an operation cannot proceed due to
// dependent records (deleting an allergen still attached to meals, or
// deleting an order that is no longer pending), while the per-entity
// not-found errors translate to HTTP 404 responses.
package repository

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state. Handlers should
// translate this into an HTTP 422 response with a human-readable
// reason.
var ErrConflict = errors.New("conflict")

// ErrMealNotFound is returned when a referenced meal id does not exist.
var ErrMealNotFound = errors.New("meal not found")

// ErrOrderNotFound is returned when a referenced order id does not exist.
var ErrOrderNotFound = errors.New("order not found")

// ErrIngredientNotFound is returned when a referenced ingredient id does not exist.
var ErrIngredientNotFound = errors.New("ingredient not found")

// ErrAllergenNotFound is returned when a referenced allergen id does not exist.
var ErrAllergenNotFound = errors.New("allergen not found")

// ErrReviewNotFound is returned when a referenced review id does not exist.
var ErrReviewNotFound = errors.New("review not found")

// ErrEmailExists is returned when registering an email that is already taken.
var ErrEmailExists = errors.New("email already exists")

// ValidationError reports malformed or out-of-range input for a single
// field. All validation happens before any row is written, so a
// ValidationError never leaves partial state behind. Handlers translate
// it into a 422 response carrying the field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for the given field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation returns the underlying ValidationError when err is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
