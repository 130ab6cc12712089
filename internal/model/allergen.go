package model

// Allergen is a named allergen that meals declare through the
// allergen_meal pivot (membership only, no extra attributes).  An
// allergen that is still referenced by at least one meal cannot be
// deleted; the repository returns a conflict instead of cascading.
//
// Fields:
//
//	ID   – primary key identifier.
//	Name – unique allergen name.
type Allergen struct {
	ID   uint64 // allergens.id
	Name string // allergens.name
}
