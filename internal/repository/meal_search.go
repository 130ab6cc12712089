package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/MustafaFares445/healthy/internal/model"
)

// MealSearchQuery defines the full filter contract for POST
// /v1/meals/search.  Pointer fields distinguish "absent" from a zero
// value; an absent filter imposes no constraint.  Prices are in major
// currency units and are converted to cents before comparison.
type MealSearchQuery struct {
	Query         string
	DietType      *model.DietType
	MinPrice      *float64
	MaxPrice      *float64
	IsAvailable   *bool
	AllergenIDs   []uint64 // exclude meals having ANY of these
	IngredientIDs []uint64 // include only meals having AT LEAST ONE
	MinRating     *float64
	OwnerID       *uint64
	SortBy        string // title | price | rating | createdAt
	SortDirection string // asc | desc
	Page          int
	PerPage       int
}

// sortColumns whitelists the exposed sort keys and maps them to their
// backing columns.  Anything else is rejected during validation.
var sortColumns = map[string]string{
	"title":     "m.title",
	"price":     "m.price_cents",
	"rating":    "m.rate",
	"createdAt": "m.created_at",
}

// MealSummaryRow is one search result.  Price carries both the stored
// cents value and the derived major-unit value for presentation.
type MealSummaryRow struct {
	ID          uint64  `json:"id"`
	OwnerID     uint64  `json:"owner_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	PriceCents  uint32  `json:"price_cents"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"is_available"`
	DietType    *string `json:"diet_type"`
	Rate        float64 `json:"rate"`
	CreatedAt   string  `json:"created_at"`
}

// normalize applies defaults and validates ranges.  It is called by
// Search before any SQL runs so a rejected request never touches the
// database beyond the id-existence checks.
func (q *MealSearchQuery) normalize() error {
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}
	if _, ok := sortColumns[q.SortBy]; !ok {
		return Invalid("sortBy", "must be one of: title, price, rating, createdAt")
	}
	switch q.SortDirection {
	case "":
		q.SortDirection = "desc"
	case "asc", "desc":
	default:
		return Invalid("sortDirection", "must be asc or desc")
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Page < 1 {
		return Invalid("page", "must be at least 1")
	}
	if q.PerPage == 0 {
		q.PerPage = 15
	}
	if q.PerPage < 1 || q.PerPage > 100 {
		return Invalid("perPage", "must be between 1 and 100")
	}
	if q.MinPrice != nil && *q.MinPrice < 0 {
		return Invalid("minPrice", "must not be negative")
	}
	if q.MaxPrice != nil && *q.MaxPrice < 0 {
		return Invalid("maxPrice", "must not be negative")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MaxPrice < *q.MinPrice {
		return Invalid("maxPrice", "must be greater than or equal to the minimum price")
	}
	if q.MinRating != nil && (*q.MinRating < 0 || *q.MinRating > 5) {
		return Invalid("minRating", "must be between 0 and 5")
	}
	return nil
}

// Search runs the composed filter query and returns one page of meal
// summaries plus the total matching count.  Filters compose as a
// logical AND.  Ordering is fully determined by (sortBy, direction, id)
// so page boundaries stay stable when sort keys tie.
func (r *MealRepo) Search(ctx context.Context, q MealSearchQuery) ([]MealSummaryRow, int64, error) {
	if err := q.normalize(); err != nil {
		return nil, 0, err
	}
	// Reject ids that do not reference existing rows before composing
	// the main query.
	if len(q.AllergenIDs) > 0 {
		n, err := countByIDs(ctx, r.db, "allergens", q.AllergenIDs)
		if err != nil {
			return nil, 0, err
		}
		if n != int64(len(dedupeIDs(q.AllergenIDs))) {
			return nil, 0, Invalid("allergenIds", "one or more allergen IDs do not exist")
		}
	}
	if len(q.IngredientIDs) > 0 {
		n, err := countByIDs(ctx, r.db, "ingredients", q.IngredientIDs)
		if err != nil {
			return nil, 0, err
		}
		if n != int64(len(dedupeIDs(q.IngredientIDs))) {
			return nil, 0, Invalid("ingredientIds", "one or more ingredient IDs do not exist")
		}
	}

	where := []string{}
	args := []any{}

	if q.Query != "" {
		pat := "%" + strings.ToLower(q.Query) + "%"
		where = append(where, "(LOWER(m.title) LIKE ? OR LOWER(m.description) LIKE ?)")
		args = append(args, pat, pat)
	}
	if q.DietType != nil {
		where = append(where, "m.diet_type = ?")
		args = append(args, string(*q.DietType))
	}
	if q.MinPrice != nil {
		where = append(where, "m.price_cents >= ?")
		args = append(args, majorToCents(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		where = append(where, "m.price_cents <= ?")
		args = append(args, majorToCents(*q.MaxPrice))
	}
	if q.IsAvailable != nil {
		where = append(where, "m.is_available = ?")
		args = append(args, *q.IsAvailable)
	}
	if len(q.AllergenIDs) > 0 {
		ph, in := idPlaceholders(q.AllergenIDs)
		where = append(where,
			"NOT EXISTS (SELECT 1 FROM allergen_meal am WHERE am.meal_id = m.id AND am.allergen_id IN ("+ph+"))")
		args = append(args, in...)
	}
	if len(q.IngredientIDs) > 0 {
		ph, in := idPlaceholders(q.IngredientIDs)
		where = append(where,
			"EXISTS (SELECT 1 FROM ingredient_meal im WHERE im.meal_id = m.id AND im.ingredient_id IN ("+ph+"))")
		args = append(args, in...)
	}
	if q.MinRating != nil {
		where = append(where, "m.rate >= ?")
		args = append(args, *q.MinRating)
	}
	if q.OwnerID != nil {
		where = append(where, "m.owner_id = ?")
		args = append(args, *q.OwnerID)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM meals m WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if q.SortDirection == "desc" {
		dir = "DESC"
	}
	limit := q.PerPage
	offset := (q.Page - 1) * q.PerPage

	dataSQL := `SELECT
            m.id,
            m.owner_id,
            m.title,
            m.description,
            m.price_cents,
            m.is_available,
            m.diet_type,
            m.rate,
            DATE_FORMAT(m.created_at, '%Y-%m-%d %T') AS created_at
        FROM meals m
        WHERE ` + cond + `
        ORDER BY ` + sortColumns[q.SortBy] + ` ` + dir + `, m.id ` + dir + `
        LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]MealSummaryRow, 0, limit)
	for rows.Next() {
		var d MealSummaryRow
		var desc, diet, created []byte
		if err := rows.Scan(
			&d.ID,
			&d.OwnerID,
			&d.Title,
			&desc,
			&d.PriceCents,
			&d.IsAvailable,
			&diet,
			&d.Rate,
			&created,
		); err != nil {
			return nil, 0, err
		}
		if desc != nil {
			s := string(desc)
			d.Description = &s
		}
		if diet != nil {
			s := string(diet)
			d.DietType = &s
		}
		d.CreatedAt = string(created)
		d.Price = float64(d.PriceCents) / 100.0
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// majorToCents mirrors utils.ToCents but lives here so the repository
// package does not depend on utils.
func majorToCents(major float64) uint32 {
	if major <= 0 {
		return 0
	}
	return uint32(major*100 + 0.5)
}

func idPlaceholders(ids []uint64) (string, []any) {
	ph := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		ph = append(ph, "?")
		args = append(args, id)
	}
	return strings.Join(ph, ","), args
}

func dedupeIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// countByIDs counts how many of the (deduplicated) ids exist in the
// given table.  Used to reject filters referencing unknown rows.
func countByIDs(ctx context.Context, db *sql.DB, table string, ids []uint64) (int64, error) {
	unique := dedupeIDs(ids)
	ph, args := idPlaceholders(unique)
	var n int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE id IN (`+ph+`)`, args...).Scan(&n)
	return n, err
}
