package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/MustafaFares445/healthy/internal/model"
)

// AllergenRepo provides CRUD for allergens.  Deletion is guarded: an
// allergen still attached to at least one meal cannot be removed.
type AllergenRepo struct {
	db *sql.DB
}

// NewAllergenRepo returns a new AllergenRepo bound to the given database.
func NewAllergenRepo(db *sql.DB) *AllergenRepo { return &AllergenRepo{db: db} }

// AllergenRow is an allergen with its meal usage count, as exposed by
// list and detail endpoints.
type AllergenRow struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	MealsCount int64  `json:"meals_count"`
}

// List returns a page of allergens ordered by name, optionally
// filtered by a case-insensitive name substring.
func (r *AllergenRepo) List(ctx context.Context, search string, page, perPage int) ([]AllergenRow, int64, error) {
	where := "1=1"
	args := []any{}
	if search != "" {
		where = "LOWER(a.name) LIKE ?"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM allergens a WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := `SELECT a.id, a.name,
            (SELECT COUNT(*) FROM allergen_meal am WHERE am.allergen_id = a.id) AS meals_count
        FROM allergens a
        WHERE ` + where + `
        ORDER BY a.name, a.id
        LIMIT ? OFFSET ?`
	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]AllergenRow, 0, perPage)
	for rows.Next() {
		var a AllergenRow
		if err := rows.Scan(&a.ID, &a.Name, &a.MealsCount); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// Create inserts an allergen and returns it with the generated id.
func (r *AllergenRepo) Create(ctx context.Context, name string) (*model.Allergen, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO allergens (name) VALUES (?)`, name)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Allergen{ID: uint64(id), Name: name}, nil
}

// GetByID loads one allergen with its meal count.
func (r *AllergenRepo) GetByID(ctx context.Context, id uint64) (*AllergenRow, error) {
	const q = `SELECT a.id, a.name,
            (SELECT COUNT(*) FROM allergen_meal am WHERE am.allergen_id = a.id)
        FROM allergens a WHERE a.id = ?`
	var a AllergenRow
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Name, &a.MealsCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAllergenNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Update renames an allergen.
func (r *AllergenRepo) Update(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE allergens SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAllergenNotFound
	}
	return nil
}

// Delete removes an allergen.  When the allergen is still referenced by
// any meal it returns ErrConflict and leaves the row intact.  A
// meal-initiated delete, in contrast, detaches freely.
func (r *AllergenRepo) Delete(ctx context.Context, id uint64) error {
	var refs int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM allergen_meal WHERE allergen_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM allergens WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAllergenNotFound
	}
	return nil
}

// AllExist reports whether every id in the set references an existing
// allergen.  Used by the meal sync path before any pivot row is written.
func (r *AllergenRepo) AllExist(ctx context.Context, ids []uint64) (bool, error) {
	unique := dedupeIDs(ids)
	if len(unique) == 0 {
		return true, nil
	}
	n, err := countByIDs(ctx, r.db, "allergens", unique)
	if err != nil {
		return false, err
	}
	return n == int64(len(unique)), nil
}

// AllergenStats summarises allergen usage for the stats endpoint.
type AllergenStats struct {
	TotalAllergens int64        `json:"total_allergens"`
	MostCommon     *AllergenRow `json:"most_common_allergen"`
}

// Stats returns the allergen count and the most used allergen, if any.
func (r *AllergenRepo) Stats(ctx context.Context) (*AllergenStats, error) {
	var s AllergenStats
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM allergens`).Scan(&s.TotalAllergens); err != nil {
		return nil, err
	}
	const q = `SELECT a.id, a.name, COUNT(am.meal_id) AS meals_count
        FROM allergens a
        JOIN allergen_meal am ON am.allergen_id = a.id
        GROUP BY a.id, a.name
        ORDER BY meals_count DESC, a.id
        LIMIT 1`
	var top AllergenRow
	err := r.db.QueryRowContext(ctx, q).Scan(&top.ID, &top.Name, &top.MealsCount)
	if err == nil {
		s.MostCommon = &top
	} else if err != sql.ErrNoRows {
		return nil, err
	}
	return &s, nil
}
