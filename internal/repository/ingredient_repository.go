package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/MustafaFares445/healthy/internal/model"
)

// IngredientRepo provides CRUD for ingredients.  Like allergens,
// deletion is guarded while any meal still uses the ingredient.
type IngredientRepo struct {
	db *sql.DB
}

// NewIngredientRepo returns a new IngredientRepo bound to the given database.
func NewIngredientRepo(db *sql.DB) *IngredientRepo { return &IngredientRepo{db: db} }

// IngredientRow is an ingredient with its meal usage count.
type IngredientRow struct {
	ID            uint64  `json:"id"`
	Name          string  `json:"name"`
	Calories      *int    `json:"calories"`
	Sugar         float64 `json:"sugar"`
	Fat           float64 `json:"fat"`
	Protein       float64 `json:"protein"`
	Fiber         float64 `json:"fiber"`
	Carbohydrates float64 `json:"carbohydrates"`
	Sodium        float64 `json:"sodium"`
	MealsCount    int64   `json:"meals_count"`
}

const ingredientSelect = `SELECT i.id, i.name, i.calories, i.sugar, i.fat, i.protein, i.fiber, i.carbohydrates, i.sodium,
    (SELECT COUNT(*) FROM ingredient_meal im WHERE im.ingredient_id = i.id) AS meals_count
    FROM ingredients i`

func scanIngredientRow(scan func(dest ...any) error, row *IngredientRow) error {
	var cals sql.NullInt64
	if err := scan(&row.ID, &row.Name, &cals, &row.Sugar, &row.Fat, &row.Protein,
		&row.Fiber, &row.Carbohydrates, &row.Sodium, &row.MealsCount); err != nil {
		return err
	}
	if cals.Valid {
		v := int(cals.Int64)
		row.Calories = &v
	}
	return nil
}

// ListIngredientsQuery holds the list filters: a name substring plus
// nutrition bounds.
type ListIngredientsQuery struct {
	Search     string
	MinProtein *float64
	MaxSugar   *float64
	Page       int
	PerPage    int
}

// List returns a page of ingredients ordered by name.
func (r *IngredientRepo) List(ctx context.Context, q ListIngredientsQuery) ([]IngredientRow, int64, error) {
	where := []string{}
	args := []any{}
	if q.Search != "" {
		where = append(where, "LOWER(i.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Search)+"%")
	}
	if q.MinProtein != nil {
		where = append(where, "i.protein >= ?")
		args = append(args, *q.MinProtein)
	}
	if q.MaxSugar != nil {
		where = append(where, "i.sugar <= ?")
		args = append(args, *q.MaxSugar)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingredients i WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	dataSQL := ingredientSelect + ` WHERE ` + cond + ` ORDER BY i.name, i.id LIMIT ? OFFSET ?`
	args = append(args, q.PerPage, (q.Page-1)*q.PerPage)
	rows, err := r.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]IngredientRow, 0, q.PerPage)
	for rows.Next() {
		var row IngredientRow
		if err := scanIngredientRow(rows.Scan, &row); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}

// Create inserts an ingredient and populates the generated id.
func (r *IngredientRepo) Create(ctx context.Context, ing *model.Ingredient) error {
	const q = `INSERT INTO ingredients (name, calories, sugar, fat, protein, fiber, carbohydrates, sodium)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var cals any
	if ing.Calories != nil {
		cals = *ing.Calories
	}
	res, err := r.db.ExecContext(ctx, q, ing.Name, cals, ing.Sugar, ing.Fat, ing.Protein,
		ing.Fiber, ing.Carbohydrates, ing.Sodium)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ing.ID = uint64(id)
	return nil
}

// GetByID loads one ingredient with its meal count.
func (r *IngredientRepo) GetByID(ctx context.Context, id uint64) (*IngredientRow, error) {
	var row IngredientRow
	err := scanIngredientRow(r.db.QueryRowContext(ctx, ingredientSelect+` WHERE i.id = ?`, id).Scan, &row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrIngredientNotFound
		}
		return nil, err
	}
	return &row, nil
}

// Update persists every mutable column of the ingredient.
func (r *IngredientRepo) Update(ctx context.Context, ing *model.Ingredient) error {
	const q = `UPDATE ingredients SET name = ?, calories = ?, sugar = ?, fat = ?, protein = ?,
        fiber = ?, carbohydrates = ?, sodium = ? WHERE id = ?`
	var cals any
	if ing.Calories != nil {
		cals = *ing.Calories
	}
	res, err := r.db.ExecContext(ctx, q, ing.Name, cals, ing.Sugar, ing.Fat, ing.Protein,
		ing.Fiber, ing.Carbohydrates, ing.Sodium, ing.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrIngredientNotFound
	}
	return nil
}

// Delete removes an ingredient unless any meal still uses it, in which
// case ErrConflict is returned and the row is left intact.
func (r *IngredientRepo) Delete(ctx context.Context, id uint64) error {
	var refs int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ingredient_meal WHERE ingredient_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM ingredients WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrIngredientNotFound
	}
	return nil
}

// AllExist reports whether every id in the set references an existing
// ingredient.
func (r *IngredientRepo) AllExist(ctx context.Context, ids []uint64) (bool, error) {
	unique := dedupeIDs(ids)
	if len(unique) == 0 {
		return true, nil
	}
	n, err := countByIDs(ctx, r.db, "ingredients", unique)
	if err != nil {
		return false, err
	}
	return n == int64(len(unique)), nil
}

// NamedValue is a (name, value) pair used in the stats payload.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// IngredientStats summarises the catalog for the stats endpoint.
type IngredientStats struct {
	TotalIngredients int64       `json:"totalIngredients"`
	HighestCalorie   *NamedValue `json:"highestCalorie"`
	AverageProtein   float64     `json:"averageProtein"`
	LowestSugar      *NamedValue `json:"lowestSugar"`
}

// Stats computes catalog-wide aggregates over ingredients.
func (r *IngredientRepo) Stats(ctx context.Context) (*IngredientStats, error) {
	var s IngredientStats
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingredients`).Scan(&s.TotalIngredients); err != nil {
		return nil, err
	}
	if s.TotalIngredients == 0 {
		return &s, nil
	}
	var hc NamedValue
	err := r.db.QueryRowContext(ctx,
		`SELECT name, COALESCE(calories, 0) FROM ingredients ORDER BY calories DESC, id LIMIT 1`).
		Scan(&hc.Name, &hc.Value)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil {
		s.HighestCalorie = &hc
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(ROUND(AVG(protein), 2), 0) FROM ingredients`).Scan(&s.AverageProtein); err != nil {
		return nil, err
	}
	var ls NamedValue
	err = r.db.QueryRowContext(ctx,
		`SELECT name, sugar FROM ingredients ORDER BY sugar ASC, id LIMIT 1`).
		Scan(&ls.Name, &ls.Value)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil {
		s.LowestSugar = &ls
	}
	return &s, nil
}
