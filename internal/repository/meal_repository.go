package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/MustafaFares445/healthy/internal/model"
)

// MealRepo provides persistence for meals and their many-to-many
// associations (allergens, ingredients).  Association writes use
// replace-all semantics: the provided id set becomes exactly the new
// membership.  Mutating operations come in *Tx variants so handlers can
// group a meal write with its association syncs in one transaction.
type MealRepo struct {
	db *sql.DB
}

// NewMealRepo returns a new MealRepo bound to the given database.
func NewMealRepo(db *sql.DB) *MealRepo { return &MealRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *MealRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new meal within the scope of an existing
// transaction and populates the generated ID plus server-side defaults
// on the provided struct.  The caller must commit or rollback.
func (r *MealRepo) CreateTx(ctx context.Context, tx *sql.Tx, m *model.Meal) error {
	const q = `INSERT INTO meals
        (owner_id, title, description, price_cents, is_available, available_from, available_to, diet_type)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var diet any
	if m.DietType != nil {
		diet = string(*m.DietType)
	}
	res, err := tx.ExecContext(ctx, q,
		m.OwnerID, m.Title, m.Description, m.PriceCents, m.IsAvailable,
		m.AvailableFrom, m.AvailableTo, diet)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return scanMealTx(ctx, tx, m)
}

// UpdateTx persists every column of the given meal.  Partial-update
// merging (deciding which request fields override which stored values)
// is the handler's job; by the time the struct reaches the repository
// it is complete.
func (r *MealRepo) UpdateTx(ctx context.Context, tx *sql.Tx, m *model.Meal) error {
	const q = `UPDATE meals SET
        owner_id = ?, title = ?, description = ?, price_cents = ?, is_available = ?,
        available_from = ?, available_to = ?, diet_type = ?
        WHERE id = ?`
	var diet any
	if m.DietType != nil {
		diet = string(*m.DietType)
	}
	_, err := tx.ExecContext(ctx, q,
		m.OwnerID, m.Title, m.Description, m.PriceCents, m.IsAvailable,
		m.AvailableFrom, m.AvailableTo, diet, m.ID)
	if err != nil {
		return err
	}
	return scanMealTx(ctx, tx, m)
}

const mealColumns = `id, owner_id, title, description, price_cents, is_available,
    available_from, available_to, diet_type, rate, created_at, updated_at`

func scanMealRow(row *sql.Row, m *model.Meal) error {
	var desc sql.NullString
	var diet sql.NullString
	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Title, &desc, &m.PriceCents, &m.IsAvailable,
		&m.AvailableFrom, &m.AvailableTo, &diet, &m.Rate, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if desc.Valid {
		d := desc.String
		m.Description = &d
	} else {
		m.Description = nil
	}
	if diet.Valid {
		dt := model.DietType(diet.String)
		m.DietType = &dt
	} else {
		m.DietType = nil
	}
	return nil
}

func scanMealTx(ctx context.Context, tx *sql.Tx, m *model.Meal) error {
	const sel = `SELECT ` + mealColumns + ` FROM meals WHERE id = ?`
	return scanMealRow(tx.QueryRowContext(ctx, sel, m.ID), m)
}

// GetByID loads a single meal.  Returns ErrMealNotFound when the id
// does not reference an existing row.
func (r *MealRepo) GetByID(ctx context.Context, id uint64) (*model.Meal, error) {
	const sel = `SELECT ` + mealColumns + ` FROM meals WHERE id = ?`
	var m model.Meal
	if err := scanMealRow(r.db.QueryRowContext(ctx, sel, id), &m); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	return &m, nil
}

// GetByIDTx is GetByID inside an existing transaction.
func (r *MealRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Meal, error) {
	m := model.Meal{ID: id}
	if err := scanMealTx(ctx, tx, &m); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	return &m, nil
}

// PriceCentsTx reads the meal's current price inside the transaction.
// The order pipeline calls this exactly once per line and never
// re-reads: the returned value becomes the immutable snapshot on the
// order item.  No row lock is taken.
func (r *MealRepo) PriceCentsTx(ctx context.Context, tx *sql.Tx, mealID uint64) (uint32, error) {
	var cents uint32
	err := tx.QueryRowContext(ctx, `SELECT price_cents FROM meals WHERE id = ?`, mealID).Scan(&cents)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrMealNotFound
		}
		return 0, err
	}
	return cents, nil
}

// SyncAllergensTx replaces the meal's allergen membership with exactly
// the provided set.  An empty slice clears the membership.
func (r *MealRepo) SyncAllergensTx(ctx context.Context, tx *sql.Tx, mealID uint64, allergenIDs []uint64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM allergen_meal WHERE meal_id = ?`, mealID); err != nil {
		return err
	}
	if len(allergenIDs) == 0 {
		return nil
	}
	query := `INSERT INTO allergen_meal (meal_id, allergen_id) VALUES `
	args := make([]any, 0, len(allergenIDs)*2)
	for i, id := range allergenIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, mealID, id)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// SyncIngredientsTx replaces the meal's ingredient membership with
// exactly the provided set, including the quantity/unit pivot
// attributes.  An empty slice clears the membership.
func (r *MealRepo) SyncIngredientsTx(ctx context.Context, tx *sql.Tx, mealID uint64, items []model.MealIngredient) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM ingredient_meal WHERE meal_id = ?`, mealID); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO ingredient_meal (meal_id, ingredient_id, quantity, unit) VALUES `
	args := make([]any, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		var unit any
		if it.Unit != nil {
			unit = string(*it.Unit)
		}
		var qty any
		if it.Quantity != nil {
			qty = *it.Quantity
		}
		args = append(args, mealID, it.IngredientID, qty, unit)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// DeleteCascadeTx removes a meal together with its dependent rows:
// pivot memberships, reviews and order item lines referencing it.
// Orders themselves are left intact.  Returns ErrMealNotFound when the
// meal row did not exist.
func (r *MealRepo) DeleteCascadeTx(ctx context.Context, tx *sql.Tx, mealID uint64) error {
	steps := []string{
		`DELETE FROM ingredient_meal WHERE meal_id = ?`,
		`DELETE FROM allergen_meal WHERE meal_id = ?`,
		`DELETE FROM reviews WHERE meal_id = ?`,
		`DELETE FROM wishlists WHERE meal_id = ?`,
		`DELETE FROM order_items WHERE meal_id = ?`,
	}
	for _, q := range steps {
		if _, err := tx.ExecContext(ctx, q, mealID); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM meals WHERE id = ?`, mealID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMealNotFound
	}
	return nil
}

// AllergensByMeal returns the meal's allergens ordered by name.
func (r *MealRepo) AllergensByMeal(ctx context.Context, mealID uint64) ([]model.Allergen, error) {
	const q = `SELECT a.id, a.name
        FROM allergen_meal am
        JOIN allergens a ON a.id = am.allergen_id
        WHERE am.meal_id = ?
        ORDER BY a.name`
	rows, err := r.db.QueryContext(ctx, q, mealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Allergen, 0)
	for rows.Next() {
		var a model.Allergen
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MealIngredientRow is an ingredient joined with its pivot attributes
// for one meal.
type MealIngredientRow struct {
	ID       uint64   `json:"id"`
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
}

// IngredientsByMeal returns the meal's ingredients with their pivot
// quantity and unit, ordered by name.
func (r *MealRepo) IngredientsByMeal(ctx context.Context, mealID uint64) ([]MealIngredientRow, error) {
	const q = `SELECT i.id, i.name, im.quantity, im.unit
        FROM ingredient_meal im
        JOIN ingredients i ON i.id = im.ingredient_id
        WHERE im.meal_id = ?
        ORDER BY i.name`
	rows, err := r.db.QueryContext(ctx, q, mealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MealIngredientRow, 0)
	for rows.Next() {
		var row MealIngredientRow
		var qty sql.NullFloat64
		var unit sql.NullString
		if err := rows.Scan(&row.ID, &row.Name, &qty, &unit); err != nil {
			return nil, err
		}
		if qty.Valid {
			v := qty.Float64
			row.Quantity = &v
		}
		if unit.Valid {
			u := unit.String
			row.Unit = &u
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListMealsQuery holds the filters accepted by the authenticated
// GET /v1/meals listing.  Zero values mean "no constraint" except for
// the pointer fields, where nil means absent.
type ListMealsQuery struct {
	OwnerID     uint64 // forced for non-admin callers
	Search      string
	DietType    *model.DietType
	IsAvailable *bool
	Page        int
	PerPage     int
}

// List returns a page of meals for the authenticated listing together
// with the total matching count.  Results are newest first with id as a
// deterministic secondary key.
func (r *MealRepo) List(ctx context.Context, q ListMealsQuery) ([]model.Meal, int64, error) {
	where := []string{}
	args := []any{}

	if q.OwnerID != 0 {
		where = append(where, "owner_id = ?")
		args = append(args, q.OwnerID)
	}
	if q.Search != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		pat := "%" + strings.ToLower(q.Search) + "%"
		args = append(args, pat, pat)
	}
	if q.DietType != nil {
		where = append(where, "diet_type = ?")
		args = append(args, string(*q.DietType))
	}
	if q.IsAvailable != nil {
		where = append(where, "is_available = ?")
		args = append(args, *q.IsAvailable)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meals WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PerPage
	offset := (q.Page - 1) * q.PerPage
	dataSQL := `SELECT ` + mealColumns + ` FROM meals WHERE ` + cond +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Meal, 0, limit)
	for rows.Next() {
		var m model.Meal
		var desc, diet sql.NullString
		if err := rows.Scan(
			&m.ID, &m.OwnerID, &m.Title, &desc, &m.PriceCents, &m.IsAvailable,
			&m.AvailableFrom, &m.AvailableTo, &diet, &m.Rate, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		if desc.Valid {
			d := desc.String
			m.Description = &d
		}
		if diet.Valid {
			dt := model.DietType(diet.String)
			m.DietType = &dt
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// ByIDs loads all meals whose id is in the given set.  The result order
// is unspecified; callers that need to preserve an external ordering
// (the recommendation flow) reorder by id afterwards.
func (r *MealRepo) ByIDs(ctx context.Context, ids []uint64) ([]model.Meal, error) {
	if len(ids) == 0 {
		return []model.Meal{}, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT ` + mealColumns + ` FROM meals WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Meal, 0, len(ids))
	for rows.Next() {
		var m model.Meal
		var desc, diet sql.NullString
		if err := rows.Scan(
			&m.ID, &m.OwnerID, &m.Title, &desc, &m.PriceCents, &m.IsAvailable,
			&m.AvailableFrom, &m.AvailableTo, &diet, &m.Rate, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			m.Description = &d
		}
		if diet.Valid {
			dt := model.DietType(diet.String)
			m.DietType = &dt
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ByDietType returns available meals of one diet classification,
// newest first.
func (r *MealRepo) ByDietType(ctx context.Context, diet model.DietType) ([]model.Meal, error) {
	avail := true
	q := ListMealsQuery{DietType: &diet, IsAvailable: &avail, Page: 1, PerPage: 100}
	meals, _, err := r.List(ctx, q)
	return meals, err
}

// Popular returns the highest rated available meals.
func (r *MealRepo) Popular(ctx context.Context, limit int) ([]model.Meal, error) {
	const q = `SELECT ` + mealColumns + ` FROM meals
        WHERE is_available = TRUE
        ORDER BY rate DESC, id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Meal, 0, limit)
	for rows.Next() {
		var m model.Meal
		var desc, diet sql.NullString
		if err := rows.Scan(
			&m.ID, &m.OwnerID, &m.Title, &desc, &m.PriceCents, &m.IsAvailable,
			&m.AvailableFrom, &m.AvailableTo, &diet, &m.Rate, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			m.Description = &d
		}
		if diet.Valid {
			dt := model.DietType(diet.String)
			m.DietType = &dt
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// RecomputeRateTx refreshes the meal's aggregate rating from its
// reviews inside the given transaction.  Meals without reviews go back
// to zero.
func (r *MealRepo) RecomputeRateTx(ctx context.Context, tx *sql.Tx, mealID uint64) error {
	const q = `UPDATE meals SET rate = COALESCE(
        (SELECT AVG(rating) FROM reviews WHERE meal_id = ?), 0)
        WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, mealID, mealID)
	return err
}
