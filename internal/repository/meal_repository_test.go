package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/MustafaFares445/healthy/internal/model"
)

func mealRows(id uint64, title string, cents uint32) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "title", "description", "price_cents", "is_available",
		"available_from", "available_to", "diet_type", "rate", "created_at", "updated_at",
	}).AddRow(id, 1, title, nil, cents, true, "00:00:00", "23:59:59", "keto", 4.5, now, now)
}

func TestMealSyncAllergensReplacesMembership(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM allergen_meal WHERE meal_id").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO allergen_meal").
		WithArgs(5, 1, 5, 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, _ := db.BeginTx(ctx, nil)
	if err := NewMealRepo(db).SyncAllergensTx(ctx, tx, 5, []uint64{1, 2}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMealSyncAllergensEmptySetClears(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM allergen_meal WHERE meal_id").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, _ := db.BeginTx(ctx, nil)
	if err := NewMealRepo(db).SyncAllergensTx(ctx, tx, 5, nil); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMealSyncIngredientsWithPivotAttributes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM ingredient_meal WHERE meal_id").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO ingredient_meal").
		WithArgs(5, 10, 200.0, "g", 5, 11, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	qty := 200.0
	unit := model.UnitGram
	items := []model.MealIngredient{
		{IngredientID: 10, Quantity: &qty, Unit: &unit},
		{IngredientID: 11},
	}
	ctx := context.Background()
	tx, _ := db.BeginTx(ctx, nil)
	if err := NewMealRepo(db).SyncIngredientsTx(ctx, tx, 5, items); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMealPriceCentsTxUnknownMeal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT price_cents FROM meals WHERE id").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"price_cents"}))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, _ := db.BeginTx(ctx, nil)
	if _, err := NewMealRepo(db).PriceCentsTx(ctx, tx, 99); err != ErrMealNotFound {
		t.Fatalf("err = %v, want ErrMealNotFound", err)
	}
	_ = tx.Rollback()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMealDeleteCascadeOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	for _, table := range []string{"ingredient_meal", "allergen_meal", "reviews", "wishlists", "order_items"} {
		mock.ExpectExec("DELETE FROM " + table).
			WithArgs(5).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("DELETE FROM meals WHERE id").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, _ := db.BeginTx(ctx, nil)
	if err := NewMealRepo(db).DeleteCascadeTx(ctx, tx, 5); err != nil {
		t.Fatalf("cascade: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMealDeleteCascadeNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	for range [5]struct{}{} {
		mock.ExpectExec("DELETE FROM").WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("DELETE FROM meals WHERE id").
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, _ := db.BeginTx(ctx, nil)
	if err := NewMealRepo(db).DeleteCascadeTx(ctx, tx, 42); err != ErrMealNotFound {
		t.Fatalf("err = %v, want ErrMealNotFound", err)
	}
	_ = tx.Rollback()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMealRecomputeRateTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE meals SET rate").
		WithArgs(9, 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, _ := db.BeginTx(ctx, nil)
	if err := NewMealRepo(db).RecomputeRateTx(ctx, tx, 9); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMealByIDsEmptyInput(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	meals, err := NewMealRepo(db).ByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("byids: %v", err)
	}
	if len(meals) != 0 {
		t.Fatalf("got %d meals, want 0", len(meals))
	}
}

func TestMealGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	mock.ExpectQuery("SELECT (.+) FROM meals WHERE id").
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	if _, err := NewMealRepo(db).GetByID(context.Background(), 77); err != ErrMealNotFound {
		t.Fatalf("err = %v, want ErrMealNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
