package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestAllergenDeleteConflictWhenReferenced(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT(.+) FROM allergen_meal WHERE allergen_id").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	if err := NewAllergenRepo(db).Delete(context.Background(), 4); err != ErrConflict {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	// No DELETE statement may run when the allergen is still in use.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAllergenDeleteUnreferenced(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT(.+) FROM allergen_meal WHERE allergen_id").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("DELETE FROM allergens WHERE id").
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewAllergenRepo(db).Delete(context.Background(), 4); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAllergenDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT(.+) FROM allergen_meal WHERE allergen_id").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("DELETE FROM allergens WHERE id").
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewAllergenRepo(db).Delete(context.Background(), 99); err != ErrAllergenNotFound {
		t.Fatalf("err = %v, want ErrAllergenNotFound", err)
	}
}

func TestAllergenAllExist(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewAllergenRepo(db)
	ctx := context.Background()

	// Duplicates collapse before counting.
	mock.ExpectQuery("SELECT COUNT(.+) FROM allergens WHERE id IN").
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	ok, err := repo.AllExist(ctx, []uint64{1, 2, 2, 1})
	if err != nil || !ok {
		t.Fatalf("AllExist = %v, %v; want true, nil", ok, err)
	}

	mock.ExpectQuery("SELECT COUNT(.+) FROM allergens WHERE id IN").
		WithArgs(1, 9).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	ok, err = repo.AllExist(ctx, []uint64{1, 9})
	if err != nil || ok {
		t.Fatalf("AllExist = %v, %v; want false, nil", ok, err)
	}

	// Empty input needs no database round trip.
	ok, err = repo.AllExist(ctx, nil)
	if err != nil || !ok {
		t.Fatalf("AllExist(nil) = %v, %v; want true, nil", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAllergenStatsEmptyTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT(.+) FROM allergens").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT a.id, a.name, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "meals_count"}))

	s, err := NewAllergenRepo(db).Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.TotalAllergens != 0 || s.MostCommon != nil {
		t.Fatalf("stats = %+v, want empty", s)
	}
}
