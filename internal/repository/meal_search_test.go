package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/MustafaFares445/healthy/internal/model"
)

func searchRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "owner_id", "title", "description", "price_cents",
		"is_available", "diet_type", "rate", "created_at",
	})
}

func TestSearchDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT(.+) FROM meals m WHERE 1=1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("ORDER BY m.created_at DESC, m.id DESC").
		WithArgs(15, 0).
		WillReturnRows(searchRows().
			AddRow(2, 1, "Green Salad", nil, 500, true, nil, 0.0, "2026-02-01 12:00:00").
			AddRow(1, 1, "Keto Bowl", []byte("rich"), 1000, true, []byte("keto"), 4.5, "2026-01-01 09:30:00"))

	out, total, err := NewMealRepo(db).Search(context.Background(), MealSearchQuery{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || len(out) != 2 {
		t.Fatalf("total=%d len=%d, want 2/2", total, len(out))
	}
	if out[0].Price != 5.00 {
		t.Errorf("price = %v, want 5.00", out[0].Price)
	}
	if out[0].Description != nil || out[0].DietType != nil {
		t.Errorf("nullable fields not nil: %+v", out[0])
	}
	if out[1].DietType == nil || *out[1].DietType != "keto" {
		t.Errorf("diet type = %v, want keto", out[1].DietType)
	}
	if out[1].CreatedAt != "2026-01-01 09:30:00" {
		t.Errorf("created_at = %q", out[1].CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchComposedFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	// Existence checks for the referenced filter ids run first.
	mock.ExpectQuery("SELECT COUNT(.+) FROM allergens WHERE id IN").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT(.+) FROM meals m").
		WithArgs("%bowl%", "%bowl%", "keto", 500, 2000, true, 3, 4.0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("ORDER BY m.price_cents ASC, m.id ASC").
		WithArgs("%bowl%", "%bowl%", "keto", 500, 2000, true, 3, 4.0, 10, 0).
		WillReturnRows(searchRows().
			AddRow(1, 1, "Keto Bowl", nil, 1000, true, []byte("keto"), 4.5, "2026-01-01 09:30:00"))

	diet := model.DietKeto
	minP, maxP := 5.0, 20.0
	avail := true
	minR := 4.0
	out, total, err := NewMealRepo(db).Search(context.Background(), MealSearchQuery{
		Query:         "Bowl",
		DietType:      &diet,
		MinPrice:      &minP,
		MaxPrice:      &maxP,
		IsAvailable:   &avail,
		AllergenIDs:   []uint64{3},
		MinRating:     &minR,
		SortBy:        "price",
		SortDirection: "asc",
		PerPage:       10,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || len(out) != 1 {
		t.Fatalf("total=%d len=%d, want 1/1", total, len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchRejectsUnknownAllergenIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	// Two distinct ids requested, only one exists.
	mock.ExpectQuery("SELECT COUNT(.+) FROM allergens WHERE id IN").
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err = NewMealRepo(db).Search(context.Background(), MealSearchQuery{
		AllergenIDs: []uint64{1, 2, 2},
	})
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("err = %v, want validation error", err)
	}
	if ve.Field != "allergenIds" {
		t.Errorf("field = %q, want allergenIds", ve.Field)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchValidation(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewMealRepo(db)
	ctx := context.Background()

	bad := 5.0
	worse := 2.0
	neg := -1.0
	high := 6.0
	cases := []struct {
		name  string
		q     MealSearchQuery
		field string
	}{
		{"sortBy", MealSearchQuery{SortBy: "owner"}, "sortBy"},
		{"sortDirection", MealSearchQuery{SortDirection: "sideways"}, "sortDirection"},
		{"perPage", MealSearchQuery{PerPage: 101}, "perPage"},
		{"page", MealSearchQuery{Page: -1}, "page"},
		{"price range", MealSearchQuery{MinPrice: &bad, MaxPrice: &worse}, "maxPrice"},
		{"negative price", MealSearchQuery{MinPrice: &neg}, "minPrice"},
		{"rating range", MealSearchQuery{MinRating: &high}, "minRating"},
	}
	for _, c := range cases {
		_, _, err := repo.Search(ctx, c.q)
		ve, ok := AsValidation(err)
		if !ok {
			t.Errorf("%s: err = %v, want validation error", c.name, err)
			continue
		}
		if ve.Field != c.field {
			t.Errorf("%s: field = %q, want %q", c.name, ve.Field, c.field)
		}
	}
}

func TestMajorToCents(t *testing.T) {
	if majorToCents(19.99) != 1999 {
		t.Errorf("majorToCents(19.99) = %d", majorToCents(19.99))
	}
	if majorToCents(-1) != 0 {
		t.Errorf("majorToCents(-1) = %d", majorToCents(-1))
	}
}
