package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/MustafaFares445/healthy/internal/repository"
)

func newMealHandler(t *testing.T) (*MealHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	h := NewMealHandler(
		repository.NewMealRepo(db),
		repository.NewAllergenRepo(db),
		repository.NewIngredientRepo(db),
		repository.NewReviewRepo(db),
		repository.NewUserRepo(db),
	)
	return h, mock, func() { db.Close() }
}

func storedMealRows(id uint64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "title", "description", "price_cents", "is_available",
		"available_from", "available_to", "diet_type", "rate", "created_at", "updated_at",
	}).AddRow(id, 1, "Keto Bowl", nil, 1000, true, "00:00:00", "23:59:59", "keto", 4.5, now, now)
}

func TestMealUpdateEmptyAllergenSetClearsMembership(t *testing.T) {
	h, mock, done := newMealHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM meals WHERE id").
		WithArgs(5).
		WillReturnRows(storedMealRows(5))
	mock.ExpectExec("UPDATE meals SET").
		WithArgs(1, "Keto Bowl", nil, 1000, true, "00:00:00", "23:59:59", "keto", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM meals WHERE id").
		WithArgs(5).
		WillReturnRows(storedMealRows(5))
	// Present-but-empty array means replace the membership with nothing.
	mock.ExpectExec("DELETE FROM allergen_meal WHERE meal_id").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	c, rec := jsonContext(t, http.MethodPut, "/v1/meals/5", `{"allergenIds":[]}`)
	c.SetParamNames("id")
	c.SetParamValues("5")
	if err := h.Update(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMealUpdateAbsentAssociationsUntouched(t *testing.T) {
	h, mock, done := newMealHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM meals WHERE id").
		WithArgs(5).
		WillReturnRows(storedMealRows(5))
	mock.ExpectExec("UPDATE meals SET").
		WithArgs(1, "Renamed Bowl", nil, 1000, true, "00:00:00", "23:59:59", "keto", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM meals WHERE id").
		WithArgs(5).
		WillReturnRows(storedMealRows(5))
	mock.ExpectCommit()

	// No allergenIds / ingredients keys: no pivot statement may run.
	c, rec := jsonContext(t, http.MethodPut, "/v1/meals/5", `{"title":"Renamed Bowl"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")
	if err := h.Update(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMealCreateValidation(t *testing.T) {
	h, _, done := newMealHandler(t)
	defer done()

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"missing title", `{"price":10}`, "title"},
		{"missing price", `{"title":"Bowl"}`, "price"},
		{"bad diet", `{"title":"Bowl","price":10,"dietType":"carnivore"}`, "dietType"},
		{"bad window", `{"title":"Bowl","price":10,"availableFrom":"25:00"}`, "availableFrom"},
		{"bad unit", `{"title":"Bowl","price":10,"ingredients":[{"id":1,"unit":"kg"}]}`, "ingredients"},
	}
	for _, tc := range cases {
		c, rec := jsonContext(t, http.MethodPost, "/v1/meals", tc.body)
		c.Set("user_id", uint64(1))
		c.Set("role", "OWNER")
		if err := h.Create(c); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status = %d, want 422; body %s", tc.name, rec.Code, rec.Body.String())
			continue
		}
		var resp map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["field"] != tc.field {
			t.Errorf("%s: field = %v, want %s", tc.name, resp["field"], tc.field)
		}
	}
}

func TestMealDeleteNotFound(t *testing.T) {
	h, mock, done := newMealHandler(t)
	defer done()

	mock.ExpectBegin()
	for range [5]struct{}{} {
		mock.ExpectExec("DELETE FROM").WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("DELETE FROM meals WHERE id").
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	c, rec := jsonContext(t, http.MethodDelete, "/v1/meals/42", "")
	c.SetParamNames("id")
	c.SetParamValues("42")
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMealDietTypesClosedSet(t *testing.T) {
	h, _, done := newMealHandler(t)
	defer done()

	c, rec := jsonContext(t, http.MethodGet, "/v1/meals/diet-types", "")
	if err := h.DietTypes(c); err != nil {
		t.Fatalf("diet types: %v", err)
	}
	var resp struct {
		Items []string `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"keto", "low_carb", "vegetarian", "vegan", "paleo", "balanced"}
	if len(resp.Items) != len(want) {
		t.Fatalf("items = %v", resp.Items)
	}
	for i := range want {
		if resp.Items[i] != want[i] {
			t.Errorf("items[%d] = %q, want %q", i, resp.Items[i], want[i])
		}
	}
}
