package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/MustafaFares445/healthy/internal/repository"
)

func TestMatchedMealsPreservesRankingOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recommend" {
			t.Errorf("path = %q, want /recommend", r.URL.Path)
		}
		var req struct {
			UserID uint64 `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.UserID != 7 {
			t.Errorf("user_id = %d, want 7", req.UserID)
		}
		// Rank 2 before 1; id 9 no longer exists in the catalog.
		_ = json.NewEncoder(w).Encode(map[string]any{"meal_ids": []uint64{2, 9, 1}})
	}))
	defer srv.Close()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM meals WHERE id IN").
		WithArgs(2, 9, 1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "title", "description", "price_cents", "is_available",
			"available_from", "available_to", "diet_type", "rate", "created_at", "updated_at",
		}).
			AddRow(1, 1, "Keto Bowl", nil, 1000, true, "00:00:00", "23:59:59", nil, 4.0, now, now).
			AddRow(2, 1, "Green Salad", nil, 500, true, "00:00:00", "23:59:59", nil, 3.5, now, now))

	rec := NewRecommender(srv.URL, time.Second, repository.NewMealRepo(db))
	meals, err := rec.MatchedMeals(context.Background(), 7)
	if err != nil {
		t.Fatalf("matched: %v", err)
	}
	if len(meals) != 2 {
		t.Fatalf("got %d meals, want 2", len(meals))
	}
	if meals[0].ID != 2 || meals[1].ID != 1 {
		t.Errorf("order = [%d %d], want [2 1]", meals[0].ID, meals[1].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMatchedMealsDegradesOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	rec := NewRecommender(srv.URL, time.Second, repository.NewMealRepo(db))
	meals, err := rec.MatchedMeals(context.Background(), 7)
	if err != nil {
		t.Fatalf("matched: %v", err)
	}
	if len(meals) != 0 {
		t.Fatalf("got %d meals, want 0", len(meals))
	}
}

func TestMatchedMealsDisabledWithoutBaseURL(t *testing.T) {
	rec := NewRecommender("", time.Second, repository.NewMealRepo(nil))
	meals, err := rec.MatchedMeals(context.Background(), 7)
	if err != nil {
		t.Fatalf("matched: %v", err)
	}
	if len(meals) != 0 {
		t.Fatalf("got %d meals, want 0", len(meals))
	}
}
