package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/MustafaFares445/healthy/internal/model"
	"github.com/MustafaFares445/healthy/internal/repository"
)

// Recommender calls an external recommendation service and hydrates
// the returned meal ids from the catalog.  Any upstream failure
// degrades to an empty list; personalized suggestions are never worth
// failing a page load over.
type Recommender struct {
	baseURL string
	client  *http.Client
	meals   *repository.MealRepo
}

// NewRecommender builds a Recommender.  An empty baseURL disables the
// upstream call entirely.
func NewRecommender(baseURL string, timeout time.Duration, meals *repository.MealRepo) *Recommender {
	return &Recommender{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		meals:   meals,
	}
}

type recommendRequest struct {
	UserID uint64 `json:"user_id"`
}

type recommendResponse struct {
	MealIDs []uint64 `json:"meal_ids"`
}

// MatchedMeals returns the meals the upstream service recommends for
// one user, in the exact order the service ranked them.  Ids that no
// longer resolve to a meal are skipped.
func (r *Recommender) MatchedMeals(ctx context.Context, userID uint64) ([]model.Meal, error) {
	if r.baseURL == "" {
		return []model.Meal{}, nil
	}
	ids, err := r.fetchIDs(ctx, userID)
	if err != nil {
		log.Printf("recommender: upstream failed for user %d: %v", userID, err)
		return []model.Meal{}, nil
	}
	if len(ids) == 0 {
		return []model.Meal{}, nil
	}

	meals, err := r.meals.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]model.Meal, len(meals))
	for _, m := range meals {
		byID[m.ID] = m
	}
	ordered := make([]model.Meal, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			ordered = append(ordered, m)
		}
	}
	return ordered, nil
}

func (r *Recommender) fetchIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	body, err := json.Marshal(recommendRequest{UserID: userID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/recommend", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var out recommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.MealIDs, nil
}
