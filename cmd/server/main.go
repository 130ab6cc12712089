// Entry point for the API server.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/config"
	"github.com/MustafaFares445/healthy/internal/database"
	"github.com/MustafaFares445/healthy/internal/handler"
	"github.com/MustafaFares445/healthy/internal/middleware"
	"github.com/MustafaFares445/healthy/internal/queue"
	"github.com/MustafaFares445/healthy/internal/repository"
	"github.com/MustafaFares445/healthy/internal/router"
	"github.com/MustafaFares445/healthy/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Apply(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrations: %v", err)
	}
	cancel()

	// Redis is optional: without it the server runs with caching and
	// rate limiting disabled.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	meals := repository.NewMealRepo(db)
	orders := repository.NewOrderRepo(db)
	allergens := repository.NewAllergenRepo(db)
	ingredients := repository.NewIngredientRepo(db)
	reviews := repository.NewReviewRepo(db)
	wishlists := repository.NewWishlistRepo(db)

	rec := service.NewRecommender(
		cfg.RecommenderURL,
		time.Duration(cfg.RecommenderTOMs)*time.Millisecond,
		meals,
	)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	mealH := handler.NewMealHandler(meals, allergens, ingredients, reviews, users)
	orderH := handler.NewOrderHandler(orders, meals)
	allergenH := handler.NewAllergenHandler(allergens)
	ingredientH := handler.NewIngredientHandler(ingredients)
	reviewH := handler.NewReviewHandler(reviews, meals)
	wishlistH := handler.NewWishlistHandler(wishlists, meals)
	homeH := handler.NewHomeHandler(meals, rec)

	e := echo.New()
	e.HideBanner = true

	var cacheMW echo.MiddlewareFunc
	if rdb != nil {
		rlCfg := config.LoadRateLimitConfig()
		if rlCfg.Enabled {
			e.Use(middleware.NewTokenBucket(rlCfg, rdb))
		}
		cacheCfg := config.LoadCacheConfig()
		if cacheCfg.Enabled {
			cacheMW = middleware.NewRedisCache(cacheCfg, rdb)
		}
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, mealH, homeH, cacheMW)
	router.RegisterOwner(e, mealH, cfg.JWTSecret)
	router.RegisterCustomer(e, wishlistH, reviewH, homeH, cfg.JWTSecret)
	router.RegisterAdmin(e, orderH, allergenH, ingredientH, cfg.JWTSecret)

	// The order consumer reconnects on its own; a hard error here only
	// means the broker URL is unusable.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
