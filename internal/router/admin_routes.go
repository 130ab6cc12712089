package router

import (
	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/handler"
	"github.com/MustafaFares445/healthy/internal/middleware"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1: order
// management plus the allergen and ingredient reference tables.
func RegisterAdmin(e *echo.Echo, o *handler.OrderHandler, a *handler.AllergenHandler, i *handler.IngredientHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Orders ----
	g.GET("/orders", o.List)
	g.POST("/orders", o.Create)
	g.GET("/orders/status-options", o.StatusOptions)
	g.GET("/orders/:id", o.Get)
	g.PUT("/orders/:id", o.Update)
	g.PATCH("/orders/:id", o.Update)
	g.DELETE("/orders/:id", o.Delete)

	// ---- Allergens ----
	g.GET("/allergens", a.List)
	g.POST("/allergens", a.Create)
	g.GET("/allergens/stats", a.Stats)
	g.GET("/allergens/:id", a.Get)
	g.PUT("/allergens/:id", a.Update)
	g.DELETE("/allergens/:id", a.Delete)

	// ---- Ingredients ----
	g.GET("/ingredients", i.List)
	g.POST("/ingredients", i.Create)
	g.GET("/ingredients/stats", i.Stats)
	g.GET("/ingredients/:id", i.Get)
	g.PUT("/ingredients/:id", i.Update)
	g.DELETE("/ingredients/:id", i.Delete)
}
