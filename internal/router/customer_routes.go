package router

import (
	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/handler"
	"github.com/MustafaFares445/healthy/internal/middleware"
)

// RegisterCustomer registers endpoints available to any authenticated
// user: personal recommendations, the wishlist and reviews.  All routes
// require a valid JWT; the middleware rejects missing or unknown roles.
func RegisterCustomer(e *echo.Echo, w *handler.WishlistHandler, rv *handler.ReviewHandler, home *handler.HomeHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "OWNER", "CUSTOMER"),
	)

	g.GET("/home/meals/matched", home.Matched)

	g.GET("/wishlist", w.Get)
	g.POST("/wishlist", w.Add)
	g.DELETE("/wishlist/:mealId", w.Remove)

	// Review updates and deletes enforce authorship inside the handler,
	// so the routes themselves only require authentication.
	g.POST("/reviews", rv.Create)
	g.PUT("/reviews/:id", rv.Update)
	g.DELETE("/reviews/:id", rv.Delete)
}
