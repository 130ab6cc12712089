package router

import (
	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/handler"
)

// RegisterPublic registers unauthenticated browse endpoints.  These
// return catalog data for guests and carry no JWT or role middleware.
// The optional cache middleware wraps the read-heavy endpoints; pass
// nil when Redis is unavailable.
func RegisterPublic(e *echo.Echo, m *handler.MealHandler, home *handler.HomeHandler, cache echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{}
	if cache != nil {
		mw = append(mw, cache)
	}

	// Static segments must be registered alongside /meals/:id; echo
	// matches them before the parameter route.
	e.GET("/v1/meals/diet-types", m.DietTypes, mw...)
	e.GET("/v1/meals/popular", m.Popular, mw...)
	e.GET("/v1/meals/:id", m.Get, mw...)

	// Search is a POST because the filter payload does not fit in a
	// query string, so it stays outside the response cache.
	e.POST("/v1/meals/search", m.Search)

	e.GET("/v1/home/meals/types", home.ByType, mw...)
}
