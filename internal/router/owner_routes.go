package router

import (
	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/handler"
	"github.com/MustafaFares445/healthy/internal/middleware"
)

// RegisterOwner registers catalog management endpoints under /v1.
// Owners manage their own meals; admins see and manage everything.
// The List handler scopes non-admin callers to their own rows.
func RegisterOwner(e *echo.Echo, m *handler.MealHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "OWNER"),
	)

	g.GET("/meals", m.List)
	g.POST("/meals", m.Create)
	g.PUT("/meals/:id", m.Update)
	g.PATCH("/meals/:id", m.Update)
	g.DELETE("/meals/:id", m.Delete)
}
