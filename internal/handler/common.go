// Package handler defines the HTTP handlers.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/repository"
)

// getUserID extracts the user_id set by the JWT middleware and converts
// it to uint64.  The claim arrives as float64 after JSON decoding but
// other encodings show up in tests.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the authenticated caller carries the ADMIN role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "ADMIN"
}

// pathID parses a positive numeric :id style path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// pageParams reads page/perPage query parameters with the shared
// defaults (page 1, perPage 15, capped at 100).
func pageParams(c echo.Context) (page, perPage int) {
	page = 1
	perPage = 15
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("perPage")); err == nil && v > 0 {
		perPage = v
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

// lastPage derives the final page number for pagination metadata.
func lastPage(total int64, perPage int) int64 {
	if perPage <= 0 {
		return 1
	}
	lp := (total + int64(perPage) - 1) / int64(perPage)
	if lp < 1 {
		lp = 1
	}
	return lp
}

// validationJSON renders a ValidationError as a 422 response carrying
// the offending field.
func validationJSON(c echo.Context, ve *repository.ValidationError) error {
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{
		"error": ve.Message,
		"field": ve.Field,
	})
}
