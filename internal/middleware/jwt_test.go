package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/MustafaFares445/healthy/internal/utils"
)

func authRequest(t *testing.T, header string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/meals", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJWTAuthSetsClaims(t *testing.T) {
	const secret = "test-secret"
	tok, err := utils.NewAccessToken(secret, 42, "OWNER", 15)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	c, _ := authRequest(t, "Bearer "+tok.Token)
	called := false
	h := JWTAuth(secret)(func(c echo.Context) error {
		called = true
		if sub, _ := c.Get("user_id").(float64); uint64(sub) != 42 {
			t.Errorf("user_id = %v, want 42", c.Get("user_id"))
		}
		if role, _ := c.Get("role").(string); role != "OWNER" {
			t.Errorf("role = %v, want OWNER", c.Get("role"))
		}
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if !called {
		t.Fatal("next handler not invoked")
	}
}

func TestJWTAuthRejections(t *testing.T) {
	const secret = "test-secret"
	good, _ := utils.NewAccessToken("other-secret", 42, "OWNER", 15)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + good.Token},
	}
	next := func(c echo.Context) error {
		t.Error("next handler invoked on rejected request")
		return nil
	}
	for _, tc := range cases {
		c, rec := authRequest(t, tc.header)
		if err := JWTAuth(secret)(next)(c); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", tc.name, rec.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	run := func(role string, allowed ...string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != "" {
			c.Set("role", role)
		}
		h := RequireRole(allowed...)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		if err := h(c); err != nil {
			t.Fatalf("middleware: %v", err)
		}
		return rec.Code
	}

	if code := run("ADMIN", "ADMIN"); code != http.StatusOK {
		t.Errorf("admin on admin route: %d", code)
	}
	if code := run("CUSTOMER", "ADMIN"); code != http.StatusForbidden {
		t.Errorf("customer on admin route: %d", code)
	}
	if code := run("", "ADMIN", "OWNER"); code != http.StatusForbidden {
		t.Errorf("missing role: %d", code)
	}
	if code := run("OWNER", "ADMIN", "OWNER"); code != http.StatusOK {
		t.Errorf("owner on owner route: %d", code)
	}
}
