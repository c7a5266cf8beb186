package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sistema-zara/zara-backend/models"
)

func runWithRole(t *testing.T, mw echo.MiddlewareFunc, role string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set("role", role)
	}

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole(models.RoleManager, models.RoleAdmin)

	if rec := runWithRole(t, mw, models.RoleAdmin); rec.Code != http.StatusOK {
		t.Errorf("admin: status = %d, want 200", rec.Code)
	}
	if rec := runWithRole(t, mw, models.RoleOperator); rec.Code != http.StatusForbidden {
		t.Errorf("operator: status = %d, want 403", rec.Code)
	}
	if rec := runWithRole(t, mw, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", rec.Code)
	}
}

func TestRequireLeadership(t *testing.T) {
	mw := RequireLeadership()

	for _, role := range models.LeadershipRoles {
		if rec := runWithRole(t, mw, role); rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", role, rec.Code)
		}
	}
	if rec := runWithRole(t, mw, models.RoleOperator); rec.Code != http.StatusForbidden {
		t.Errorf("operator: status = %d, want 403", rec.Code)
	}
}
