package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/onhs/olms/internal/api/metrics"
	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/session"
)

var testGuard = NewGuard(session.CookiePolicy{Name: "olms_session", Path: "/"})

func runGuard(t *testing.T, mw echo.MiddlewareFunc, identity *domain.Identity, cookies ...*http.Cookie) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if identity != nil {
		WithIdentity(c, identity)
	}

	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestRequireRole_Allows(t *testing.T) {
	identity := domain.NewIdentity(&domain.User{ID: "u1", Role: "Head Librarian"})

	rec, called := runGuard(t, testGuard.RequireLibrarian(), identity)
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_SynonymsInAllowedSet(t *testing.T) {
	identity := domain.NewIdentity(&domain.User{ID: "u1", Role: "admin"})

	if _, called := runGuard(t, testGuard.RequireRole("Super-Admin"), identity); !called {
		t.Fatalf("expected synonym in allowed set to match")
	}
}

func TestRequireRole_Forbids(t *testing.T) {
	identity := domain.NewIdentity(&domain.User{ID: "u1", Role: "student"})

	rec, called := runGuard(t, testGuard.RequireAdmin(), identity)
	if called {
		t.Fatalf("should not reach next handler")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	assertMessage(t, rec, "Insufficient permissions")
	if got := rec.Header().Values("Set-Cookie"); len(got) != 0 {
		t.Fatalf("expected no Set-Cookie without a presented cookie, got %v", got)
	}
}

func TestRequireRole_NoIdentity(t *testing.T) {
	rec, called := runGuard(t, testGuard.RequireStaff(), nil)
	if called {
		t.Fatalf("should not reach next handler")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	assertMessage(t, rec, "Authentication failed")
}

func TestRequireRole_DenialClearsPresentedCookie(t *testing.T) {
	presented := &http.Cookie{Name: "olms_session", Value: "student-token"}
	cases := []struct {
		name     string
		identity *domain.Identity
		code     int
	}{
		{"forbidden", domain.NewIdentity(&domain.User{ID: "u1", Role: "student"}), http.StatusForbidden},
		{"no identity", nil, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := runGuard(t, testGuard.RequireAdmin(), tc.identity, presented)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			ck := sessionCookie(rec)
			if ck == nil || ck.MaxAge >= 0 || ck.Value != "" {
				t.Fatalf("expected the session cookie to be cleared, got %+v", ck)
			}
		})
	}
}

func TestRequireRole_UnknownRolesShareMetricLabel(t *testing.T) {
	before := testutil.ToFloat64(metrics.AuthorizationDeniedTotal.WithLabelValues("other"))

	for _, role := range []string{"Janitor", "visiting-scholar", "guest 42"} {
		identity := domain.NewIdentity(&domain.User{ID: "u1", Role: role})
		runGuard(t, testGuard.RequireAdmin(), identity)
	}

	if got := testutil.ToFloat64(metrics.AuthorizationDeniedTotal.WithLabelValues("other")) - before; got != 3 {
		t.Fatalf("expected 3 denials under the other label, got %v", got)
	}
	if roleLabel("janitor") != "other" || roleLabel(domain.RoleStudent) != domain.RoleStudent {
		t.Fatalf("unexpected role labels")
	}
}
