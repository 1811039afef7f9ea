package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/onhs/olms/internal/api/metrics"
	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/session"
)

// Guard gates routes on the normalized role of the request identity.
type Guard struct {
	cookie session.CookiePolicy
}

func NewGuard(cookie session.CookiePolicy) *Guard {
	return &Guard{cookie: cookie}
}

// RequireRole admits identities whose normalized role is in allowedRoles.
// Requests without an identity fail with 401, other roles with 403. Both
// failures clear a presented session cookie.
func (g *Guard) RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[domain.NormalizeRole(r)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)
			if identity == nil {
				metrics.AuthorizationDeniedTotal.WithLabelValues("anonymous").Inc()
				return g.deny(c, domain.ErrUnauthorized)
			}
			role := domain.NormalizeRole(identity.Role)
			if _, ok := allowed[role]; !ok {
				metrics.AuthorizationDeniedTotal.WithLabelValues(roleLabel(role)).Inc()
				return g.deny(c, domain.ErrForbidden)
			}
			return next(c)
		}
	}
}

func (g *Guard) RequireAdmin() echo.MiddlewareFunc {
	return g.RequireRole(domain.RoleAdmin)
}

func (g *Guard) RequireLibrarian() echo.MiddlewareFunc {
	return g.RequireRole(domain.RoleAdmin, domain.RoleLibrarian)
}

func (g *Guard) RequireStaff() echo.MiddlewareFunc {
	return g.RequireRole(domain.RoleAdmin, domain.RoleLibrarian, domain.RoleStaff)
}

func (g *Guard) deny(c echo.Context, err error) error {
	if f, _ := Classify(err); f.ClearsSession {
		if ck, cerr := c.Request().Cookie(g.cookie.CookieName()); cerr == nil && ck.Value != "" {
			c.SetCookie(g.cookie.Clear())
		}
	}
	return HTTPError(err)
}

// roleLabel keeps the metric label set bounded to the canonical roles.
func roleLabel(role string) string {
	switch role {
	case domain.RoleAdmin, domain.RoleLibrarian, domain.RoleStaff, domain.RoleStudent:
		return role
	default:
		return "other"
	}
}
