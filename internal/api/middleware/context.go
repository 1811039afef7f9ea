package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/session"
)

const (
	identityKey = "auth.identity"
	sessionKey  = "auth.session"
	settingsKey = "settings.snapshot"
	auditKey    = "audit.context"
)

// IdentityFrom returns the identity attached by the authentication
// middleware, or nil on unauthenticated routes.
func IdentityFrom(c echo.Context) *domain.Identity {
	identity, _ := c.Get(identityKey).(*domain.Identity)
	return identity
}

// SessionFrom returns the verified token of the request. It is nil when the
// identity came from a loader that does not use credentials.
func SessionFrom(c echo.Context) *session.Verified {
	v, _ := c.Get(sessionKey).(*session.Verified)
	return v
}

// SettingsFrom returns the settings snapshot attached to the request, if any.
func SettingsFrom(c echo.Context) *domain.SystemSettings {
	s, _ := c.Get(settingsKey).(*domain.SystemSettings)
	return s
}

// WithIdentity attaches identity to c. Intended for handlers and tests that
// run without the authentication middleware.
func WithIdentity(c echo.Context, identity *domain.Identity) {
	c.Set(identityKey, identity)
}
