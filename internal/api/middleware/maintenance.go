package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/onhs/olms/internal/api/metrics"
	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/ports"
)

// MaintenanceGate rejects non-admin traffic while maintenance mode is on.
type MaintenanceGate struct {
	settings ports.SettingsCache
	log      zerolog.Logger
}

func NewMaintenanceGate(settings ports.SettingsCache, log zerolog.Logger) *MaintenanceGate {
	return &MaintenanceGate{settings: settings, log: log}
}

// Snapshot returns the settings attached to c, fetching and attaching them
// on first use. A failed fetch is logged and yields nil.
func (g *MaintenanceGate) Snapshot(c echo.Context) *domain.SystemSettings {
	if s := SettingsFrom(c); s != nil {
		return s
	}
	if g.settings == nil {
		return nil
	}

	s, err := g.settings.Snapshot(c.Request().Context())
	if err != nil {
		g.log.Warn().Err(err).
			Str("path", c.Path()).
			Str("request_id", requestID(c)).
			Msg("settings snapshot unavailable, maintenance mode not enforced")
		return nil
	}
	c.Set(settingsKey, s)
	return s
}

// Check returns domain.ErrServiceUnavailable when maintenance mode is on and
// identity is not an admin. The snapshot used is returned for later steps.
func (g *MaintenanceGate) Check(c echo.Context, identity *domain.Identity) (*domain.SystemSettings, error) {
	s := g.Snapshot(c)
	if s == nil || !s.MaintenanceMode {
		return s, nil
	}
	if identity != nil && identity.Role == domain.RoleAdmin {
		return s, nil
	}
	metrics.MaintenanceRejectionsTotal.Inc()
	return s, domain.ErrServiceUnavailable
}

// AttachSettings loads the settings snapshot once per request so that later
// middleware and handlers share it. It never fails the request.
func AttachSettings(gate *MaintenanceGate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			gate.Snapshot(c)
			return next(c)
		}
	}
}

func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
