package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onhs/olms/internal/api/middleware"
	"github.com/onhs/olms/internal/core/ports"
)

type SettingsHandler struct {
	settings ports.SettingsService
}

func NewSettingsHandler(settings ports.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

type maintenanceRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// Get returns the current system settings.
//
// @Summary      System settings
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.SystemSettings
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Router       /api/settings [get]
func (h *SettingsHandler) Get(c echo.Context) error {
	if s := middleware.SettingsFrom(c); s != nil {
		return c.JSON(http.StatusOK, s)
	}
	s, err := h.settings.Current(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// SetMaintenance turns maintenance mode on or off.
//
// @Summary      Toggle maintenance mode
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      maintenanceRequest  true  "Desired state"
// @Success      200   {object}  domain.SystemSettings
// @Failure      400   {object}  messageResponse
// @Failure      403   {object}  messageResponse
// @Router       /api/settings/maintenance [put]
func (h *SettingsHandler) SetMaintenance(c echo.Context) error {
	var req maintenanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	before, after, err := h.settings.SetMaintenance(c.Request().Context(), *req.Enabled)
	if err != nil {
		return err
	}

	audit := middleware.AuditFrom(c)
	audit.SetEntityID("system")
	audit.AddDetail("before", map[string]any{"maintenanceMode": before.MaintenanceMode})
	audit.AddDetail("after", map[string]any{"maintenanceMode": after.MaintenanceMode})
	if after.MaintenanceMode {
		audit.Description = "Maintenance mode enabled"
	} else {
		audit.Description = "Maintenance mode disabled"
	}

	return c.JSON(http.StatusOK, after)
}
