package ports

import (
	"context"

	"github.com/onhs/olms/internal/core/domain"
)

// SettingsRepository persists the single system-settings document.
type SettingsRepository interface {
	// Get returns the stored settings, or domain.DefaultSettings when none exist.
	Get(ctx context.Context) (*domain.SystemSettings, error)
	SetMaintenance(ctx context.Context, enabled bool) (*domain.SystemSettings, error)
}

// SettingsCache serves read-only settings snapshots to the request path.
type SettingsCache interface {
	Snapshot(ctx context.Context) (*domain.SystemSettings, error)
	Invalidate(ctx context.Context) error
}
