package ports

import (
	"context"
	"time"

	"github.com/onhs/olms/internal/core/domain"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Lifetime  time.Duration
	Identity  *domain.Identity
}

type AuthService interface {
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
}

// SettingsService reads and updates the system settings.
type SettingsService interface {
	Current(ctx context.Context) (*domain.SystemSettings, error)
	SetMaintenance(ctx context.Context, enabled bool) (before, after *domain.SystemSettings, err error)
}
