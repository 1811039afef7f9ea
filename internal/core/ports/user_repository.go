package ports

import (
	"context"
	"time"

	"github.com/onhs/olms/internal/core/domain"
)

// UserRepository defines the user-store operations the session core needs.
// Lookups return domain.ErrUserNotFound when no account matches.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByLogin matches identifier against the email or the username.
	FindByLogin(ctx context.Context, identifier string) (*domain.User, error)
	// FindFirst returns the oldest active account. Used by the test bypass loader only.
	FindFirst(ctx context.Context) (*domain.User, error)
	// UpdateActivity stamps the last-activity time, and the last-login time
	// when login is true.
	UpdateActivity(ctx context.Context, id string, at time.Time, login bool) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}
