package ports

import (
	"context"

	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/session"
)

// IdentityLoader turns verified token claims into the request identity.
type IdentityLoader interface {
	Load(ctx context.Context, claims *session.Claims) (*domain.Identity, error)
	// RequiresCredential is false for loaders that do not need a token at all.
	RequiresCredential() bool
}
