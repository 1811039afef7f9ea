package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/ports"
	"github.com/onhs/olms/internal/core/session"
)

const activityWriteTimeout = 5 * time.Second

// TokenIdentityLoader loads the account named by a verified token subject.
type TokenIdentityLoader struct {
	users ports.UserRepository
	log   zerolog.Logger
	now   func() time.Time
}

func NewTokenIdentityLoader(users ports.UserRepository, log zerolog.Logger) *TokenIdentityLoader {
	return &TokenIdentityLoader{users: users, log: log, now: time.Now}
}

func (l *TokenIdentityLoader) RequiresCredential() bool { return true }

func (l *TokenIdentityLoader) Load(ctx context.Context, claims *session.Claims) (*domain.Identity, error) {
	if claims == nil || claims.UserID == "" {
		return nil, domain.ErrInvalidToken
	}

	user, err := l.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %s: %w", claims.UserID, err)
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDeactivated
	}

	touchActivity(ctx, l.users, l.log, user.ID, l.now().UTC(), false)
	return domain.NewIdentity(user), nil
}

// BypassIdentityLoader authenticates every request as the first active
// account without looking at credentials. It exists for integration tests
// and must only be selected behind AUTH_TEST_BYPASS.
type BypassIdentityLoader struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewBypassIdentityLoader(users ports.UserRepository, log zerolog.Logger) *BypassIdentityLoader {
	return &BypassIdentityLoader{users: users, log: log}
}

func (l *BypassIdentityLoader) RequiresCredential() bool { return false }

func (l *BypassIdentityLoader) Load(ctx context.Context, _ *session.Claims) (*domain.Identity, error) {
	user, err := l.users.FindFirst(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("load first user: %w", err)
	}
	l.log.Debug().Str("user_id", user.ID).Msg("test bypass identity in use")
	return domain.NewIdentity(user), nil
}

// touchActivity records activity without failing the caller. The write is
// detached from ctx so a client disconnect does not abort it.
func touchActivity(ctx context.Context, users ports.UserRepository, log zerolog.Logger, id string, at time.Time, login bool) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), activityWriteTimeout)
	defer cancel()

	if err := users.UpdateActivity(writeCtx, id, at, login); err != nil {
		log.Warn().Err(err).Str("user_id", id).Bool("login", login).Msg("failed to record user activity")
	}
}
