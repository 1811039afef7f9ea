package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/ports"
	"github.com/onhs/olms/internal/core/security"
	"github.com/onhs/olms/internal/core/session"
)

// AuthService implements password login.
type AuthService struct {
	users    ports.UserRepository
	settings ports.SettingsCache
	codec    *session.Codec
	policy   session.Policy
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	settings ports.SettingsCache,
	codec *session.Codec,
	policy session.Policy,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		settings: settings,
		codec:    codec,
		policy:   policy,
		log:      log,
		now:      time.Now,
	}
}

func (s *AuthService) Login(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !security.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDeactivated
	}
	if security.IsLegacy(user.PasswordHash) {
		s.rehash(ctx, user.ID, password)
	}

	lifetime := s.policy.ResolveLifetime(s.snapshot(ctx))
	identity := domain.NewIdentity(user)

	token, expiresAt, err := s.codec.Sign(session.Claims{
		UserID:   identity.ID,
		Email:    identity.Email,
		Username: identity.Username,
		Role:     identity.TokenRole(),
	}, lifetime)
	if err != nil {
		return nil, err
	}

	touchActivity(ctx, s.users, s.log, user.ID, s.now().UTC(), true)

	return &ports.LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Lifetime:  lifetime,
		Identity:  identity,
	}, nil
}

func (s *AuthService) snapshot(ctx context.Context) *domain.SystemSettings {
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("settings snapshot unavailable, using default session lifetime")
		return nil
	}
	return settings
}

// rehash replaces a legacy plaintext password with a bcrypt digest.
func (s *AuthService) rehash(ctx context.Context, userID, password string) {
	s.log.Warn().Str("user_id", userID).Msg("legacy plaintext password matched, rehashing")

	digest, err := security.Hash(password)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to hash legacy password")
		return
	}
	if err := s.users.UpdatePasswordHash(context.WithoutCancel(ctx), userID, digest); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to store rehashed password")
	}
}
