// Package session holds the stateless pieces of the session lifecycle: token
// signing and verification, lifetime and refresh-window policy, credential
// extraction and the session cookie shape. Nothing in here performs I/O.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/onhs/olms/internal/core/domain"
)

// Claims is the payload of a session token.
type Claims struct {
	UserID   string `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ExpiresTime returns the token expiry, or the zero time when absent.
func (c *Claims) ExpiresTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Codec signs and verifies HS256 session tokens.
type Codec struct {
	secret      []byte
	maxLifetime time.Duration
	now         func() time.Time
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithClock replaces time.Now for signing and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec builds a Codec. maxLifetime caps every token it signs.
func NewCodec(secret string, maxLifetime time.Duration, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("session: signing secret is empty")
	}
	if maxLifetime <= 0 {
		return nil, errors.New("session: max lifetime must be positive")
	}
	c := &Codec{
		secret:      []byte(secret),
		maxLifetime: maxLifetime,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Sign mints a token for the identity fields of claims. The lifetime is
// clamped to [1s, maxLifetime]. The returned time is the token expiry.
func (c *Codec) Sign(claims Claims, lifetime time.Duration) (string, time.Time, error) {
	if claims.UserID == "" {
		return "", time.Time{}, errors.New("session: cannot sign token without subject")
	}
	if lifetime < time.Second {
		lifetime = time.Second
	}
	if lifetime > c.maxLifetime {
		lifetime = c.maxLifetime
	}

	now := c.now().Truncate(time.Second)
	expiresAt := now.Add(lifetime)

	payload := Claims{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
		Role:     claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and expiry of token. Failures wrap
// domain.ErrExpiredToken or domain.ErrInvalidToken.
func (c *Codec) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	var claims Claims
	tkn, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", domain.ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	return &claims, nil
}
