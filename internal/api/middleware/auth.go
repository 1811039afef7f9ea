package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/onhs/olms/internal/api/metrics"
	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/ports"
	"github.com/onhs/olms/internal/core/session"
)

// Authenticator establishes the caller identity on protected routes.
type Authenticator struct {
	resolver  session.Resolver
	codec     *session.Codec
	loader    ports.IdentityLoader
	gate      *MaintenanceGate
	refresher *SessionRefresher
	cookie    session.CookiePolicy
	log       zerolog.Logger
}

func NewAuthenticator(
	codec *session.Codec,
	loader ports.IdentityLoader,
	gate *MaintenanceGate,
	refresher *SessionRefresher,
	cookie session.CookiePolicy,
	log zerolog.Logger,
) *Authenticator {
	return &Authenticator{
		resolver:  session.Resolver{CookieName: cookie.CookieName()},
		codec:     codec,
		loader:    loader,
		gate:      gate,
		refresher: refresher,
		cookie:    cookie,
		log:       log,
	}
}

// Middleware resolves and verifies the session token, loads the identity,
// applies the maintenance gate and renews the session when it is close to
// expiry, in that order. Credential and identity failures clear a presented
// session cookie.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var (
				creds    session.Credentials
				verified *session.Verified
				claims   *session.Claims
				err      error
			)

			if a.loader.RequiresCredential() {
				creds, err = a.resolver.Resolve(c.Request())
				if err != nil {
					return a.reject(c, creds, err)
				}
				verified, err = creds.Verify(a.codec.Verify)
				if err != nil {
					return a.reject(c, creds, err)
				}
				if verified.Fallback {
					metrics.CredentialFallbackTotal.Inc()
					a.log.Debug().
						Str("request_id", requestID(c)).
						Msg("header token rejected, authenticated with session cookie")
				}
				claims = verified.Claims
			}

			identity, err := a.loader.Load(c.Request().Context(), claims)
			if err != nil {
				return a.reject(c, creds, err)
			}
			c.Set(identityKey, identity)
			c.Set(sessionKey, verified)
			metrics.AuthOutcomesTotal.WithLabelValues("success").Inc()

			settings, err := a.gate.Check(c, identity)
			if err != nil {
				return HTTPError(err)
			}

			a.refresher.Apply(c, identity, verified, settings)
			return next(c)
		}
	}
}

func (a *Authenticator) reject(c echo.Context, creds session.Credentials, err error) error {
	f, known := Classify(err)
	if !known {
		metrics.AuthOutcomesTotal.WithLabelValues("error").Inc()
		a.log.Error().Err(err).
			Str("path", c.Path()).
			Str("request_id", requestID(c)).
			Msg("authentication failed unexpectedly")
		return HTTPError(err)
	}

	metrics.AuthOutcomesTotal.WithLabelValues(f.Reason).Inc()
	if f.ClearsSession && creds.CookiePresent {
		c.SetCookie(a.cookie.Clear())
	}
	if !errors.Is(err, domain.ErrMissingCredential) {
		a.log.Debug().Err(err).Str("request_id", requestID(c)).Msg("authentication rejected")
	}
	return HTTPError(err)
}
