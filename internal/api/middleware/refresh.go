package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/onhs/olms/internal/api/metrics"
	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/session"
)

// Response headers that carry a renewed or mirrored session token.
const (
	HeaderSessionRefresh         = "X-Session-Refresh"
	HeaderSessionRefreshLifetime = "X-Session-Refresh-Lifetime"
)

// SessionRefresher renews tokens that are close to expiry.
type SessionRefresher struct {
	codec  *session.Codec
	policy session.Policy
	cookie session.CookiePolicy
	log    zerolog.Logger
	now    func() time.Time
}

func NewSessionRefresher(codec *session.Codec, policy session.Policy, cookie session.CookiePolicy, log zerolog.Logger) *SessionRefresher {
	return &SessionRefresher{codec: codec, policy: policy, cookie: cookie, log: log, now: time.Now}
}

// Apply renews the session when 0 < time left <= refresh threshold, writing
// the new token to the refresh headers and the session cookie. When the
// request was authenticated by the cookie and nothing was renewed, the cookie
// token is mirrored into the refresh header. Failures are logged only.
func (r *SessionRefresher) Apply(c echo.Context, identity *domain.Identity, v *session.Verified, settings *domain.SystemSettings) {
	if v == nil || v.Claims == nil || identity == nil {
		return
	}

	now := r.now()
	lifetime := r.policy.ResolveLifetime(settings)
	threshold := r.policy.RefreshThreshold(lifetime)
	timeLeft := v.Claims.ExpiresTime().Sub(now)

	if timeLeft > 0 && timeLeft <= threshold {
		r.renew(c, identity, lifetime, now)
	}

	h := c.Response().Header()
	if v.Source == session.SourceCookie && h.Get(HeaderSessionRefresh) == "" {
		h.Set(HeaderSessionRefresh, v.Token)
		h.Set(HeaderSessionRefreshLifetime, seconds(timeLeft))
		metrics.SessionRefreshTotal.WithLabelValues("mirrored").Inc()
	}
}

func (r *SessionRefresher) renew(c echo.Context, identity *domain.Identity, lifetime time.Duration, now time.Time) {
	token, expiresAt, err := r.codec.Sign(session.Claims{
		UserID:   identity.ID,
		Email:    identity.Email,
		Username: identity.Username,
		Role:     identity.TokenRole(),
	}, lifetime)
	if err != nil {
		metrics.SessionRefreshTotal.WithLabelValues("failed").Inc()
		r.log.Warn().Err(err).
			Str("user_id", identity.ID).
			Str("request_id", requestID(c)).
			Msg("session refresh failed")
		return
	}

	granted := expiresAt.Sub(now).Round(time.Second)
	h := c.Response().Header()
	h.Set(HeaderSessionRefresh, token)
	h.Set(HeaderSessionRefreshLifetime, seconds(granted))
	c.SetCookie(r.cookie.Issue(token, granted, now))
	metrics.SessionRefreshTotal.WithLabelValues("renewed").Inc()
}

func seconds(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return strconv.FormatInt(int64(d.Round(time.Second)/time.Second), 10)
}
