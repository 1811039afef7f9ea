package session

import (
	"net/http"
	"strings"
	"time"
)

const DefaultCookieName = "olms_session"

// CookiePolicy describes the session cookie attributes. HttpOnly is always set.
type CookiePolicy struct {
	Name     string
	Path     string
	Domain   string
	SameSite http.SameSite
	Secure   bool
}

// ParseSameSite maps "strict", "none" and "lax" onto http.SameSite. Anything
// else is treated as lax.
func ParseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// CookieName returns the configured cookie name or DefaultCookieName.
func (p CookiePolicy) CookieName() string {
	if p.Name == "" {
		return DefaultCookieName
	}
	return p.Name
}

func (p CookiePolicy) base() *http.Cookie {
	path := p.Path
	if path == "" {
		path = "/"
	}
	sameSite := p.SameSite
	if sameSite == http.SameSiteDefaultMode {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     p.CookieName(),
		Path:     path,
		Domain:   p.Domain,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: sameSite,
	}
}

// Issue returns the session cookie for token, expiring with the session.
func (p CookiePolicy) Issue(token string, lifetime time.Duration, now time.Time) *http.Cookie {
	c := p.base()
	c.Value = token
	c.MaxAge = int(lifetime / time.Second)
	c.Expires = now.Add(lifetime).UTC()
	return c
}

// Clear returns a cookie that deletes the session cookie on the client.
func (p CookiePolicy) Clear() *http.Cookie {
	c := p.base()
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0).UTC()
	return c
}
