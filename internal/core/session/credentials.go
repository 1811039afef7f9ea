package session

import (
	"net/http"
	"strings"

	"github.com/onhs/olms/internal/core/domain"
)

// Source names the transport a token arrived on.
type Source string

const (
	SourceHeader Source = "header"
	SourceCookie Source = "cookie"
)

// Candidate is a token that still has to be verified.
type Candidate struct {
	Token  string
	Source Source
}

// Credentials is the normalized result of reading both transports: one
// primary token and, when header and cookie disagree, the cookie as fallback.
type Credentials struct {
	Primary   Candidate
	Secondary *Candidate
	// CookiePresent is true when the request carried a non-empty session cookie.
	CookiePresent bool
}

// Verified is the token that authenticated the request.
type Verified struct {
	Claims *Claims
	Token  string
	Source Source
	// Fallback is true when the primary token was rejected and the secondary
	// one was adopted instead.
	Fallback bool
}

// Resolver extracts session credentials from a request.
type Resolver struct {
	CookieName string
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header,
// or "" for any other scheme.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Resolve reads the bearer header and the session cookie of r.
func (res Resolver) Resolve(r *http.Request) (Credentials, error) {
	header := BearerToken(r.Header.Get("Authorization"))

	var cookie string
	if c, err := r.Cookie(res.CookieName); err == nil {
		cookie = strings.TrimSpace(c.Value)
	}

	return Combine(header, cookie)
}

// Combine applies the transport precedence: the header wins, the cookie is
// kept as fallback only when it differs from the header.
func Combine(header, cookie string) (Credentials, error) {
	creds := Credentials{CookiePresent: cookie != ""}

	switch {
	case header == "" && cookie == "":
		return creds, domain.ErrMissingCredential
	case header == "":
		creds.Primary = Candidate{Token: cookie, Source: SourceCookie}
	case cookie == "" || cookie == header:
		creds.Primary = Candidate{Token: header, Source: SourceHeader}
	default:
		creds.Primary = Candidate{Token: header, Source: SourceHeader}
		creds.Secondary = &Candidate{Token: cookie, Source: SourceCookie}
	}
	return creds, nil
}

// Verify tries the primary token, then the secondary one. When both fail the
// primary error is returned.
func (c Credentials) Verify(verify func(token string) (*Claims, error)) (*Verified, error) {
	claims, primaryErr := verify(c.Primary.Token)
	if primaryErr == nil {
		return &Verified{Claims: claims, Token: c.Primary.Token, Source: c.Primary.Source}, nil
	}

	if c.Secondary == nil || c.Secondary.Token == c.Primary.Token {
		return nil, primaryErr
	}

	claims, err := verify(c.Secondary.Token)
	if err != nil {
		return nil, primaryErr
	}
	return &Verified{
		Claims:   claims,
		Token:    c.Secondary.Token,
		Source:   c.Secondary.Source,
		Fallback: true,
	}, nil
}
