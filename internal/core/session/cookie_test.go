package session

import (
	"net/http"
	"testing"
	"time"
)

func TestParseSameSite(t *testing.T) {
	cases := map[string]http.SameSite{
		"strict": http.SameSiteStrictMode,
		"None":   http.SameSiteNoneMode,
		"lax":    http.SameSiteLaxMode,
		"":       http.SameSiteLaxMode,
		"bogus":  http.SameSiteLaxMode,
	}
	for in, want := range cases {
		if got := ParseSameSite(in); got != want {
			t.Fatalf("ParseSameSite(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCookiePolicy_Issue(t *testing.T) {
	p := CookiePolicy{Name: "sid", Domain: "library.example", Secure: true, SameSite: http.SameSiteStrictMode}

	c := p.Issue("tok", 90*time.Minute, testNow)

	if c.Name != "sid" || c.Value != "tok" {
		t.Fatalf("unexpected name/value: %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected flags: %+v", c)
	}
	if c.Path != "/" || c.Domain != "library.example" {
		t.Fatalf("unexpected scope: path=%q domain=%q", c.Path, c.Domain)
	}
	if c.MaxAge != 5400 || !c.Expires.Equal(testNow.Add(90*time.Minute)) {
		t.Fatalf("unexpected expiry: maxAge=%d expires=%v", c.MaxAge, c.Expires)
	}
}

func TestCookiePolicy_Defaults(t *testing.T) {
	var p CookiePolicy

	c := p.Issue("tok", time.Minute, testNow)
	if c.Name != DefaultCookieName || c.Path != "/" || c.SameSite != http.SameSiteLaxMode || c.Secure {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestCookiePolicy_Clear(t *testing.T) {
	c := CookiePolicy{Name: "sid", Path: "/api"}.Clear()

	if c.Name != "sid" || c.Value != "" || c.MaxAge >= 0 || c.Path != "/api" || !c.HttpOnly {
		t.Fatalf("unexpected clearing cookie: %+v", c)
	}
}
