package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/onhs/olms/internal/core/domain"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mockCodec(t *testing.T, now func() time.Time) *Codec {
	t.Helper()
	codec, err := NewCodec("test-secret", 30*24*time.Hour, WithClock(now))
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return codec
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestCodec_SignAndVerify(t *testing.T) {
	codec := mockCodec(t, fixedClock(testNow))

	token, exp, err := codec.Sign(Claims{UserID: "u1", Email: "a@example.com", Username: "alice", Role: "Librarian"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if !exp.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", exp)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != "u1" || claims.Subject != "u1" || claims.Username != "alice" || claims.Role != "Librarian" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresTime().Equal(exp) {
		t.Fatalf("expiry mismatch: %v vs %v", claims.ExpiresTime(), exp)
	}
}

func TestCodec_Deterministic(t *testing.T) {
	codec := mockCodec(t, fixedClock(testNow))

	a, _, _ := codec.Sign(Claims{UserID: "u1"}, time.Minute)
	b, _, _ := codec.Sign(Claims{UserID: "u1"}, time.Minute)
	if a != b {
		t.Fatalf("expected identical tokens for identical input and clock")
	}
}

func TestCodec_Expired(t *testing.T) {
	now := testNow
	codec := mockCodec(t, func() time.Time { return now })

	token, _, err := codec.Sign(Claims{UserID: "u1"}, time.Minute)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	now = testNow.Add(2 * time.Minute)
	if _, err := codec.Verify(token); !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestCodec_RejectsTamperedAndForeignTokens(t *testing.T) {
	codec := mockCodec(t, fixedClock(testNow))
	token, _, _ := codec.Sign(Claims{UserID: "u1"}, time.Hour)
	other, _, _ := codec.Sign(Claims{UserID: "u2", Role: "admin"}, time.Hour)

	a, b := strings.Split(token, "."), strings.Split(other, ".")
	tampered := a[0] + "." + b[1] + "." + a[2]
	if _, err := codec.Verify(tampered); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}

	foreignCodec, err := NewCodec("another-secret", time.Hour, WithClock(fixedClock(testNow)))
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	foreign, _, _ := foreignCodec.Sign(Claims{UserID: "u1"}, time.Hour)
	if _, err := codec.Verify(foreign); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign token, got %v", err)
	}

	if _, err := codec.Verify("not-a-token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestCodec_RejectsOtherAlgorithms(t *testing.T) {
	codec := mockCodec(t, fixedClock(testNow))

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":  "u1",
		"exp": testNow.Add(time.Hour).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := codec.Verify(raw); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected none algorithm to be rejected, got %v", err)
	}
}

func TestCodec_ClampsLifetime(t *testing.T) {
	codec, err := NewCodec("test-secret", 2*time.Hour, WithClock(fixedClock(testNow)))
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	_, exp, err := codec.Sign(Claims{UserID: "u1"}, 48*time.Hour)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if !exp.Equal(testNow.Add(2 * time.Hour)) {
		t.Fatalf("expected expiry capped at max lifetime, got %v", exp)
	}

	_, exp, _ = codec.Sign(Claims{UserID: "u1"}, 0)
	if !exp.Equal(testNow.Add(time.Second)) {
		t.Fatalf("expected minimum lifetime of one second, got %v", exp)
	}
}

func TestCodec_RequiresSubject(t *testing.T) {
	codec := mockCodec(t, fixedClock(testNow))

	if _, _, err := codec.Sign(Claims{}, time.Hour); err == nil {
		t.Fatalf("expected error for missing subject")
	}

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": testNow.Add(time.Hour).Unix()})
	raw, _ := noSubject.SignedString([]byte("test-secret"))
	if _, err := codec.Verify(raw); err == nil || !strings.Contains(err.Error(), "missing subject") {
		t.Fatalf("expected missing subject error, got %v", err)
	}
}

func TestNewCodec_Validation(t *testing.T) {
	if _, err := NewCodec("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := NewCodec("secret", 0); err == nil {
		t.Fatalf("expected error for zero max lifetime")
	}
}
