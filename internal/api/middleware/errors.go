package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onhs/olms/internal/core/domain"
)

// Failure describes how a domain error is presented to clients.
type Failure struct {
	Status  int
	Message string
	// Reason is the metric label for the failure.
	Reason string
	// ClearsSession is true for credential failures that invalidate the
	// presented session cookie.
	ClearsSession bool
}

var failures = []struct {
	err     error
	failure Failure
}{
	{domain.ErrMissingCredential, Failure{http.StatusUnauthorized, "No token provided", "missing_credential", true}},
	{domain.ErrExpiredToken, Failure{http.StatusUnauthorized, "Token expired", "expired_token", true}},
	{domain.ErrInvalidToken, Failure{http.StatusUnauthorized, "Invalid token", "invalid_token", true}},
	{domain.ErrUserNotFound, Failure{http.StatusUnauthorized, "User not found", "user_not_found", true}},
	{domain.ErrAccountDeactivated, Failure{http.StatusUnauthorized, "Account is deactivated", "account_deactivated", true}},
	{domain.ErrUnauthorized, Failure{http.StatusUnauthorized, "Authentication failed", "unauthorized", true}},
	{domain.ErrInvalidCredentials, Failure{http.StatusUnauthorized, "Invalid credentials", "invalid_credentials", false}},
	{domain.ErrForbidden, Failure{http.StatusForbidden, "Insufficient permissions", "forbidden", true}},
	{domain.ErrServiceUnavailable, Failure{http.StatusServiceUnavailable, "System is currently in maintenance mode", "maintenance", false}},
}

// Classify maps err onto its client-facing failure. ok is false for errors
// outside the authentication taxonomy.
func Classify(err error) (f Failure, ok bool) {
	for _, entry := range failures {
		if errors.Is(err, entry.err) {
			return entry.failure, true
		}
	}
	return Failure{}, false
}

// HTTPError converts err into an *echo.HTTPError carrying err as the internal
// cause. Unclassified errors become a generic 401 "Authentication failed".
func HTTPError(err error) *echo.HTTPError {
	f, ok := Classify(err)
	if !ok {
		f, _ = Classify(domain.ErrUnauthorized)
	}
	return echo.NewHTTPError(f.Status, f.Message).SetInternal(err)
}
