package domain

import "errors"

// Authentication and session errors. Middleware maps each of them onto a
// fixed HTTP status and message.
var (
	ErrMissingCredential  = errors.New("no session credential provided")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrExpiredToken       = errors.New("session token expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrServiceUnavailable = errors.New("system is in maintenance mode")
)

// ErrInvalidCredentials is returned by login for a wrong identifier or password.
var ErrInvalidCredentials = errors.New("invalid credentials")
