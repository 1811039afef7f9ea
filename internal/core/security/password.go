// Package security hashes and verifies account passwords.
package security

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptPrefixes are the algorithm tags bcrypt digests start with.
var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// Hash returns a bcrypt digest of password at the default cost.
func Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// IsLegacy reports whether stored is not a recognised digest and therefore
// holds a plaintext password from before hashing was introduced.
func IsLegacy(stored string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(stored, p) {
			return false
		}
	}
	return true
}

// Verify checks password against stored. Recognised digests are compared with
// bcrypt; anything else is compared as legacy plaintext. Callers should rehash
// on a legacy match.
func Verify(password, stored string) bool {
	if stored == "" {
		return false
	}
	if !IsLegacy(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}
