package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
	RoleStaff     = "staff"
	RoleStudent   = "student"
)

// DefaultRole is applied when a stored user has no role at all.
const DefaultRole = RoleStudent

// roleSynonyms collapses the spellings found in stored records onto the
// canonical role names used for authorization.
var roleSynonyms = map[string]string{
	"admin":         RoleAdmin,
	"administrator": RoleAdmin,
	"super-admin":   RoleAdmin,
	"super_admin":   RoleAdmin,
	"superadmin":    RoleAdmin,
	"super admin":   RoleAdmin,

	"librarian":      RoleLibrarian,
	"head-librarian": RoleLibrarian,
	"head librarian": RoleLibrarian,

	"staff":         RoleStaff,
	"library-staff": RoleStaff,
	"library staff": RoleStaff,

	"student":  RoleStudent,
	"patron":   RoleStudent,
	"borrower": RoleStudent,
}

// NormalizeRole lower-cases and trims a role and maps known synonyms onto
// their canonical name. Unknown roles are returned lower-cased; an empty role
// becomes DefaultRole.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return DefaultRole
	}
	if canonical, ok := roleSynonyms[r]; ok {
		return canonical
	}
	return r
}

// User models a library account (admin, librarian, staff or student patron).
type User struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	Email          string         `json:"email,omitempty"`
	FirstName      string         `json:"firstName,omitempty"`
	LastName       string         `json:"lastName,omitempty"`
	PasswordHash   string         `json:"-"`
	Role           string         `json:"role"`
	IsActive       bool           `json:"isActive"`
	Preferences    map[string]any `json:"preferences,omitempty"`
	LastActivityAt time.Time      `json:"lastActivityAt,omitempty"`
	LastLoginAt    time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Identity is the per-request view of an authenticated user. It is built once
// by an identity loader and never persisted.
type Identity struct {
	User
	// Role (promoted from User) holds the normalized role.
	RoleLabel    string `json:"roleLabel"`
	RoleOriginal string `json:"roleOriginal"`
}

// NewIdentity derives the request identity from a stored user record.
func NewIdentity(u *User) *Identity {
	view := *u
	view.Role = NormalizeRole(u.Role)
	if view.Preferences == nil {
		view.Preferences = map[string]any{}
	}

	label := strings.TrimSpace(u.Role)
	if label == "" {
		label = strings.ToUpper(view.Role[:1]) + view.Role[1:]
	}

	return &Identity{
		User:         view,
		RoleLabel:    label,
		RoleOriginal: u.Role,
	}
}

// TokenRole is the role written into session tokens: the raw stored value
// when there is one, otherwise the normalized role.
func (i *Identity) TokenRole() string {
	if i.RoleOriginal != "" {
		return i.RoleOriginal
	}
	return i.Role
}

// HasRole reports whether the identity's normalized role matches any of the
// given roles after normalizing them too.
func (i *Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if NormalizeRole(r) == i.Role {
			return true
		}
	}
	return false
}
