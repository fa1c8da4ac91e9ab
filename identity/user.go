// Package identity defines the persisted entities of the engine: users
// and sessions.
//
// Both types serialize fully (credential hash and MFA secret included)
// because they are the on-disk record format; anything handed outward
// goes through the redacted Public views instead.
package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/keyfold/keyfold/permission"
)

// emailRe accepts the usual local@domain.tld shape. Intentionally strict
// about whitespace: normalization trims before validation runs.
var emailRe = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// NormalizeEmail lowercases and trims an email address. All lookups and
// uniqueness checks operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the (already normalized) address is well formed.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// User is the account record. It is never hard-deleted; lifecycle state
// (locked or not) is derived from LockedUntil rather than stored as an
// enum.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`

	Roles            []string                `json:"roles"`
	ExtraPermissions []permission.Permission `json:"extra_permissions,omitempty"`

	MFAEnabled bool   `json:"mfa_enabled"`
	MFASecret  string `json:"mfa_secret,omitempty"`
	// RecoveryCodes holds SHA-256 digests of unused one-time recovery
	// codes; plaintext codes are shown exactly once at generation.
	RecoveryCodes []string `json:"recovery_codes,omitempty"`

	FailedLoginAttempts int `json:"failed_login_attempts"`
	// LockedUntil is epoch milliseconds; 0 means not locked.
	LockedUntil int64 `json:"locked_until"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordID keys users in a record store.
func (u *User) RecordID() string { return u.ID }

// LockedAt reports whether the account is locked at the given instant.
// An elapsed LockedUntil auto-unlocks; the stale field value is cleaned
// up on the next successful login.
func (u *User) LockedAt(now time.Time) bool {
	return u.LockedUntil > 0 && now.UnixMilli() < u.LockedUntil
}

// LockExpiry converts LockedUntil to a time. Zero time when not locked.
func (u *User) LockExpiry() time.Time {
	if u.LockedUntil == 0 {
		return time.Time{}
	}
	return time.UnixMilli(u.LockedUntil)
}

// PublicUser is the redacted outward view of a User: no hash, no MFA
// secret, no recovery digests, and the computed effective permission set
// instead of raw role plumbing.
type PublicUser struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	MFAEnabled  bool      `json:"mfa_enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Public builds the redacted view. The effective permission set is
// computed by the caller (it needs the role catalog).
func (u *User) Public(effective []permission.Permission) PublicUser {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)
	return PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		Roles:       roles,
		Permissions: permission.Strings(effective),
		MFAEnabled:  u.MFAEnabled,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
