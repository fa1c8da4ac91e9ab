package identity

import (
	"time"

	"github.com/google/uuid"
)

// Session is a bounded-lifetime authorization record issued at login.
// It references its user by id only; deleting a user does not cascade.
//
// A session leaves the active state two ways: expiry (derived from
// ExpiresAt) or revocation (RevokedAt set once, terminal). A revoked
// session can never become active again.
type Session struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	LastUsedAt time.Time  `json:"last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	IPHash     string     `json:"ip_hash,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
}

// NewSession issues a session for userID valid for ttl from now.
func NewSession(userID string, ttl time.Duration, now time.Time) *Session {
	return &Session{
		ID:         uuid.New().String(),
		UserID:     userID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(ttl),
		LastUsedAt: now,
	}
}

// RecordID keys sessions in a record store.
func (s *Session) RecordID() string { return s.ID }

// Revoked reports whether the session has been explicitly revoked.
func (s *Session) Revoked() bool { return s.RevokedAt != nil }

// ExpiredAt reports whether the session's natural lifetime has elapsed.
func (s *Session) ExpiredAt(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// ActiveAt is the liveness predicate: not revoked and not yet expired.
func (s *Session) ActiveAt(now time.Time) bool {
	return !s.Revoked() && !s.ExpiredAt(now)
}

// Revoke marks the session revoked at the given instant. Revocation is
// terminal; calling Revoke again keeps the original timestamp.
func (s *Session) Revoke(now time.Time) {
	if s.RevokedAt == nil {
		t := now
		s.RevokedAt = &t
	}
}

// PublicSession is the outward view of a session.
type PublicSession struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	Active     bool      `json:"active"`
}

// Public builds the outward view, with liveness evaluated at now.
func (s *Session) Public(now time.Time) PublicSession {
	return PublicSession{
		ID:         s.ID,
		UserID:     s.UserID,
		IssuedAt:   s.IssuedAt,
		ExpiresAt:  s.ExpiresAt,
		LastUsedAt: s.LastUsedAt,
		Active:     s.ActiveAt(now),
	}
}
