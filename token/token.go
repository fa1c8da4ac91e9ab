// Package token mints and parses compact signed bearer tokens that
// reference a session record.
//
// The token is a convenience handle for front ends: it carries the
// session and user ids plus the session expiry, signed with HS256. The
// session record remains the source of truth — revocation is only
// visible by checking the record, so holders must resolve the session id
// through the engine before trusting a token.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/keyfold/keyfold/identity"
)

// Claims carried by a session token.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issuer signs and validates session tokens.
type Issuer struct {
	secret []byte
	name   string
}

// NewIssuer creates an issuer signing with the given HMAC secret.
func NewIssuer(secret []byte, name string) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: empty signing secret")
	}
	return &Issuer{secret: secret, name: name}, nil
}

// Mint signs a token for the session, expiring with the session itself.
func (i *Issuer) Mint(sess identity.PublicSession) (string, error) {
	claims := Claims{
		SessionID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID,
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			Issuer:    i.name,
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(i.secret)
}

// Parse validates the signature and expiry and returns the claims.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.name), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("token: invalid claims")
	}
	return claims, nil
}

// TTL reports how long the claims remain valid from now.
func (c *Claims) TTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}
