// Package otp implements the one-time-password collaborator with TOTP.
package otp

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"net/url"

	"github.com/pquerna/otp/totp"
)

// TOTP issues base32 shared secrets and validates 6-digit time-based
// codes against them.
type TOTP struct{}

func NewTOTP() *TOTP { return &TOTP{} }

// GenerateSecret returns a fresh 160-bit secret, base32 without padding
// (authenticator apps reject base64 and padded forms).
func (t *TOTP) GenerateSecret() (string, error) {
	secret := make([]byte, 20)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// ProvisioningURI renders the otpauth:// URL that QR-code enrollment
// screens encode for authenticator apps.
func (t *TOTP) ProvisioningURI(accountLabel, issuer, secret string) string {
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		url.PathEscape(issuer), url.PathEscape(accountLabel), secret, url.QueryEscape(issuer))
}

// Verify checks the code against the secret for the current time window.
func (t *TOTP) Verify(code, secret string) bool {
	return totp.Validate(code, secret)
}
