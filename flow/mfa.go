package flow

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/keyfold/keyfold/audit"
	"github.com/keyfold/keyfold/identity"
)

const recoveryCodeCount = 10

// MFASetupResult carries the pending secret and the provisioning URI the
// front end renders as a QR code.
type MFASetupResult struct {
	Secret          string
	ProvisioningURI string
}

// MFASetup generates a fresh TOTP secret for the user. From this point
// logins require a one-time code; MFAEnabled stays false until MFAVerify
// proves the user's authenticator produces matching codes. Re-running
// setup overwrites any prior secret, so an interrupted enrollment just
// starts over.
func (e *Engine) MFASetup(ctx context.Context, userID, issuer string) (MFASetupResult, error) {
	u, err := e.getUser(ctx, userID)
	if err != nil {
		return MFASetupResult{}, err
	}
	if issuer == "" {
		issuer = e.cfg.Issuer
	}

	secret, err := e.otp.GenerateSecret()
	if err != nil {
		return MFASetupResult{}, storeErr(err, "generate otp secret")
	}

	u.MFASecret = secret
	u.MFAEnabled = false
	u.RecoveryCodes = nil
	u.UpdatedAt = e.now()
	if err := e.users.UpdateByID(ctx, u); err != nil {
		return MFASetupResult{}, storeErr(err, "persist mfa secret")
	}

	ev := audit.NewEvent(audit.ActionMFASetup, "mfa", audit.StatusSuccess)
	ev.TargetID = u.ID
	e.emit(ctx, ev)
	e.log.Info("mfa setup initiated", zap.String("user_id", u.ID))

	return MFASetupResult{
		Secret:          secret,
		ProvisioningURI: e.otp.ProvisioningURI(u.Email, issuer, secret),
	}, nil
}

// MFAVerify checks a code against the pending secret. A wrong code is a
// normal false outcome, not an error; structural problems (unknown user,
// no setup pending) are errors. On the first successful verification MFA
// flips to enabled and one-time recovery codes are generated — returned
// in plaintext exactly once, stored only as digests.
func (e *Engine) MFAVerify(ctx context.Context, userID, code string) (bool, []string, error) {
	u, err := e.getUser(ctx, userID)
	if err != nil {
		return false, nil, err
	}
	if u.MFASecret == "" {
		return false, nil, fail(KindMFANotEnabled, "mfa setup has not been run for this account")
	}

	if !e.otp.Verify(code, u.MFASecret) {
		e.recordFailure(ctx, u, "bad mfa verification code")
		ev := audit.NewEvent(audit.ActionMFAVerify, "mfa", audit.StatusFail)
		ev.TargetID = u.ID
		ev.Reason = "bad code"
		e.emit(ctx, ev)
		return false, nil, nil
	}

	alreadyEnabled := u.MFAEnabled
	u.MFAEnabled = true
	var plaintext []string
	if !alreadyEnabled {
		plaintext = newRecoveryCodes()
		u.RecoveryCodes = digestCodes(plaintext)
	}
	u.FailedLoginAttempts = 0
	u.LockedUntil = 0
	u.UpdatedAt = e.now()
	if err := e.users.UpdateByID(ctx, u); err != nil {
		return false, nil, storeErr(err, "persist mfa state")
	}

	ev := audit.NewEvent(audit.ActionMFAVerify, "mfa", audit.StatusSuccess)
	ev.TargetID = u.ID
	e.emit(ctx, ev)
	e.log.Info("mfa enabled", zap.String("user_id", u.ID))
	return true, plaintext, nil
}

// newRecoveryCodes produces human-typable one-time codes, xxxxx-xxxxx hex.
func newRecoveryCodes() []string {
	codes := make([]string, recoveryCodeCount)
	for i := range codes {
		buf := make([]byte, 5)
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand failure means no usable entropy at all.
			panic(fmt.Sprintf("recovery codes: %v", err))
		}
		s := hex.EncodeToString(buf)
		codes[i] = s[:5] + "-" + s[5:]
	}
	return codes
}

func digestCodes(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		sum := sha256.Sum256([]byte(c))
		out[i] = hex.EncodeToString(sum[:])
	}
	return out
}

// consumeRecoveryCode checks code against the user's unused recovery
// digests and removes it on match. Single use by construction: the
// digest is gone before the login proceeds.
func consumeRecoveryCode(u *identity.User, code string) bool {
	sum := sha256.Sum256([]byte(code))
	digest := hex.EncodeToString(sum[:])
	for i, d := range u.RecoveryCodes {
		if subtle.ConstantTimeCompare([]byte(d), []byte(digest)) == 1 {
			u.RecoveryCodes = append(u.RecoveryCodes[:i], u.RecoveryCodes[i+1:]...)
			return true
		}
	}
	return false
}
