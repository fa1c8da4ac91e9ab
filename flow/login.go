package flow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/keyfold/keyfold/audit"
	"github.com/keyfold/keyfold/identity"
)

// LoginParams carries a login attempt. OTPCode may be a TOTP code or an
// unused recovery code when the account has MFA enabled. TTL of zero
// takes the configured default.
type LoginParams struct {
	Email     string
	Password  string
	OTPCode   string
	TTL       time.Duration
	IPHash    string
	UserAgent string
}

// LoginResult is the public outcome of a successful login.
type LoginResult struct {
	User    identity.PublicUser
	Session identity.PublicSession
}

// Login runs the credential, lockout, and MFA gates in order and issues
// a session on full success.
//
// The order is deliberate: an active lockout short-circuits before any
// credential work, so a locked attempt neither leaks hash timing nor
// consumes another counted failure.
func (e *Engine) Login(ctx context.Context, p LoginParams) (LoginResult, error) {
	email := identity.NormalizeEmail(p.Email)
	u, err := e.findByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, e.loginFailed(ctx, "", "", err)
	}

	now := e.now()
	if u.LockedAt(now) {
		return LoginResult{}, e.loginFailed(ctx, u.ID, "locked until "+u.LockExpiry().Format(time.RFC3339),
			fail(KindAccountLocked, "account locked until %s", u.LockExpiry().Format(time.RFC3339)))
	}

	if !e.hasher.Verify(p.Password, u.PasswordHash) {
		e.recordFailure(ctx, u, "bad password")
		return LoginResult{}, e.loginFailed(ctx, u.ID, "bad password",
			fail(KindInvalidCredentials, "invalid email or password"))
	}

	// Transparent hash upgrade: never fails the login, and a persistence
	// error here only costs us the upgrade, not the session.
	if e.hasher.NeedsRehash(u.PasswordHash) {
		e.rehash(ctx, u, p.Password)
	}

	// A provisioned secret gates the login even before the first
	// verification confirms it; MFAEnabled only tracks whether the
	// enrollment was proven and recovery codes were issued.
	if u.MFASecret != "" {
		if p.OTPCode == "" {
			return LoginResult{}, e.loginFailed(ctx, u.ID, "otp code missing",
				fail(KindMFARequired, "account requires a one-time code"))
		}
		if !e.otp.Verify(p.OTPCode, u.MFASecret) && !consumeRecoveryCode(u, p.OTPCode) {
			e.recordFailure(ctx, u, "bad otp code")
			return LoginResult{}, e.loginFailed(ctx, u.ID, "bad otp code",
				fail(KindMFAInvalid, "invalid one-time code"))
		}
	}

	// Full success: clear lockout state and persist before issuing the
	// session, so a crash between the two leaves no phantom session.
	u.FailedLoginAttempts = 0
	u.LockedUntil = 0
	u.UpdatedAt = now
	if err := e.users.UpdateByID(ctx, u); err != nil {
		return LoginResult{}, storeErr(err, "persist login state")
	}

	ttl := p.TTL
	if ttl <= 0 {
		ttl = e.cfg.SessionTTL
	}
	sess := identity.NewSession(u.ID, ttl, now)
	sess.IPHash = p.IPHash
	sess.UserAgent = p.UserAgent
	if err := e.sessions.Append(ctx, sess); err != nil {
		return LoginResult{}, storeErr(err, "append session")
	}

	cat, err := e.catalog(ctx)
	if err != nil {
		return LoginResult{}, err
	}

	ev := audit.NewEvent(audit.ActionLogin, "auth", audit.StatusSuccess)
	ev.Actor = u.ID
	ev.SessionID = sess.ID
	e.emit(ctx, ev)
	e.log.Info("login succeeded",
		zap.String("user_id", u.ID),
		zap.String("session_id", sess.ID),
		zap.Duration("ttl", ttl),
	)

	return LoginResult{
		User:    e.publicUser(u, cat),
		Session: sess.Public(now),
	}, nil
}

func (e *Engine) loginFailed(ctx context.Context, userID, reason string, cause error) error {
	ev := audit.NewEvent(audit.ActionLogin, "auth", audit.StatusFail)
	ev.Actor = userID
	if reason == "" {
		if fe, ok := cause.(*Error); ok {
			reason = string(fe.Kind)
		}
	}
	ev.Reason = reason
	e.emit(ctx, ev)
	return cause
}

// rehash upgrades the stored hash to current policy after a successful
// password check (write-through, best effort).
func (e *Engine) rehash(ctx context.Context, u *identity.User, password string) {
	newHash, err := e.hasher.Hash(password)
	if err != nil {
		e.log.Warn("rehash failed", zap.String("user_id", u.ID), zap.Error(err))
		return
	}
	u.PasswordHash = newHash
	u.UpdatedAt = e.now()
	if err := e.users.UpdateByID(ctx, u); err != nil {
		e.log.Warn("rehash not persisted", zap.String("user_id", u.ID), zap.Error(err))
		return
	}
	ev := audit.NewEvent(audit.ActionRehash, "user", audit.StatusSuccess)
	ev.TargetID = u.ID
	e.emit(ctx, ev)
}
