package flow

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/keyfold/keyfold/audit"
	"github.com/keyfold/keyfold/identity"
	"github.com/keyfold/keyfold/store"
)

// Logout revokes the session. Not idempotent by design: callers must be
// able to distinguish "nothing to do" (already revoked or expired) from
// "no such session", so both cases are distinct errors.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	sess, err := e.getSession(ctx, sessionID)
	if err != nil {
		return err
	}

	now := e.now()
	if !sess.ActiveAt(now) {
		reason := "expired"
		if sess.Revoked() {
			reason = "revoked"
		}
		ev := audit.NewEvent(audit.ActionLogout, "auth", audit.StatusFail)
		ev.SessionID = sessionID
		ev.Reason = reason
		e.emit(ctx, ev)
		return fail(KindSessionInactive, "session already %s", reason)
	}

	sess.Revoke(now)
	if err := e.sessions.UpdateByID(ctx, sess); err != nil {
		return storeErr(err, "persist revocation")
	}

	ev := audit.NewEvent(audit.ActionLogout, "auth", audit.StatusSuccess)
	ev.Actor = sess.UserID
	ev.SessionID = sess.ID
	e.emit(ctx, ev)
	e.log.Info("session revoked",
		zap.String("session_id", sess.ID),
		zap.String("user_id", sess.UserID),
	)
	return nil
}

// Touch records activity on an active session, updating lastUsedAt.
// Fails exactly like Logout for absent or inactive sessions.
func (e *Engine) Touch(ctx context.Context, sessionID string) (identity.PublicSession, error) {
	sess, err := e.getSession(ctx, sessionID)
	if err != nil {
		return identity.PublicSession{}, err
	}

	now := e.now()
	if !sess.ActiveAt(now) {
		return identity.PublicSession{}, fail(KindSessionInactive, "session is not active")
	}

	sess.LastUsedAt = now
	if err := e.sessions.UpdateByID(ctx, sess); err != nil {
		return identity.PublicSession{}, storeErr(err, "persist activity")
	}
	ev := audit.NewEvent(audit.ActionTouch, "session", audit.StatusSuccess)
	ev.Actor = sess.UserID
	ev.SessionID = sess.ID
	e.emit(ctx, ev)
	return sess.Public(now), nil
}

// Session resolves a session id to its public view without mutating it.
func (e *Engine) Session(ctx context.Context, sessionID string) (identity.PublicSession, error) {
	sess, err := e.getSession(ctx, sessionID)
	if err != nil {
		return identity.PublicSession{}, err
	}
	return sess.Public(e.now()), nil
}

// Sessions lists every session of the user, newest last.
func (e *Engine) Sessions(ctx context.Context, userID string) ([]identity.PublicSession, error) {
	if _, err := e.getUser(ctx, userID); err != nil {
		return nil, err
	}
	all, err := e.sessions.ListAll(ctx)
	if err != nil {
		return nil, storeErr(err, "list sessions")
	}
	now := e.now()
	var out []identity.PublicSession
	for _, s := range all {
		if s.UserID == userID {
			out = append(out, s.Public(now))
		}
	}
	return out, nil
}

// RevokeAll revokes every active session of the user and returns how
// many were revoked. Inactive sessions are skipped, not errors.
func (e *Engine) RevokeAll(ctx context.Context, userID string) (int, error) {
	if _, err := e.getUser(ctx, userID); err != nil {
		return 0, err
	}
	all, err := e.sessions.ListAll(ctx)
	if err != nil {
		return 0, storeErr(err, "list sessions")
	}

	now := e.now()
	revoked := 0
	for _, s := range all {
		if s.UserID != userID || !s.ActiveAt(now) {
			continue
		}
		s.Revoke(now)
		if err := e.sessions.UpdateByID(ctx, s); err != nil {
			return revoked, storeErr(err, "persist revocation")
		}
		revoked++
	}

	ev := audit.NewEvent(audit.ActionRevokeAll, "session", audit.StatusSuccess)
	ev.TargetID = userID
	e.emit(ctx, ev)
	e.log.Info("revoked all sessions",
		zap.String("user_id", userID),
		zap.Int("count", revoked),
	)
	return revoked, nil
}

func (e *Engine) getSession(ctx context.Context, id string) (*identity.Session, error) {
	sess, err := e.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fail(KindSessionNotFound, "no session %s", id)
		}
		return nil, storeErr(err, "get session")
	}
	return sess, nil
}
