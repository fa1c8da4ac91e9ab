package flow

import (
	"context"
	"errors"
	"unicode"

	"go.uber.org/zap"

	"github.com/keyfold/keyfold/audit"
	"github.com/keyfold/keyfold/identity"
	"github.com/keyfold/keyfold/role"
	"github.com/keyfold/keyfold/store"

	"github.com/google/uuid"
)

// RegisterParams carries the registration input. Roles defaults to the
// built-in user preset when empty; ExtraPermissions are validated against
// the catalog and invalid entries dropped.
type RegisterParams struct {
	Email            string
	Password         string
	Roles            []string
	ExtraPermissions []string
}

// Register creates a new account and returns its redacted public view.
func (e *Engine) Register(ctx context.Context, p RegisterParams) (identity.PublicUser, error) {
	email := identity.NormalizeEmail(p.Email)
	if !identity.ValidEmail(email) {
		return identity.PublicUser{}, e.registerFailed(ctx, email,
			fail(KindInvalidEmail, "malformed email address"))
	}
	if err := checkPasswordStrength(p.Password); err != nil {
		return identity.PublicUser{}, e.registerFailed(ctx, email, err)
	}

	hash, err := e.hasher.Hash(p.Password)
	if err != nil {
		return identity.PublicUser{}, storeErr(err, "hash password")
	}

	roles := p.Roles
	if len(roles) == 0 {
		roles = []string{role.User}
	}

	now := e.now()
	u := &identity.User{
		ID:               uuid.New().String(),
		Email:            email,
		PasswordHash:     hash,
		Roles:            roles,
		ExtraPermissions: role.NormalizeStrings(p.ExtraPermissions),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := e.users.Append(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return identity.PublicUser{}, e.registerFailed(ctx, email,
				failWrap(KindEmailTaken, err, "email already registered"))
		}
		return identity.PublicUser{}, storeErr(err, "append user")
	}

	cat, err := e.catalog(ctx)
	if err != nil {
		return identity.PublicUser{}, err
	}

	ev := audit.NewEvent(audit.ActionRegister, "user", audit.StatusSuccess)
	ev.TargetID = u.ID
	e.emit(ctx, ev)
	e.log.Info("user registered",
		zap.String("user_id", u.ID),
		zap.Strings("roles", u.Roles),
	)
	return e.publicUser(u, cat), nil
}

func (e *Engine) registerFailed(ctx context.Context, email string, cause *Error) *Error {
	ev := audit.NewEvent(audit.ActionRegister, "user", audit.StatusFail)
	ev.Reason = string(cause.Kind)
	ev.Meta = map[string]string{"email": email}
	e.emit(ctx, ev)
	return cause
}

// checkPasswordStrength enforces the registration password policy: at
// least 8 characters with all four character classes present. This is a
// mandatory-class check, not a scored one.
func checkPasswordStrength(password string) *Error {
	if len(password) < 8 {
		return fail(KindWeakPassword, "password must be at least 8 characters")
	}
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if !lower || !upper || !digit || !symbol {
		return fail(KindWeakPassword,
			"password needs lowercase, uppercase, digit, and symbol characters")
	}
	return nil
}
