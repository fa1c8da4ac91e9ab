package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/keyfold/keyfold/audit"
)

func TestRegisterRejectsMalformedEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, email := range []string{"", "alice", "alice@", "@example.com", "alice@nodot"} {
		_, err := env.engine.Register(ctx, RegisterParams{Email: email, Password: "S3gura!2024"})
		if !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("Register(%q) = %v, want invalid email", email, err)
		}
	}
}

func TestRegisterPasswordPolicy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		password string
	}{
		{"too short", "S3g!x"},
		{"no lowercase", "S3GURA!2024"},
		{"no uppercase", "s3gura!2024"},
		{"no digit", "Segura!abcd"},
		{"no symbol", "Segura2024x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.engine.Register(ctx, RegisterParams{
				Email:    "alice@example.com",
				Password: tc.password,
			})
			if !errors.Is(err, ErrWeakPassword) {
				t.Errorf("password %q = %v, want weak password", tc.password, err)
			}
		})
	}
}

func TestRegisterNormalizesAndRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pub := env.register(t, "  Alice@Example.COM ", "S3gura!2024")
	if pub.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", pub.Email)
	}

	_, err := env.engine.Register(ctx, RegisterParams{
		Email:    "ALICE@example.com",
		Password: "S3gura!2024",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate registration = %v, want email taken", err)
	}
}

func TestRegisterFiltersInvalidExtraPermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pub, err := env.engine.Register(ctx, RegisterParams{
		Email:            "bob@example.com",
		Password:         "S3gura!2024",
		Roles:            []string{"ghost-role"},
		ExtraPermissions: []string{"audit:read", "bogus:thing", "mfa:delete"},
	})
	if err != nil {
		t.Fatal(err)
	}
	// ghost-role grants nothing; only the valid extra survives.
	if len(pub.Permissions) != 1 || pub.Permissions[0] != "audit:read" {
		t.Errorf("permissions = %v, want [audit:read]", pub.Permissions)
	}
}

func TestRegisterInitialAccountState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := env.register(t, "carol@example.com", "S3gura!2024")

	u, err := env.users.GetByID(ctx, pub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.FailedLoginAttempts != 0 || u.LockedUntil != 0 || u.MFAEnabled {
		t.Errorf("fresh account state wrong: %+v", u)
	}
	if u.PasswordHash == "" || u.PasswordHash == "S3gura!2024" {
		t.Error("password must be stored hashed")
	}

	ev, ok := env.sink.Last(audit.ActionRegister)
	if !ok || ev.Status != audit.StatusSuccess || ev.TargetID != u.ID {
		t.Errorf("registration audit fact missing or wrong: %+v", ev)
	}
}
