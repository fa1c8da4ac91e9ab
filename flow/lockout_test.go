package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/keyfold/keyfold/audit"
)

func failLogin(t *testing.T, env *testEnv, email, password string) error {
	t.Helper()
	_, err := env.engine.Login(context.Background(), LoginParams{Email: email, Password: password})
	if err == nil {
		t.Fatal("expected login failure")
	}
	return err
}

func TestLockoutAfterFiveFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := env.register(t, "alice@example.com", "S3gura!2024")

	for i := 0; i < 5; i++ {
		if err := failLogin(t, env, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: got %v", i+1, err)
		}
	}

	u, _ := env.users.GetByID(ctx, pub.ID)
	if u.FailedLoginAttempts != 5 {
		t.Fatalf("failed attempts = %d, want 5", u.FailedLoginAttempts)
	}
	wantUntil := env.now.Add(15 * time.Minute).UnixMilli()
	if u.LockedUntil != wantUntil {
		t.Fatalf("locked until %d, want %d (15 minutes)", u.LockedUntil, wantUntil)
	}
	if ev, ok := env.sink.Last(audit.ActionLockout); !ok || ev.TargetID != pub.ID {
		t.Error("lockout should emit an audit fact")
	}
}

func TestLockedAttemptDoesNotConsumeCounter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := env.register(t, "alice@example.com", "S3gura!2024")

	for i := 0; i < 5; i++ {
		failLogin(t, env, "alice@example.com", "wrong")
	}

	// 6th attempt during the window: AccountLocked, even with the
	// correct password, and the counter must not move.
	env.advance(1 * time.Minute)
	err := failLogin(t, env, "alice@example.com", "S3gura!2024")
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("got %v, want account locked", err)
	}
	u, _ := env.users.GetByID(ctx, pub.ID)
	if u.FailedLoginAttempts != 5 {
		t.Errorf("locked attempt consumed a counter: %d", u.FailedLoginAttempts)
	}
}

func TestLockoutExpiresAndSuccessResets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := env.register(t, "alice@example.com", "S3gura!2024")

	for i := 0; i < 5; i++ {
		failLogin(t, env, "alice@example.com", "wrong")
	}

	// After the window elapses, correct credentials succeed and reset.
	env.advance(15*time.Minute + time.Second)
	if _, err := env.engine.Login(ctx, LoginParams{
		Email: "alice@example.com", Password: "S3gura!2024",
	}); err != nil {
		t.Fatalf("login after lock expiry failed: %v", err)
	}
	u, _ := env.users.GetByID(ctx, pub.ID)
	if u.FailedLoginAttempts != 0 || u.LockedUntil != 0 {
		t.Errorf("success must reset lockout state: attempts=%d until=%d",
			u.FailedLoginAttempts, u.LockedUntil)
	}
}

// Password and MFA failures share one counter: mixed failures lock too.
func TestMixedFailuresShareCounter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := env.register(t, "alice@example.com", "S3gura!2024")

	env.otp.valid = "123456"
	if _, err := env.engine.MFASetup(ctx, pub.ID, ""); err != nil {
		t.Fatal(err)
	}
	if ok, _, err := env.engine.MFAVerify(ctx, pub.ID, "123456"); err != nil || !ok {
		t.Fatal(err)
	}

	// 3 bad passwords + 2 bad otp codes = locked.
	for i := 0; i < 3; i++ {
		failLogin(t, env, "alice@example.com", "wrong")
	}
	for i := 0; i < 2; i++ {
		_, err := env.engine.Login(ctx, LoginParams{
			Email: "alice@example.com", Password: "S3gura!2024", OTPCode: "000000",
		})
		if !errors.Is(err, ErrMFAInvalid) {
			t.Fatalf("got %v, want mfa invalid", err)
		}
	}

	_, err := env.engine.Login(ctx, LoginParams{
		Email: "alice@example.com", Password: "S3gura!2024", OTPCode: "123456",
	})
	if !errors.Is(err, ErrAccountLocked) {
		t.Errorf("mixed failures should lock the account, got %v", err)
	}
}
