// Package flow is the authentication orchestrator: it ties users,
// sessions, the hasher, the OTP provider, and the record stores together
// into the register / login / logout / MFA state machine.
//
// Every operation is request/response shaped with no internal
// parallelism: a sequence of store reads and writes under the caller's
// context. The engine adds no locking on top of the store contract, so
// two operations racing on the same record are last-writer-wins; see the
// store package documentation.
package flow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/keyfold/keyfold/audit"
	"github.com/keyfold/keyfold/identity"
	"github.com/keyfold/keyfold/permission"
	"github.com/keyfold/keyfold/rbac"
	"github.com/keyfold/keyfold/role"
	"github.com/keyfold/keyfold/store"
)

// Hasher is the password hashing collaborator.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	// NeedsRehash reports whether the stored hash predates current
	// policy and should be transparently upgraded on successful login.
	NeedsRehash(hash string) bool
}

// OTPProvider is the one-time-password collaborator.
type OTPProvider interface {
	GenerateSecret() (string, error)
	ProvisioningURI(accountLabel, issuer, secret string) string
	Verify(code, secret string) bool
}

// Config carries the engine's policy knobs. Zero values take the
// documented defaults.
type Config struct {
	SessionTTL        time.Duration // default 60m
	MaxFailedAttempts int           // default 5
	LockoutDuration   time.Duration // default 15m
	Issuer            string        // default "Keyfold"
}

func (c Config) withDefaults() Config {
	if c.SessionTTL <= 0 {
		c.SessionTTL = 60 * time.Minute
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = 5
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = 15 * time.Minute
	}
	if c.Issuer == "" {
		c.Issuer = "Keyfold"
	}
	return c
}

// Engine orchestrates the account and session lifecycle.
type Engine struct {
	cfg      Config
	users    store.Store[*identity.User]
	sessions store.Store[*identity.Session]
	roles    store.Store[role.Role]
	hasher   Hasher
	otp      OTPProvider
	sink     audit.Sink
	log      *zap.Logger
	now      func() time.Time
}

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithAuditSink wires the sink receiving semantic audit facts.
func WithAuditSink(s audit.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithLogger wires the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine assembles the orchestrator. roles may be nil when no custom
// role catalog is stored; evaluation then sees only the built-in presets.
func NewEngine(
	cfg Config,
	users store.Store[*identity.User],
	sessions store.Store[*identity.Session],
	roles store.Store[role.Role],
	hasher Hasher,
	otp OTPProvider,
	opts ...Option,
) *Engine {
	e := &Engine{
		cfg:      cfg.withDefaults(),
		users:    users,
		sessions: sessions,
		roles:    roles,
		hasher:   hasher,
		otp:      otp,
		sink:     audit.Discard{},
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// catalog loads the stored role catalog as a read-only snapshot for this
// operation. Evaluation never sees catalog mutation mid-call.
func (e *Engine) catalog(ctx context.Context) (role.Catalog, error) {
	if e.roles == nil {
		return role.Catalog{}, nil
	}
	all, err := e.roles.ListAll(ctx)
	if err != nil {
		return nil, storeErr(err, "list roles")
	}
	return role.NewCatalog(all), nil
}

// findByEmail scans users for the normalized email. Email uniqueness is
// a store-level constraint, so at most one record can match.
func (e *Engine) findByEmail(ctx context.Context, email string) (*identity.User, error) {
	all, err := e.users.ListAll(ctx)
	if err != nil {
		return nil, storeErr(err, "list users")
	}
	for _, u := range all {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fail(KindUserNotFound, "no account for %s", email)
}

func (e *Engine) getUser(ctx context.Context, id string) (*identity.User, error) {
	u, err := e.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fail(KindUserNotFound, "no user %s", id)
		}
		return nil, storeErr(err, "get user")
	}
	return u, nil
}

// publicUser builds the redacted view with effective permissions
// computed against the given catalog snapshot.
func (e *Engine) publicUser(u *identity.User, cat role.Catalog) identity.PublicUser {
	return u.Public(rbac.EffectivePermissions(u, cat))
}

// EffectivePermissions exposes the user's computed grant set.
func (e *Engine) EffectivePermissions(ctx context.Context, userID string) ([]permission.Permission, error) {
	u, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	cat, err := e.catalog(ctx)
	if err != nil {
		return nil, err
	}
	return rbac.EffectivePermissions(u, cat), nil
}

// User returns the redacted public view of an account.
func (e *Engine) User(ctx context.Context, userID string) (identity.PublicUser, error) {
	u, err := e.getUser(ctx, userID)
	if err != nil {
		return identity.PublicUser{}, err
	}
	cat, err := e.catalog(ctx)
	if err != nil {
		return identity.PublicUser{}, err
	}
	return e.publicUser(u, cat), nil
}

// Authorize asserts that the user's effective set covers every required
// permission, failing with a permission-denied error that carries the
// missing list.
func (e *Engine) Authorize(ctx context.Context, userID string, required ...permission.Permission) error {
	u, err := e.getUser(ctx, userID)
	if err != nil {
		return err
	}
	cat, err := e.catalog(ctx)
	if err != nil {
		return err
	}
	if err := rbac.RequireAll(u, cat, required...); err != nil {
		return failWrap(KindPermissionDenied, err, "%s", err.Error())
	}
	return nil
}

// emit sends an audit fact. Sinks are fire-and-forget: they cannot fail
// the operation that produced the fact.
func (e *Engine) emit(ctx context.Context, ev audit.Event) {
	e.sink.Emit(ctx, ev)
}

// recordFailure bumps the failed-attempt counter and locks the account
// when the threshold is reached. Shared by the password and MFA checks,
// so five failures of either kind (or mixed) trigger the same lock.
//
// Persistence is best effort: a store failure here is logged and the
// caller's original authentication error takes precedence.
func (e *Engine) recordFailure(ctx context.Context, u *identity.User, reason string) {
	now := e.now()
	u.FailedLoginAttempts++
	locked := false
	if u.FailedLoginAttempts >= e.cfg.MaxFailedAttempts {
		u.LockedUntil = now.Add(e.cfg.LockoutDuration).UnixMilli()
		locked = true
	}
	u.UpdatedAt = now

	if err := e.users.UpdateByID(ctx, u); err != nil {
		e.log.Warn("failed-attempt bump not persisted",
			zap.String("user_id", u.ID),
			zap.Error(err),
		)
		return
	}
	if locked {
		ev := audit.NewEvent(audit.ActionLockout, "user", audit.StatusFail)
		ev.TargetID = u.ID
		ev.Reason = reason
		e.emit(ctx, ev)
		e.log.Warn("account locked",
			zap.String("user_id", u.ID),
			zap.Int("failed_attempts", u.FailedLoginAttempts),
			zap.Time("locked_until", u.LockExpiry()),
		)
	}
}
