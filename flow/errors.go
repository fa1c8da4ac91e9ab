package flow

import "fmt"

// Kind discriminates engine failures so callers can branch on the class
// of error without parsing messages.
type Kind string

const (
	KindInvalidEmail       Kind = "invalid_email"
	KindWeakPassword       Kind = "weak_password"
	KindEmailTaken         Kind = "email_taken"
	KindUserNotFound       Kind = "user_not_found"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindAccountLocked      Kind = "account_locked"
	KindMFARequired        Kind = "mfa_required"
	KindMFAInvalid         Kind = "mfa_invalid"
	KindSessionNotFound    Kind = "session_not_found"
	KindSessionInactive    Kind = "session_inactive"
	KindMFANotEnabled      Kind = "mfa_not_enabled"
	KindPermissionDenied   Kind = "permission_denied"
	KindStore              Kind = "store_failure"
)

// Error is the typed failure every engine operation returns. Two errors
// match under errors.Is when their kinds match, so the sentinel values
// below serve as comparison targets regardless of message detail.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinel comparison targets, one per kind.
var (
	ErrInvalidEmail       = &Error{Kind: KindInvalidEmail}
	ErrWeakPassword       = &Error{Kind: KindWeakPassword}
	ErrEmailTaken         = &Error{Kind: KindEmailTaken}
	ErrUserNotFound       = &Error{Kind: KindUserNotFound}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrAccountLocked      = &Error{Kind: KindAccountLocked}
	ErrMFARequired        = &Error{Kind: KindMFARequired}
	ErrMFAInvalid         = &Error{Kind: KindMFAInvalid}
	ErrSessionNotFound    = &Error{Kind: KindSessionNotFound}
	ErrSessionInactive    = &Error{Kind: KindSessionInactive}
	ErrMFANotEnabled      = &Error{Kind: KindMFANotEnabled}
	ErrPermissionDenied   = &Error{Kind: KindPermissionDenied}
)

func fail(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func failWrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// storeErr wraps backing store failures. They are fatal for the current
// operation and never retried internally.
func storeErr(err error, op string) *Error {
	return &Error{Kind: KindStore, Message: op, Err: err}
}
