// Package store defines the record persistence contract consumed by the
// engine, one store instance per entity kind.
//
// The contract is deliberately small: list, point lookup, append, and
// full-snapshot update. Implementations follow a read-all / mutate-one /
// write-all discipline with no cross-operation locking: concurrent
// updates to different records are safe, but two updates racing on the
// same record are last-writer-wins — the later snapshot overwrites the
// earlier one. That limitation is part of the contract and must not be
// masked by implementations.
//
// Operations either complete or fail; no retry or timeout semantics are
// defined here. Callers needing timeouts wrap the context themselves.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by GetByID and UpdateByID when no record
	// with the given id exists.
	ErrNotFound = errors.New("store: record not found")

	// ErrDuplicate is returned by Append when the record id or a
	// configured unique key is already taken.
	ErrDuplicate = errors.New("store: duplicate record")
)

// Record is anything persistable under a stable string id.
type Record interface {
	RecordID() string
}

// Store is the persistence contract for one entity kind.
type Store[T Record] interface {
	// ListAll returns every record in insertion order.
	ListAll(ctx context.Context) ([]T, error)

	// GetByID returns the record with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id string) (T, error)

	// Append persists a new record. Fails with ErrDuplicate when the id
	// or the store's unique key is already present.
	Append(ctx context.Context, rec T) error

	// UpdateByID replaces the stored record whose id matches rec with
	// the full snapshot rec. Fails with ErrNotFound when absent.
	UpdateByID(ctx context.Context, rec T) error
}

// UniqueKey extracts an alternate uniqueness key from a record (for
// example a user's normalized email). Return "" to skip the check.
type UniqueKey[T Record] func(rec T) string
