// Package storage is the per-browser key/value state behind the storefront:
// one namespace for long-lived "local" state and one short-lived "session"
// namespace per visitor.
package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("storage: key not found")
	// ErrConflict means Update kept losing to concurrent writers.
	ErrConflict = errors.New("storage: too many concurrent updates")
)

// UpdateFunc computes the new value of a key from its current one. found is
// false for a missing key. It may run more than once and must not touch the
// storage itself.
type UpdateFunc func(current string, found bool) (string, error)

type Storage interface {
	// GetItem returns ErrNotFound for a missing key.
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	// Update is an atomic read-modify-write of one key. An error from fn
	// aborts the update and is returned as is.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// Factory hands out the two namespaces of a visitor session.
type Factory interface {
	Local(sessionID string) Storage
	Session(sessionID string) Storage
}
