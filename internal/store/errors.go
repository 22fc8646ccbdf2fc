// Package store defines the sentinel errors shared by every
// persistence backend. Callers branch on these with errors.Is and never
// on backend-specific error types.
package store

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
)
