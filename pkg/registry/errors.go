package registry

import "errors"

// Rejection reasons surfaced to callers. None of these are retried
// internally; retry policy belongs to the caller.
var (
	// ErrNotFound means no live snapshot exists for the logical key.
	ErrNotFound = errors.New("asset not found")

	// ErrAlreadyExists means an initial snapshot was already registered
	// for the logical key.
	ErrAlreadyExists = errors.New("asset already exists")

	// ErrVersionConflict means the caller's expected version is stale;
	// another writer created a newer snapshot first.
	ErrVersionConflict = errors.New("asset version conflict")
)
