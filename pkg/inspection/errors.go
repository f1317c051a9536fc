package inspection

import "errors"

// Rejection reasons surfaced to callers. None are retried internally
// beyond the coordinator's bounded optimistic retry; external retry policy
// lives with the caller.
var (
	// ErrNotFound means the inspection (or item) does not exist.
	ErrNotFound = errors.New("inspection not found")

	// ErrAlreadySigned means the slot already carries a signature;
	// re-signing requires an explicit revoke first.
	ErrAlreadySigned = errors.New("approval slot already signed")

	// ErrNothingToRevoke means the slot carries no signature to clear.
	ErrNothingToRevoke = errors.New("approval slot not signed")

	// ErrForbidden means the caller holds neither the matching global role
	// nor the slot assignment.
	ErrForbidden = errors.New("not authorized for approval role")

	// ErrCancelled means the inspection was cancelled and no longer
	// accepts approval actions.
	ErrCancelled = errors.New("inspection is cancelled")

	// ErrConflict means concurrent writers kept invalidating the guarded
	// update beyond the retry budget.
	ErrConflict = errors.New("inspection was modified concurrently")
)
