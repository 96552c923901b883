package repositories

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the target row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrReferentialIntegrity is returned when a supplied related-entity id
	// does not reference an existing row. The whole transaction is rolled
	// back before this is returned.
	ErrReferentialIntegrity = errors.New("referential integrity violation")

	// ErrStorageUnavailable is returned when the store cannot be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ConflictReason says why an operation was classified as a transient conflict.
type ConflictReason string

const (
	ConflictSerialization ConflictReason = "serialization_failure"
	ConflictDeadlock      ConflictReason = "deadlock_detected"
	ConflictLockTimeout   ConflictReason = "lock_timeout"
	ConflictPoolExhausted ConflictReason = "pool_exhausted"
)

// TransientConflictError wraps a failure caused by concurrent transactions
// on the same owner row, or by connection-pool saturation. The operation is
// idempotent at the owner-id granularity, so retrying it from scratch with
// the same input is safe.
type TransientConflictError struct {
	Reason ConflictReason
	Err    error
}

func (e *TransientConflictError) Error() string {
	return fmt.Sprintf("transient conflict (%s): %v", e.Reason, e.Err)
}

func (e *TransientConflictError) Unwrap() error {
	return e.Err
}

// IsTransientConflict reports whether err is classified as retryable.
func IsTransientConflict(err error) bool {
	var tc *TransientConflictError
	return errors.As(err, &tc)
}
