package services

import (
	"errors"
	"time"

	"github.com/asakaida/purosesu/internal/repositories"
)

// Class partitions failures by whether retrying the whole operation can
// help. The synchronization operations are idempotent per owner id, so a
// transient failure can always be re-issued from scratch with the same
// input.
type Class int

const (
	// ClassPermanent covers validation errors, not-found and referential
	// integrity violations. Retrying cannot succeed until the caller fixes
	// the input.
	ClassPermanent Class = iota

	// ClassTransient covers serialization failures, deadlocks, lock
	// timeouts and pool exhaustion caused by concurrent operations.
	ClassTransient

	// ClassUnavailable covers connectivity failures to the store.
	ClassUnavailable
)

// RetryPolicy is advisory: services classify failures, the boundary layer
// runs the loop. Retrying after a response has already been written is the
// boundary's problem, not the transaction's.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
}

// DefaultRetryPolicy returns the recommended bounded-retry settings.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 50 * time.Millisecond,
	}
}

// Classify maps an operation failure onto a retry class.
func (p RetryPolicy) Classify(err error) Class {
	if err == nil {
		return ClassPermanent
	}
	if repositories.IsTransientConflict(err) {
		return ClassTransient
	}
	if errors.Is(err, repositories.ErrStorageUnavailable) {
		return ClassUnavailable
	}
	return ClassPermanent
}

// Retryable reports whether a failure of the given class should be
// re-attempted.
func (p RetryPolicy) Retryable(class Class) bool {
	return class == ClassTransient || class == ClassUnavailable
}

// Backoff returns the wait before the retry that follows the given
// 1-based attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}
