package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"github.com/asakaida/purosesu/internal/repositories"
)

// PostgreSQL error codes that the retry policy cares about.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
	pqForeignKeyViolation  = "23503"
)

// classifyError maps driver-level errors onto the repository error
// taxonomy. Unrecognized errors pass through unchanged; call sites add
// operation context on top.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqSerializationFailure:
			return &repositories.TransientConflictError{Reason: repositories.ConflictSerialization, Err: err}
		case pqDeadlockDetected:
			return &repositories.TransientConflictError{Reason: repositories.ConflictDeadlock, Err: err}
		case pqLockNotAvailable:
			return &repositories.TransientConflictError{Reason: repositories.ConflictLockTimeout, Err: err}
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", repositories.ErrReferentialIntegrity, pqErr.Message)
		}
		// Class 08: connection exceptions
		if pqErr.Code.Class() == "08" {
			return fmt.Errorf("%w: %v", repositories.ErrStorageUnavailable, err)
		}
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return repositories.ErrNotFound
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", repositories.ErrStorageUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", repositories.ErrStorageUnavailable, err)
	}

	return err
}

// classifyAcquireError maps a failed pool acquisition. A deadline hit while
// the caller's own context is still alive means the wait timed out on a
// saturated pool, which the retry policy treats as transient.
func classifyAcquireError(err error, callerCtx context.Context) error {
	if errors.Is(err, context.DeadlineExceeded) && callerCtx.Err() == nil {
		return &repositories.TransientConflictError{Reason: repositories.ConflictPoolExhausted, Err: err}
	}
	return classifyError(err)
}
