package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/asakaida/purosesu/internal/repositories"
)

func TestClassifyError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		if got := classifyError(nil); got != nil {
			t.Errorf("classifyError(nil) = %v", got)
		}
	})

	conflictCases := []struct {
		name   string
		code   string
		reason repositories.ConflictReason
	}{
		{"serialization failure", pqSerializationFailure, repositories.ConflictSerialization},
		{"deadlock detected", pqDeadlockDetected, repositories.ConflictDeadlock},
		{"lock not available", pqLockNotAvailable, repositories.ConflictLockTimeout},
	}
	for _, tt := range conflictCases {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError(&pq.Error{Code: pq.ErrorCode(tt.code)})
			var tc *repositories.TransientConflictError
			if !errors.As(err, &tc) {
				t.Fatalf("expected TransientConflictError, got %v", err)
			}
			if tc.Reason != tt.reason {
				t.Errorf("reason = %s, want %s", tc.Reason, tt.reason)
			}
		})
	}

	t.Run("foreign key violation", func(t *testing.T) {
		err := classifyError(&pq.Error{Code: pq.ErrorCode(pqForeignKeyViolation), Message: "fk"})
		if !errors.Is(err, repositories.ErrReferentialIntegrity) {
			t.Errorf("expected ErrReferentialIntegrity, got %v", err)
		}
	})

	t.Run("connection exception class 08", func(t *testing.T) {
		err := classifyError(&pq.Error{Code: pq.ErrorCode("08006")})
		if !errors.Is(err, repositories.ErrStorageUnavailable) {
			t.Errorf("expected ErrStorageUnavailable, got %v", err)
		}
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		if err := classifyError(sql.ErrNoRows); !errors.Is(err, repositories.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("bad connection maps to storage unavailable", func(t *testing.T) {
		if err := classifyError(driver.ErrBadConn); !errors.Is(err, repositories.ErrStorageUnavailable) {
			t.Errorf("expected ErrStorageUnavailable, got %v", err)
		}
	})

	t.Run("unknown errors pass through", func(t *testing.T) {
		cause := fmt.Errorf("boom")
		if got := classifyError(cause); got != cause {
			t.Errorf("classifyError() = %v, want passthrough", got)
		}
	})
}

func TestClassifyAcquireError(t *testing.T) {
	t.Run("deadline with live caller is pool exhaustion", func(t *testing.T) {
		err := classifyAcquireError(context.DeadlineExceeded, context.Background())
		var tc *repositories.TransientConflictError
		if !errors.As(err, &tc) {
			t.Fatalf("expected TransientConflictError, got %v", err)
		}
		if tc.Reason != repositories.ConflictPoolExhausted {
			t.Errorf("reason = %s, want %s", tc.Reason, repositories.ConflictPoolExhausted)
		}
	})

	t.Run("deadline from the caller itself is not a conflict", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := classifyAcquireError(context.DeadlineExceeded, ctx)
		if repositories.IsTransientConflict(err) {
			t.Errorf("expected passthrough for canceled caller, got %v", err)
		}
	})
}
