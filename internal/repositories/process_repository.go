package repositories

import (
	"context"

	"github.com/asakaida/purosesu/internal/entities"
)

// ProcessRepository defines the interface for process data access.
//
// Create and Replace are the two synchronization operations: each writes
// the scalar columns and all four relation sets as one atomic unit. After
// either returns successfully, each relation set equals exactly the
// deduplicated id list supplied in the input. Replace semantics, never a
// merge with prior state.
type ProcessRepository interface {
	// Create inserts a new process row together with its relation sets.
	// Nothing persists if any step fails.
	Create(ctx context.Context, input *entities.ProcessInput) (*entities.Process, error)

	// Replace updates the scalar columns and replaces all four relation
	// sets of an existing process. Concurrent Replace calls on the same id
	// are totally ordered; the prior state is untouched on failure.
	// Returns ErrNotFound if the id does not exist.
	Replace(ctx context.Context, id int64, input *entities.ProcessInput) (*entities.Process, error)

	// GetByID retrieves a process with its creator and relation sets loaded.
	GetByID(ctx context.Context, id int64) (*entities.Process, error)

	// List retrieves processes ordered by id with offset/limit pagination.
	List(ctx context.Context, offset, limit int) ([]*entities.Process, error)

	// Delete removes a process and all of its junction rows in one
	// transaction. Returns ErrNotFound if the id does not exist.
	Delete(ctx context.Context, id int64) error
}
