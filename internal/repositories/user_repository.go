package repositories

import (
	"context"

	"github.com/asakaida/purosesu/internal/entities"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, input *entities.UserInput) (*entities.User, error)

	// GetByID retrieves a user. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// List retrieves users ordered by id with offset/limit pagination.
	List(ctx context.Context, offset, limit int) ([]*entities.User, error)

	// Update changes the title of an existing user. Returns ErrNotFound
	// if the id does not exist.
	Update(ctx context.Context, id int64, input *entities.UserInput) (*entities.User, error)

	// Delete removes a user. Returns ErrReferentialIntegrity if the user
	// is still referenced as a creator.
	Delete(ctx context.Context, id int64) error
}
