package repositories

import (
	"context"

	"github.com/asakaida/purosesu/internal/entities"
)

// CatalogRepository defines the interface for one of the four catalog
// entities (department, location, resource, role). The four tables share a
// schema, so a single implementation is instantiated per relation kind.
type CatalogRepository interface {
	// Create inserts a new catalog entry.
	Create(ctx context.Context, input *entities.CatalogInput) (*entities.CatalogEntry, error)

	// GetByID retrieves a catalog entry. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (*entities.CatalogEntry, error)

	// List retrieves entries ordered by id with offset/limit pagination.
	List(ctx context.Context, offset, limit int) ([]*entities.CatalogEntry, error)

	// Update changes the title of an existing entry.
	Update(ctx context.Context, id int64, input *entities.CatalogInput) (*entities.CatalogEntry, error)

	// Delete removes an entry together with its junction rows.
	Delete(ctx context.Context, id int64) error
}
