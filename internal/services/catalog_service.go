package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/asakaida/purosesu/internal/entities"
	"github.com/asakaida/purosesu/internal/repositories"
)

// CatalogService coordinates CRUD for one catalog entity (department,
// location, resource or role).
type CatalogService struct {
	kind entities.RelationKind
	repo repositories.CatalogRepository
	log  *logrus.Logger
}

// NewCatalogService creates a CatalogService for one relation kind.
func NewCatalogService(kind entities.RelationKind, repo repositories.CatalogRepository, log *logrus.Logger) *CatalogService {
	return &CatalogService{kind: kind, repo: repo, log: log}
}

// Kind returns the relation kind this service manages.
func (s *CatalogService) Kind() entities.RelationKind {
	return s.kind
}

// Create creates a new catalog entry.
func (s *CatalogService) Create(ctx context.Context, input *entities.CatalogInput) (*entities.CatalogEntry, error) {
	entry, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"event":      fmt.Sprintf("%s_created", s.kind),
		"id":         entry.ID,
		"title":      entry.Title,
		"created_by": entry.CreatedByID,
	}).Info("catalog entry created")

	return entry, nil
}

// GetByID retrieves a catalog entry.
func (s *CatalogService) GetByID(ctx context.Context, id int64) (*entities.CatalogEntry, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves catalog entries with pagination.
func (s *CatalogService) List(ctx context.Context, offset, limit int) ([]*entities.CatalogEntry, error) {
	return s.repo.List(ctx, offset, limit)
}

// Update changes the title of an existing entry.
func (s *CatalogService) Update(ctx context.Context, id int64, input *entities.CatalogInput) (*entities.CatalogEntry, error) {
	entry, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"event": fmt.Sprintf("%s_updated", s.kind),
		"id":    id,
		"title": entry.Title,
	}).Info("catalog entry updated")

	return entry, nil
}

// Delete removes an entry together with its process links.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"event": fmt.Sprintf("%s_deleted", s.kind),
		"id":    id,
	}).Info("catalog entry deleted")

	return nil
}
