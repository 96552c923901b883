package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/asakaida/purosesu/internal/entities"
	"github.com/asakaida/purosesu/internal/repositories"
)

// ProcessService coordinates process operations and emits business events.
// It does not loop-retry failed operations itself: transient conflicts are
// classified and passed through so the boundary layer can decide, since
// only the boundary knows whether a response was already sent.
type ProcessService struct {
	repo repositories.ProcessRepository
	log  *logrus.Logger
}

// NewProcessService creates a new ProcessService.
func NewProcessService(repo repositories.ProcessRepository, log *logrus.Logger) *ProcessService {
	return &ProcessService{repo: repo, log: log}
}

// Create creates a new process together with its relation sets.
func (s *ProcessService) Create(ctx context.Context, input *entities.ProcessInput) (*entities.Process, error) {
	proc, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"event":          "process_created",
		"process_id":     proc.ID,
		"title":          proc.Title,
		"created_by":     proc.CreatedByID,
		"department_ids": input.DepartmentIDs,
		"location_ids":   input.LocationIDs,
		"resource_ids":   input.ResourceIDs,
		"role_ids":       input.RoleIDs,
	}).Info("process created")

	return proc, nil
}

// Replace updates a process and replaces all four relation sets.
func (s *ProcessService) Replace(ctx context.Context, id int64, input *entities.ProcessInput) (*entities.Process, error) {
	proc, err := s.repo.Replace(ctx, id, input)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"event":          "process_updated",
		"process_id":     id,
		"title":          proc.Title,
		"department_ids": input.DepartmentIDs,
		"location_ids":   input.LocationIDs,
		"resource_ids":   input.ResourceIDs,
		"role_ids":       input.RoleIDs,
	}).Info("process updated")

	return proc, nil
}

// GetByID retrieves a single process with all relation sets loaded.
func (s *ProcessService) GetByID(ctx context.Context, id int64) (*entities.Process, error) {
	proc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"event":      "process_retrieved",
		"process_id": id,
	}).Debug("process retrieved")

	return proc, nil
}

// List retrieves processes with pagination.
func (s *ProcessService) List(ctx context.Context, offset, limit int) ([]*entities.Process, error) {
	processes, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"event":  "processes_retrieved",
		"count":  len(processes),
		"offset": offset,
		"limit":  limit,
	}).Debug("processes retrieved")

	return processes, nil
}

// Delete removes a process and clears all of its relation sets.
func (s *ProcessService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"event":      "process_deleted",
		"process_id": id,
	}).Info("process deleted")

	return nil
}
