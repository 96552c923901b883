package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/asakaida/purosesu/internal/entities"
	"github.com/asakaida/purosesu/internal/repositories"
)

// UserService coordinates user CRUD.
type UserService struct {
	repo repositories.UserRepository
	log  *logrus.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo repositories.UserRepository, log *logrus.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

// Create creates a new user.
func (s *UserService) Create(ctx context.Context, input *entities.UserInput) (*entities.User, error) {
	user, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"event":   "user_created",
		"user_id": user.ID,
		"title":   user.Title,
	}).Info("user created")

	return user, nil
}

// GetByID retrieves a user.
func (s *UserService) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves users with pagination.
func (s *UserService) List(ctx context.Context, offset, limit int) ([]*entities.User, error) {
	return s.repo.List(ctx, offset, limit)
}

// Update changes the title of an existing user.
func (s *UserService) Update(ctx context.Context, id int64, input *entities.UserInput) (*entities.User, error) {
	user, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"event":   "user_updated",
		"user_id": user.ID,
		"title":   user.Title,
	}).Info("user updated")

	return user, nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"event":   "user_deleted",
		"user_id": id,
	}).Info("user deleted")

	return nil
}
