package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/asakaida/purosesu/internal/entities"
	"github.com/asakaida/purosesu/internal/repositories"
)

// PostgresUserRepository implements UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	db *sql.DB
}

// NewPostgresUserRepository creates a new PostgreSQL user repository.
func NewPostgresUserRepository(db *sql.DB) repositories.UserRepository {
	return &PostgresUserRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresUserRepository) Create(ctx context.Context, input *entities.UserInput) (*entities.User, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user := &entities.User{Title: input.Title}
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (title, created_at) VALUES ($1, NOW()) RETURNING id, created_at",
		input.Title,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", classifyError(err))
	}
	return user, nil
}

// GetByID retrieves a user.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	user := &entities.User{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, created_at FROM users WHERE id = $1", id,
	).Scan(&user.ID, &user.Title, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, classifyError(err))
	}
	return user, nil
}

// List retrieves users ordered by id.
func (r *PostgresUserRepository) List(ctx context.Context, offset, limit int) ([]*entities.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, created_at FROM users ORDER BY id OFFSET $1 LIMIT $2", offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", classifyError(err))
	}
	defer rows.Close()

	users := []*entities.User{}
	for rows.Next() {
		user := &entities.User{}
		if err := rows.Scan(&user.ID, &user.Title, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", classifyError(err))
	}
	return users, nil
}

// Update changes the title of an existing user.
func (r *PostgresUserRepository) Update(ctx context.Context, id int64, input *entities.UserInput) (*entities.User, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user := &entities.User{}
	err := r.db.QueryRowContext(ctx,
		"UPDATE users SET title = $2 WHERE id = $1 RETURNING id, title, created_at",
		id, input.Title,
	).Scan(&user.ID, &user.Title, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user %d: %w", id, classifyError(err))
	}
	return user, nil
}

// Delete removes a user. A user still referenced as a creator fails with
// ErrReferentialIntegrity via the foreign-key constraint.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, classifyError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
