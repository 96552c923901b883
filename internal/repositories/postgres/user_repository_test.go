package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/asakaida/purosesu/internal/entities"
	"github.com/asakaida/purosesu/internal/repositories"
)

func newMockUserRepo(t *testing.T) (repositories.UserRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewPostgresUserRepository(db), mock
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("rewrites the title and returns the updated row", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)

		mock.ExpectQuery("UPDATE users SET title").
			WithArgs(int64(5), "carol").
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "created_at"}).
				AddRow(5, "carol", time.Now()))

		user, err := repo.Update(ctx, 5, &entities.UserInput{Title: "carol"})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if user.ID != 5 || user.Title != "carol" {
			t.Errorf("unexpected user: %+v", user)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("unknown id yields ErrNotFound", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)

		mock.ExpectQuery("UPDATE users SET title").
			WithArgs(int64(99), "ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Update(ctx, 99, &entities.UserInput{Title: "ghost"})
		if !errors.Is(err, repositories.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("empty title fails validation before touching the database", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)

		_, err := repo.Update(ctx, 1, &entities.UserInput{Title: ""})
		var ve *entities.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}
