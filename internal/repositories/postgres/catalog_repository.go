package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/asakaida/purosesu/internal/entities"
	"github.com/asakaida/purosesu/internal/repositories"
)

// PostgresCatalogRepository implements CatalogRepository for one of the
// four catalog tables. The tables share a schema, so the relation-kind
// descriptor picks the table and junction names.
type PostgresCatalogRepository struct {
	db       *sql.DB
	kind     entities.RelationKind
	table    string
	junction relationTable
}

// NewPostgresCatalogRepository creates a catalog repository for one
// relation kind.
func NewPostgresCatalogRepository(db *sql.DB, kind entities.RelationKind) (repositories.CatalogRepository, error) {
	rt, err := relationTableFor(kind)
	if err != nil {
		return nil, err
	}
	return &PostgresCatalogRepository{db: db, kind: kind, table: rt.refTable, junction: rt}, nil
}

// Create inserts a new catalog entry.
func (r *PostgresCatalogRepository) Create(ctx context.Context, input *entities.CatalogInput) (*entities.CatalogEntry, error) {
	if err := input.ValidateCreate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (title, created_by_id, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`, r.table)

	entry := &entities.CatalogEntry{Title: input.Title, CreatedByID: input.CreatedByID}
	err := r.db.QueryRowContext(ctx, query, input.Title, input.CreatedByID).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s: %w", r.kind, classifyError(err))
	}
	if err := r.loadAssociations(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetByID retrieves a catalog entry with its creator and linked process
// summaries loaded.
func (r *PostgresCatalogRepository) GetByID(ctx context.Context, id int64) (*entities.CatalogEntry, error) {
	query := fmt.Sprintf("SELECT id, title, created_by_id, created_at FROM %s WHERE id = $1", r.table)

	entry := &entities.CatalogEntry{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&entry.ID, &entry.Title, &entry.CreatedByID, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s %d: %w", r.kind, id, classifyError(err))
	}
	if err := r.loadAssociations(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List retrieves entries ordered by id.
func (r *PostgresCatalogRepository) List(ctx context.Context, offset, limit int) ([]*entities.CatalogEntry, error) {
	query := fmt.Sprintf(
		"SELECT id, title, created_by_id, created_at FROM %s ORDER BY id OFFSET $1 LIMIT $2", r.table,
	)
	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", r.kind, classifyError(err))
	}
	defer rows.Close()

	entries := []*entities.CatalogEntry{}
	for rows.Next() {
		entry := &entities.CatalogEntry{}
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.CreatedByID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.kind, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %ss: %w", r.kind, classifyError(err))
	}

	for _, entry := range entries {
		if err := r.loadAssociations(ctx, entry); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// Update changes the title of an existing entry.
func (r *PostgresCatalogRepository) Update(ctx context.Context, id int64, input *entities.CatalogInput) (*entities.CatalogEntry, error) {
	if err := input.ValidateUpdate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $2
		WHERE id = $1
		RETURNING id, title, created_by_id, created_at
	`, r.table)

	entry := &entities.CatalogEntry{}
	err := r.db.QueryRowContext(ctx, query, id, input.Title).Scan(
		&entry.ID, &entry.Title, &entry.CreatedByID, &entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update %s %d: %w", r.kind, id, classifyError(err))
	}
	if err := r.loadAssociations(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// loadAssociations reads the creator and the linked process summaries for
// one entry. The reverse junction query mirrors the one a process read
// uses for its relation sets.
func (r *PostgresCatalogRepository) loadAssociations(ctx context.Context, entry *entities.CatalogEntry) error {
	user := &entities.User{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, created_at FROM users WHERE id = $1", entry.CreatedByID,
	).Scan(&user.ID, &user.Title, &user.CreatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to load creator of %s %d: %w", r.kind, entry.ID, classifyError(err))
	}
	if err == nil {
		entry.CreatedBy = user
	}

	refs, err := loadOwnerRefs(ctx, r.db, r.junction, entry.ID)
	if err != nil {
		return err
	}
	entry.Processes = refs
	return nil
}

// Delete removes an entry and its junction rows in one transaction, so a
// concurrent reader never sees a dangling link.
func (r *PostgresCatalogRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classifyError(err))
	}
	defer tx.Rollback()

	junctionDelete := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", r.junction.table, r.junction.relatedCol)
	if _, err := tx.ExecContext(ctx, junctionDelete, id); err != nil {
		return fmt.Errorf("failed to clear %s relations: %w", r.kind, classifyError(err))
	}

	result, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", r.kind, id, classifyError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return repositories.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classifyError(err))
	}
	return nil
}
