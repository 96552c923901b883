package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/asakaida/purosesu/internal/entities"
	"github.com/asakaida/purosesu/internal/repositories"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so relation reads can
// run inside or outside the synchronization transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresProcessRepository implements ProcessRepository using PostgreSQL.
//
// Create and Replace run under READ COMMITTED with an explicit FOR UPDATE
// lock on the process row (Replace only). The row lock totally orders
// concurrent replacements of the same process while leaving distinct
// processes fully parallel; SERIALIZABLE would give the same guarantee but
// turns every concurrent pair into a retry.
type PostgresProcessRepository struct {
	db             *sql.DB
	acquireTimeout time.Duration
}

// NewPostgresProcessRepository creates a new PostgreSQL process repository.
// acquireTimeout bounds the wait for a pool connection before an operation
// fails as pool-exhausted.
func NewPostgresProcessRepository(db *sql.DB, acquireTimeout time.Duration) repositories.ProcessRepository {
	return &PostgresProcessRepository{db: db, acquireTimeout: acquireTimeout}
}

// acquireConn reserves a pool connection for a write transaction. The
// deadline applies to the acquisition only, not to the statements that
// follow.
func (r *PostgresProcessRepository) acquireConn(ctx context.Context) (*sql.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	conn, err := r.db.Conn(acquireCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", classifyAcquireError(err, ctx))
	}
	return conn, nil
}

// Create inserts the process row and its four relation sets in one
// transaction. If any step fails, no process row and no junction rows
// persist.
func (r *PostgresProcessRepository) Create(ctx context.Context, input *entities.ProcessInput) (*entities.Process, error) {
	if err := input.ValidateCreate(); err != nil {
		return nil, err
	}

	conn, err := r.acquireConn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", classifyError(err))
	}
	defer tx.Rollback()

	proc, err := insertProcess(ctx, tx, input)
	if err != nil {
		return nil, err
	}

	// Always issue the replace for uniformity; with no prior rows the
	// delete is a no-op and an empty set inserts nothing.
	for _, rt := range relationTables {
		if err := replaceRelations(ctx, tx, rt, proc.ID, input.RelationIDs(rt.kind)); err != nil {
			return nil, err
		}
	}

	if err := r.loadProcessAssociations(ctx, tx, proc); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", classifyError(err))
	}

	return proc, nil
}

// Replace updates the scalar columns and replaces all four relation sets of
// an existing process as one atomic unit. The row lock acquired up front
// serializes concurrent Replace calls on the same id: the second to acquire
// it observes the complete result of the first, and the final relation sets
// always equal exactly one caller's input.
func (r *PostgresProcessRepository) Replace(ctx context.Context, id int64, input *entities.ProcessInput) (*entities.Process, error) {
	if err := input.ValidateReplace(); err != nil {
		return nil, err
	}

	conn, err := r.acquireConn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", classifyError(err))
	}
	defer tx.Rollback()

	var locked int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM process WHERE id = $1 FOR UPDATE", id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock process %d: %w", id, classifyError(err))
	}

	proc, err := updateProcessScalars(ctx, tx, id, input)
	if err != nil {
		return nil, err
	}

	for _, rt := range relationTables {
		if err := replaceRelations(ctx, tx, rt, id, input.RelationIDs(rt.kind)); err != nil {
			return nil, err
		}
	}

	if err := r.loadProcessAssociations(ctx, tx, proc); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", classifyError(err))
	}

	return proc, nil
}

// GetByID retrieves a process with its creator and relation sets loaded.
func (r *PostgresProcessRepository) GetByID(ctx context.Context, id int64) (*entities.Process, error) {
	query := `
		SELECT id, title, COALESCE(description, ''), created_by_id, created_at
		FROM process
		WHERE id = $1
	`
	proc := &entities.Process{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&proc.ID, &proc.Title, &proc.Description, &proc.CreatedByID, &proc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get process %d: %w", id, classifyError(err))
	}

	if err := r.loadProcessAssociations(ctx, r.db, proc); err != nil {
		return nil, err
	}

	return proc, nil
}

// List retrieves processes ordered by id with their associations loaded.
func (r *PostgresProcessRepository) List(ctx context.Context, offset, limit int) ([]*entities.Process, error) {
	query := `
		SELECT id, title, COALESCE(description, ''), created_by_id, created_at
		FROM process
		ORDER BY id
		OFFSET $1 LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", classifyError(err))
	}
	defer rows.Close()

	processes := []*entities.Process{}
	for rows.Next() {
		proc := &entities.Process{}
		if err := rows.Scan(&proc.ID, &proc.Title, &proc.Description, &proc.CreatedByID, &proc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan process: %w", err)
		}
		processes = append(processes, proc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate processes: %w", classifyError(err))
	}

	for _, proc := range processes {
		if err := r.loadProcessAssociations(ctx, r.db, proc); err != nil {
			return nil, err
		}
	}

	return processes, nil
}

// Delete removes the process and its junction rows in one transaction.
func (r *PostgresProcessRepository) Delete(ctx context.Context, id int64) error {
	conn, err := r.acquireConn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classifyError(err))
	}
	defer tx.Rollback()

	for _, rt := range relationTables {
		query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", rt.table, rt.ownerCol)
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("failed to clear %s relations: %w", rt.kind, classifyError(err))
		}
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM process WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete process %d: %w", id, classifyError(err))
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

// insertProcess writes the scalar columns and returns the server-assigned
// id and created_at.
func insertProcess(ctx context.Context, tx *sql.Tx, input *entities.ProcessInput) (*entities.Process, error) {
	query := `
		INSERT INTO process (title, description, created_by_id, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	proc := &entities.Process{
		Title:       input.Title,
		Description: input.Description,
		CreatedByID: input.CreatedByID,
	}
	err := tx.QueryRowContext(ctx, query, input.Title, nullString(input.Description), input.CreatedByID).
		Scan(&proc.ID, &proc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert process: %w", classifyError(err))
	}
	return proc, nil
}

// updateProcessScalars replaces title and description only; created_by_id
// and created_at are immutable after creation.
func updateProcessScalars(ctx context.Context, tx *sql.Tx, id int64, input *entities.ProcessInput) (*entities.Process, error) {
	query := `
		UPDATE process
		SET title = $2, description = $3
		WHERE id = $1
		RETURNING id, title, COALESCE(description, ''), created_by_id, created_at
	`
	proc := &entities.Process{}
	err := tx.QueryRowContext(ctx, query, id, input.Title, nullString(input.Description)).Scan(
		&proc.ID, &proc.Title, &proc.Description, &proc.CreatedByID, &proc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update process %d: %w", id, classifyError(err))
	}
	return proc, nil
}

// loadProcessAssociations fills in the creator and the four relation-set
// summaries.
func (r *PostgresProcessRepository) loadProcessAssociations(ctx context.Context, q querier, proc *entities.Process) error {
	user := &entities.User{}
	err := q.QueryRowContext(ctx,
		"SELECT id, title, created_at FROM users WHERE id = $1", proc.CreatedByID,
	).Scan(&user.ID, &user.Title, &user.CreatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to load creator of process %d: %w", proc.ID, classifyError(err))
	}
	if err == nil {
		proc.CreatedBy = user
	}

	for _, rt := range relationTables {
		refs, err := loadRelations(ctx, q, rt, proc.ID)
		if err != nil {
			return err
		}
		proc.SetRelations(rt.kind, refs)
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
