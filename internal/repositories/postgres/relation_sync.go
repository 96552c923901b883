package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/asakaida/purosesu/internal/entities"
)

// relationTable describes one junction table: where links of one relation
// kind are stored and which columns hold the pair. Parameterizing the
// replace logic with this descriptor keeps a single code path for all four
// kinds.
type relationTable struct {
	kind       entities.RelationKind
	table      string
	ownerCol   string
	relatedCol string
	refTable   string
}

var relationTables = []relationTable{
	{kind: entities.KindDepartment, table: "department_process", ownerCol: "process_id", relatedCol: "department_id", refTable: "departments"},
	{kind: entities.KindLocation, table: "location_process", ownerCol: "process_id", relatedCol: "location_id", refTable: "locations"},
	{kind: entities.KindResource, table: "resource_process", ownerCol: "process_id", relatedCol: "resource_id", refTable: "resources"},
	{kind: entities.KindRole, table: "role_process", ownerCol: "process_id", relatedCol: "role_id", refTable: "roles"},
}

// relationTableFor returns the descriptor for one relation kind.
func relationTableFor(kind entities.RelationKind) (relationTable, error) {
	for _, rt := range relationTables {
		if rt.kind == kind {
			return rt, nil
		}
	}
	return relationTable{}, fmt.Errorf("unknown relation kind: %s", kind)
}

// replaceRelations makes the junction rows for (ownerID, rt.kind) exactly
// equal to ids: delete everything for the owner, then bulk-insert the
// deduplicated set. ON CONFLICT DO NOTHING makes a racing reinsert of an
// identical pair a no-op instead of an error. Must run inside the enclosing
// synchronization transaction.
func replaceRelations(ctx context.Context, tx *sql.Tx, rt relationTable, ownerID int64, ids []int64) error {
	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", rt.table, rt.ownerCol)
	if _, err := tx.ExecContext(ctx, deleteQuery, ownerID); err != nil {
		return fmt.Errorf("failed to clear %s relations: %w", rt.kind, classifyError(err))
	}

	ids = dedupIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	var values strings.Builder
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, ownerID)
	for i, id := range ids {
		if i > 0 {
			values.WriteString(", ")
		}
		fmt.Fprintf(&values, "($1, $%d)", i+2)
		args = append(args, id)
	}

	insertQuery := fmt.Sprintf(
		"INSERT INTO %s (%s, %s) VALUES %s ON CONFLICT (%s, %s) DO NOTHING",
		rt.table, rt.ownerCol, rt.relatedCol, values.String(), rt.relatedCol, rt.ownerCol,
	)
	if _, err := tx.ExecContext(ctx, insertQuery, args...); err != nil {
		return fmt.Errorf("failed to insert %s relations: %w", rt.kind, classifyError(err))
	}

	return nil
}

// loadRelations reads the related-entity summaries for one relation kind.
// When called inside the synchronization transaction it sees the rows just
// written, so responses never carry stale sets.
func loadRelations(ctx context.Context, q querier, rt relationTable, ownerID int64) ([]entities.Ref, error) {
	query := fmt.Sprintf(`
		SELECT r.id, r.title
		FROM %s j
		JOIN %s r ON r.id = j.%s
		WHERE j.%s = $1
		ORDER BY r.id
	`, rt.table, rt.refTable, rt.relatedCol, rt.ownerCol)

	rows, err := q.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s relations: %w", rt.kind, classifyError(err))
	}
	defer rows.Close()

	refs := []entities.Ref{}
	for rows.Next() {
		var ref entities.Ref
		if err := rows.Scan(&ref.ID, &ref.Title); err != nil {
			return nil, fmt.Errorf("failed to scan %s relation: %w", rt.kind, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s relations: %w", rt.kind, classifyError(err))
	}

	return refs, nil
}

// loadOwnerRefs reads the process summaries linked to one related entity,
// the reverse direction of loadRelations.
func loadOwnerRefs(ctx context.Context, q querier, rt relationTable, relatedID int64) ([]entities.Ref, error) {
	query := fmt.Sprintf(`
		SELECT p.id, p.title
		FROM %s j
		JOIN process p ON p.id = j.%s
		WHERE j.%s = $1
		ORDER BY p.id
	`, rt.table, rt.ownerCol, rt.relatedCol)

	rows, err := q.QueryContext(ctx, query, relatedID)
	if err != nil {
		return nil, fmt.Errorf("failed to read processes of %s %d: %w", rt.kind, relatedID, classifyError(err))
	}
	defer rows.Close()

	refs := []entities.Ref{}
	for rows.Next() {
		var ref entities.Ref
		if err := rows.Scan(&ref.ID, &ref.Title); err != nil {
			return nil, fmt.Errorf("failed to scan process of %s: %w", rt.kind, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate processes of %s: %w", rt.kind, classifyError(err))
	}

	return refs, nil
}

// dedupIDs collapses duplicate ids, preserving first-seen order.
func dedupIDs(ids []int64) []int64 {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
