package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/crmsync/internal/core/linked"
	"github.com/example/crmsync/internal/ports/secondary"
)

// linkPageSize bounds how many linked rows one page holds in memory.
const linkPageSize = 500

// tables maps each linkable entity type to its table. The dispatch table
// is the only place that knows table names; adding a type means adding a
// row here and to the schema.
var tables = map[linked.EntityType]string{
	linked.Company:     "companies",
	linked.Opportunity: "opportunities",
	linked.Address:     "addresses",
	linked.Contact:     "contacts",
	linked.Appointment: "appointments",
	linked.Task:        "tasks",
	linked.Note:        "notes",
}

// LinkRepository implements secondary.LinkRepository with SQLite.
// It only ever reads and clears the remote_ref column of each table.
type LinkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a new SQLite link repository.
func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// ForEachLinked streams (id, remote_ref) for every linked row of the given
// type, paging by keyset on id.
func (r *LinkRepository) ForEachLinked(ctx context.Context, t linked.EntityType, fn func(secondary.LinkedRow) error) error {
	table, ok := tables[t]
	if !ok {
		return fmt.Errorf("no table mapped for entity type %s", t)
	}

	lastID := ""
	for {
		rows, err := r.db.QueryContext(ctx,
			"SELECT id, remote_ref FROM "+table+" WHERE remote_ref IS NOT NULL AND id > ? ORDER BY id LIMIT ?",
			lastID, linkPageSize)
		if err != nil {
			return fmt.Errorf("failed to query linked %s rows: %w", table, err)
		}

		var page []secondary.LinkedRow
		for rows.Next() {
			var row secondary.LinkedRow
			if err := rows.Scan(&row.ID, &row.RemoteRef); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan linked %s row: %w", table, err)
			}
			page = append(page, row)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("failed to iterate linked %s rows: %w", table, err)
		}
		rows.Close()

		for _, row := range page {
			if err := fn(row); err != nil {
				return err
			}
		}

		if len(page) < linkPageSize {
			return nil
		}
		lastID = page[len(page)-1].ID
	}
}

// ClearRemoteRefs nulls remote_ref on every linked row of the given type
// and returns the affected row count.
func (r *LinkRepository) ClearRemoteRefs(ctx context.Context, t linked.EntityType) (int64, error) {
	table, ok := tables[t]
	if !ok {
		return 0, fmt.Errorf("no table mapped for entity type %s", t)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE "+table+" SET remote_ref = NULL WHERE remote_ref IS NOT NULL")
	if err != nil {
		return 0, fmt.Errorf("failed to clear remote refs on %s: %w", table, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared %s rows: %w", table, err)
	}
	return affected, nil
}
