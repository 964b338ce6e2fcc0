package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/crmsync/internal/ports/secondary"
)

// sweepPageSize bounds how many rows a streaming sweep holds in memory.
const sweepPageSize = 200

// SyncErrorRepository implements secondary.SyncErrorRepository with SQLite.
type SyncErrorRepository struct {
	db *sql.DB
}

// NewSyncErrorRepository creates a new SQLite sync error repository.
func NewSyncErrorRepository(db *sql.DB) *SyncErrorRepository {
	return &SyncErrorRepository{db: db}
}

const syncErrorColumns = "id, entity_type, entity_id, strategy, message, message_hash, created_at, resolved_at, archived_at"

// Create persists a new sync error inside a transaction.
func (r *SyncErrorRepository) Create(ctx context.Context, rec *secondary.SyncErrorRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO sync_errors (id, entity_type, entity_id, strategy, message, message_hash) VALUES (?, ?, ?, ?, ?, ?)",
		rec.ID, rec.EntityType, rec.EntityID, rec.Strategy, rec.Message, rec.MessageHash,
	)
	if err != nil {
		return fmt.Errorf("failed to create sync error: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sync error create: %w", err)
	}
	return nil
}

// GetByID retrieves a sync error by id, or (nil, nil) when absent.
func (r *SyncErrorRepository) GetByID(ctx context.Context, id string) (*secondary.SyncErrorRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+syncErrorColumns+" FROM sync_errors WHERE id = ?", id)

	rec, err := scanSyncError(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync error %s: %w", id, err)
	}
	return rec, nil
}

// FindUnresolved returns the unresolved error for the dedup triple, oldest
// row when several exist, or (nil, nil) when none does.
func (r *SyncErrorRepository) FindUnresolved(ctx context.Context, entityType, entityID, strategy, messageHash string) (*secondary.SyncErrorRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+syncErrorColumns+" FROM sync_errors WHERE entity_type = ? AND entity_id = ? AND strategy = ? AND message_hash = ? AND resolved_at IS NULL ORDER BY created_at, id LIMIT 1",
		entityType, entityID, strategy, messageHash)

	rec, err := scanSyncError(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find unresolved sync error: %w", err)
	}
	return rec, nil
}

// List returns errors matching the filters, newest first.
func (r *SyncErrorRepository) List(ctx context.Context, filters secondary.SyncErrorFilters) ([]*secondary.SyncErrorRecord, error) {
	var conds []string
	var args []any

	if filters.EntityType != "" {
		conds = append(conds, "entity_type = ?")
		args = append(args, filters.EntityType)
	}
	if filters.EntityID != "" {
		conds = append(conds, "entity_id = ?")
		args = append(args, filters.EntityID)
	}
	if filters.Strategy != "" {
		conds = append(conds, "strategy = ?")
		args = append(args, filters.Strategy)
	}
	if filters.Unresolved {
		conds = append(conds, "resolved_at IS NULL")
	}
	if filters.Archived != nil {
		if *filters.Archived {
			conds = append(conds, "archived_at IS NOT NULL")
		} else {
			conds = append(conds, "archived_at IS NULL")
		}
	}

	query := "SELECT " + syncErrorColumns + " FROM sync_errors"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync errors: %w", err)
	}
	defer rows.Close()

	var recs []*secondary.SyncErrorRecord
	for rows.Next() {
		rec, err := scanSyncError(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync error: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync errors: %w", err)
	}
	return recs, nil
}

// ForEachUnresolved streams unresolved errors for (entity, strategy).
func (r *SyncErrorRepository) ForEachUnresolved(ctx context.Context, entityType, entityID, strategy string, fn func(*secondary.SyncErrorRecord) error) error {
	return r.sweep(ctx,
		"entity_type = ? AND entity_id = ? AND strategy = ? AND resolved_at IS NULL",
		[]any{entityType, entityID, strategy}, fn)
}

// ForEachNotArchived streams all errors with archived_at IS NULL.
func (r *SyncErrorRepository) ForEachNotArchived(ctx context.Context, fn func(*secondary.SyncErrorRecord) error) error {
	return r.sweep(ctx, "archived_at IS NULL", nil, fn)
}

// ForEachArchivedUnresolved streams archived errors still unresolved.
func (r *SyncErrorRepository) ForEachArchivedUnresolved(ctx context.Context, fn func(*secondary.SyncErrorRecord) error) error {
	return r.sweep(ctx, "archived_at IS NOT NULL AND resolved_at IS NULL", nil, fn)
}

// sweep pages through rows matching cond by keyset on id, fully reading
// each page before invoking the callbacks, so callbacks may write back to
// the table without racing an open cursor. Rows inserted mid-sweep behind
// the keyset are not revisited.
func (r *SyncErrorRepository) sweep(ctx context.Context, cond string, args []any, fn func(*secondary.SyncErrorRecord) error) error {
	lastID := ""
	for {
		query := "SELECT " + syncErrorColumns + " FROM sync_errors WHERE " + cond +
			" AND id > ? ORDER BY id LIMIT ?"
		pageArgs := append(append([]any{}, args...), lastID, sweepPageSize)

		rows, err := r.db.QueryContext(ctx, query, pageArgs...)
		if err != nil {
			return fmt.Errorf("failed to query sync error page: %w", err)
		}

		var page []*secondary.SyncErrorRecord
		for rows.Next() {
			rec, err := scanSyncError(rows.Scan)
			if err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan sync error: %w", err)
			}
			page = append(page, rec)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("failed to iterate sync errors: %w", err)
		}
		rows.Close()

		for _, rec := range page {
			if err := fn(rec); err != nil {
				return err
			}
		}

		if len(page) < sweepPageSize {
			return nil
		}
		lastID = page[len(page)-1].ID
	}
}

// MarkResolved sets resolved_at for the given error.
func (r *SyncErrorRepository) MarkResolved(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE sync_errors SET resolved_at = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to resolve sync error %s: %w", id, err)
	}
	return requireAffected(res, id)
}

// MarkArchived sets archived_at for the given error; nil clears it.
func (r *SyncErrorRepository) MarkArchived(ctx context.Context, id string, at *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE sync_errors SET archived_at = ? WHERE id = ?", nullableTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to archive sync error %s: %w", id, err)
	}
	return requireAffected(res, id)
}

// MarkArchivedBatch sets or clears archived_at for every id in ids.
func (r *SyncErrorRepository) MarkArchivedBatch(ctx context.Context, ids []string, at *time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := []any{nullableTime(at)}
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE sync_errors SET archived_at = ? WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("failed to batch archive sync errors: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("sync error %s not found", id)
	}
	return nil
}

func scanSyncError(scan func(...any) error) (*secondary.SyncErrorRecord, error) {
	var (
		createdAt              time.Time
		resolvedAt, archivedAt sql.NullTime
	)

	rec := &secondary.SyncErrorRecord{}
	err := scan(&rec.ID, &rec.EntityType, &rec.EntityID, &rec.Strategy,
		&rec.Message, &rec.MessageHash, &createdAt, &resolvedAt, &archivedAt)
	if err != nil {
		return nil, err
	}

	rec.CreatedAt = createdAt
	if resolvedAt.Valid {
		t := resolvedAt.Time
		rec.ResolvedAt = &t
	}
	if archivedAt.Valid {
		t := archivedAt.Time
		rec.ArchivedAt = &t
	}
	return rec, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
