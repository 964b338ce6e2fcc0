package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/crmsync/internal/db"
	"github.com/example/crmsync/internal/ports/secondary"
)

// setupTestDB opens a throwaway database loaded with the authoritative
// schema. The file lives in the test's temp dir and is cleaned up with it.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if _, err := conn.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to load schema: %v", err)
	}
	return conn
}

func seedUser(t *testing.T, repo *UserRepository, user *secondary.UserRecord) {
	t.Helper()
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %s: %v", user.ID, err)
	}
}

func seedSyncError(t *testing.T, repo *SyncErrorRepository, rec *secondary.SyncErrorRecord) {
	t.Helper()
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("failed to seed sync error %s: %v", rec.ID, err)
	}
}

// seedLinkedRow inserts one row into a linkable table. An empty remoteRef
// stores NULL, an unlinked row.
func seedLinkedRow(t *testing.T, conn *sql.DB, table, id, name, remoteRef string) {
	t.Helper()
	var ref any
	if remoteRef != "" {
		ref = remoteRef
	}
	if _, err := conn.Exec(
		"INSERT INTO "+table+" (id, name, remote_ref) VALUES (?, ?, ?)", id, name, ref); err != nil {
		t.Fatalf("failed to seed %s row %s: %v", table, id, err)
	}
}
