package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "split_user_name_into_first_and_last",
		Up:      migrationV1,
	},
}

// InitSchema creates the base schema and applies pending migrations.
func InitSchema() error {
	database, err := GetDB()
	if err != nil {
		return err
	}

	if _, err := database.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return runMigrations(database)
}

// runMigrations applies all migrations newer than the recorded version.
func runMigrations(database *sql.DB) error {
	// Create schema_version table if it doesn't exist
	_, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err = database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		if err := migration.Up(database); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := database.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 backfills first_name/last_name for databases created before
// the columns existed. Fresh installs get the columns from SchemaSQL and
// this is a no-op.
func migrationV1(database *sql.DB) error {
	var count int
	err := database.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info('users') WHERE name = 'first_name'").Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to inspect users table: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := database.Exec("ALTER TABLE users ADD COLUMN first_name TEXT"); err != nil {
		return fmt.Errorf("failed to add first_name: %w", err)
	}
	if _, err := database.Exec("ALTER TABLE users ADD COLUMN last_name TEXT"); err != nil {
		return fmt.Errorf("failed to add last_name: %w", err)
	}
	return nil
}
