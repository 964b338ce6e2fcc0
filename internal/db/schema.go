package db

// SchemaSQL is the complete schema for fresh installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All repository
// tests load it via GetSchemaSQL(), so a repository referencing a column
// missing here fails immediately with "no such column" at test time instead
// of in production. Do not hardcode CREATE TABLE statements in test files.
//
// Keep in sync with the list in migrations.go when adding tables or columns.
const SchemaSQL = `
-- Local users, the projection targets for remote clients
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	first_name TEXT,
	last_name TEXT,
	timezone TEXT,
	team TEXT,
	remote_ref TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_users_remote_ref ON users(remote_ref);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email COLLATE NOCASE);

-- Tracked synchronization failures, deduplicated per
-- (entity, strategy, message hash) while unresolved
CREATE TABLE IF NOT EXISTS sync_errors (
	id TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	strategy TEXT NOT NULL,
	message TEXT NOT NULL,
	message_hash TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	resolved_at DATETIME,
	archived_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_sync_errors_dedup
	ON sync_errors(entity_type, entity_id, strategy, message_hash);
CREATE INDEX IF NOT EXISTS idx_sync_errors_resolved ON sync_errors(resolved_at);

-- Linkable local tables. Owned by their domain modules; this layer only
-- reads and clears the remote_ref column.
CREATE TABLE IF NOT EXISTS companies (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	remote_ref TEXT
);

CREATE TABLE IF NOT EXISTS opportunities (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	company_id TEXT,
	remote_ref TEXT,
	FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS addresses (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	company_id TEXT,
	remote_ref TEXT,
	FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	company_id TEXT,
	remote_ref TEXT,
	FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS appointments (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	remote_ref TEXT
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	remote_ref TEXT
);

CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	remote_ref TEXT
);
`

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// See the SchemaSQL doc comment for why tests must use this.
func GetSchemaSQL() string {
	return SchemaSQL
}
