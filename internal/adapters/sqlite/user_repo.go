// Package sqlite contains SQLite implementations of the persistence ports.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/crmsync/internal/ports/secondary"
)

// UserRepository implements secondary.UserRepository with SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, name, email, first_name, last_name, timezone, team, remote_ref, created_at, updated_at"

// Create persists a new user inside a transaction.
func (r *UserRepository) Create(ctx context.Context, user *secondary.UserRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (id, name, email, first_name, last_name, timezone, team, remote_ref) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, nullable(user.Email), nullable(user.FirstName), nullable(user.LastName),
		nullable(user.Timezone), nullable(user.Team), nullable(user.RemoteRef),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user create: %w", err)
	}
	return nil
}

// Update updates an existing user inside a transaction.
func (r *UserRepository) Update(ctx context.Context, user *secondary.UserRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE users SET name = ?, email = ?, first_name = ?, last_name = ?, timezone = ?, team = ?, remote_ref = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		user.Name, nullable(user.Email), nullable(user.FirstName), nullable(user.LastName),
		nullable(user.Timezone), nullable(user.Team), nullable(user.RemoteRef), user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %s not found", user.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user update: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id, or (nil, nil) when absent.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*secondary.UserRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)

	user, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return user, nil
}

// FindByRemoteRef returns users linked to the given remote id, oldest first
// so the first-seen order is stable across calls.
func (r *UserRepository) FindByRemoteRef(ctx context.Context, ref string) ([]*secondary.UserRecord, error) {
	return r.queryUsers(ctx,
		"SELECT "+userColumns+" FROM users WHERE remote_ref = ? ORDER BY created_at, id", ref)
}

// FindByEmail returns users matching the email case-insensitively, oldest
// first.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) ([]*secondary.UserRecord, error) {
	return r.queryUsers(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? COLLATE NOCASE ORDER BY created_at, id", email)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*secondary.UserRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*secondary.UserRecord
	for rows.Next() {
		user, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func scanUser(scan func(...any) error) (*secondary.UserRecord, error) {
	var (
		email, firstName, lastName sql.NullString
		timezone, team, remoteRef  sql.NullString
		createdAt, updatedAt       time.Time
	)

	user := &secondary.UserRecord{}
	err := scan(&user.ID, &user.Name, &email, &firstName, &lastName,
		&timezone, &team, &remoteRef, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	user.Email = email.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.Timezone = timezone.String
	user.Team = team.String
	user.RemoteRef = remoteRef.String
	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return user, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
