package primary

import (
	"context"
	"time"
)

// EntityRef identifies one local entity by type and id.
type EntityRef struct {
	Type string
	ID   string
}

// SyncError is the external view of one tracked synchronization failure.
type SyncError struct {
	ID         string
	Entity     EntityRef
	Strategy   string
	Message    string
	CreatedAt  time.Time
	ResolvedAt *time.Time
	ArchivedAt *time.Time
}

// SyncErrorFilters contains filter options for listing sync errors.
type SyncErrorFilters struct {
	Entity     EntityRef // zero value = all entities
	Strategy   string
	Unresolved bool
	Archived   *bool
	Limit      int
}

// SyncErrorService defines the primary port for the sync error lifecycle.
type SyncErrorService interface {
	// EnsureCreated records a failure unless an unresolved error with the
	// same message already exists for (entity, strategy); in that case the
	// existing error is returned and no new row is written.
	EnsureCreated(ctx context.Context, entity EntityRef, strategy, message string) (*SyncError, error)

	// Create always records a new failure, without duplicate suppression.
	Create(ctx context.Context, entity EntityRef, strategy, message string) (*SyncError, error)

	// Resolve stamps the error as resolved.
	Resolve(ctx context.Context, errorID string) error

	// Archive stamps the error as archived. Independent of resolution.
	Archive(ctx context.Context, errorID string) error

	// Unarchive clears the archived stamp. Independent of resolution.
	Unarchive(ctx context.Context, errorID string) error

	// ResolveAllForStrategy resolves every unresolved error for the
	// (entity, strategy) pair and returns how many were resolved.
	ResolveAllForStrategy(ctx context.Context, entity EntityRef, strategy string) (int, error)

	// ArchiveAll archives every error that is not archived yet.
	ArchiveAll(ctx context.Context) (int, error)

	// UnarchiveAllNotResolved un-archives every archived error that is
	// still unresolved.
	UnarchiveAllNotResolved(ctx context.Context) (int, error)

	// ArchiveByIDs archives the given errors.
	ArchiveByIDs(ctx context.Context, ids []string) error

	// UnarchiveByIDs un-archives the given errors.
	UnarchiveByIDs(ctx context.Context, ids []string) error

	// List returns errors matching the filters, newest first.
	List(ctx context.Context, filters SyncErrorFilters) ([]*SyncError, error)
}
