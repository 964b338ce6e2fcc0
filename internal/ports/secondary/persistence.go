package secondary

import (
	"context"
	"time"

	"github.com/example/crmsync/internal/core/linked"
)

// UserRecord represents a local user as stored in persistence.
// RemoteRef holds the id of the corresponding remote client, empty when the
// user is not linked.
type UserRecord struct {
	ID        string
	Name      string
	Email     string
	FirstName string
	LastName  string
	Timezone  string
	Team      string
	RemoteRef string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRepository defines the secondary port for local user persistence.
type UserRepository interface {
	// GetByID retrieves a user by id. A missing user is a normal outcome
	// here (stale cache hints point at deleted users), so it returns
	// (nil, nil) rather than an error.
	GetByID(ctx context.Context, id string) (*UserRecord, error)

	// FindByRemoteRef returns all users whose remote reference equals ref,
	// in stable insertion order.
	FindByRemoteRef(ctx context.Context, ref string) ([]*UserRecord, error)

	// FindByEmail returns all users whose email matches case-insensitively,
	// in stable insertion order.
	FindByEmail(ctx context.Context, email string) ([]*UserRecord, error)

	// Create persists a new user.
	Create(ctx context.Context, user *UserRecord) error

	// Update updates an existing user.
	Update(ctx context.Context, user *UserRecord) error
}

// SyncErrorRecord represents one tracked synchronization failure.
// ResolvedAt and ArchivedAt are independent state toggles: archiving a
// resolved error does not clear its resolution and vice versa.
type SyncErrorRecord struct {
	ID          string
	EntityType  string
	EntityID    string
	Strategy    string
	Message     string
	MessageHash string
	CreatedAt   time.Time
	ResolvedAt  *time.Time
	ArchivedAt  *time.Time
}

// SyncErrorFilters contains filter options for querying sync errors.
type SyncErrorFilters struct {
	EntityType string
	EntityID   string
	Strategy   string
	Unresolved bool  // only rows with resolved_at IS NULL
	Archived   *bool // nil = both, true = archived only, false = not archived
	Limit      int
}

// SyncErrorRepository defines the secondary port for sync error persistence.
//
// The ForEach methods stream rows in bounded pages; implementations must not
// materialize the full result set, and the callback may write back to the
// table (each page is fully read before its callbacks run).
type SyncErrorRepository interface {
	// Create persists a new sync error.
	Create(ctx context.Context, rec *SyncErrorRecord) error

	// GetByID retrieves a sync error by id, or (nil, nil) if absent.
	GetByID(ctx context.Context, id string) (*SyncErrorRecord, error)

	// FindUnresolved returns the unresolved error matching the dedup triple
	// (entity, strategy, message hash), or (nil, nil) if none exists.
	FindUnresolved(ctx context.Context, entityType, entityID, strategy, messageHash string) (*SyncErrorRecord, error)

	// List returns errors matching the filters, newest first.
	List(ctx context.Context, filters SyncErrorFilters) ([]*SyncErrorRecord, error)

	// ForEachUnresolved streams all unresolved errors for (entity, strategy).
	ForEachUnresolved(ctx context.Context, entityType, entityID, strategy string, fn func(*SyncErrorRecord) error) error

	// ForEachNotArchived streams all errors with archived_at IS NULL.
	ForEachNotArchived(ctx context.Context, fn func(*SyncErrorRecord) error) error

	// ForEachArchivedUnresolved streams all archived, unresolved errors.
	ForEachArchivedUnresolved(ctx context.Context, fn func(*SyncErrorRecord) error) error

	// MarkResolved sets resolved_at for the given error.
	MarkResolved(ctx context.Context, id string, at time.Time) error

	// MarkArchived sets archived_at for the given error; a nil at clears it.
	MarkArchived(ctx context.Context, id string, at *time.Time) error

	// MarkArchivedBatch sets or clears archived_at for every id in ids.
	MarkArchivedBatch(ctx context.Context, ids []string, at *time.Time) error
}

// LinkedRow is a minimal projection of one linked local row.
type LinkedRow struct {
	ID        string
	RemoteRef string
}

// LinkRepository defines the secondary port over the linkable local tables.
// It only ever touches the remote reference column of each table.
type LinkRepository interface {
	// ForEachLinked streams (id, remote_ref) for every row of the given
	// entity type whose remote reference is set, in the query's natural
	// order, paging at the query layer.
	ForEachLinked(ctx context.Context, t linked.EntityType, fn func(LinkedRow) error) error

	// ClearRemoteRefs nulls the remote reference on every linked row of the
	// given entity type and returns the number of affected rows.
	ClearRemoteRefs(ctx context.Context, t linked.EntityType) (int64, error)
}
