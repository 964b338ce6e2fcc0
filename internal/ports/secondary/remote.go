package secondary

import "context"

// RemoteRecord is a flattened view of an entity owned by the remote CRM.
// The remote system is authoritative; this layer never mutates records
// except through explicit BulkUpdate calls.
type RemoteRecord struct {
	ID        string
	Name      string
	Email     string
	FirstName string
	LastName  string
	Code      string
	ParentRef string // remote id of the owning parent record, if any
}

// Criteria is an exact-match filter over remote record fields.
// Keys are field names ("name", "email", "code", "parent_ref").
type Criteria map[string]string

// ValidationLevel controls how much server-side validation the remote
// system applies to an update.
type ValidationLevel int

const (
	// ValidationFull runs the remote system's normal validation rules.
	ValidationFull ValidationLevel = iota
	// ValidationNone skips remote validation. Used by maintenance no-op
	// updates that only exist to trigger the remote's own reindexing.
	ValidationNone
)

// UpdateInput describes a field update for one remote record.
type UpdateInput struct {
	ID     string
	Fields map[string]string
}

// RemoteIterator is a lazy pull-based sequence of remote records.
type RemoteIterator interface {
	// Next returns the next record, or false when the sequence is
	// exhausted. A transport failure ends the sequence with an error.
	Next(ctx context.Context) (*RemoteRecord, bool, error)
}

// RemoteProvider defines the secondary port for one remote CRM entity type.
// Transport failures propagate unchanged; this layer adds no retry logic.
type RemoteProvider interface {
	// FetchAll returns every record of this provider's entity type.
	FetchAll(ctx context.Context) ([]RemoteRecord, error)

	// FetchByID returns the record with the given remote id, or nil if the
	// remote system has no such record.
	FetchByID(ctx context.Context, id string) (*RemoteRecord, error)

	// FetchByCriteria returns all records matching the filter.
	FetchByCriteria(ctx context.Context, criteria Criteria) ([]RemoteRecord, error)

	// FetchByIDs returns the records whose remote ids appear in ids.
	// Unknown ids are silently absent from the result.
	FetchByIDs(ctx context.Context, ids []string) ([]RemoteRecord, error)

	// BulkUpdate applies the given updates remotely.
	BulkUpdate(ctx context.Context, inputs []UpdateInput, level ValidationLevel) error

	// Scroll returns a lazy iterator over records matching the filter.
	// Restartable only by re-issuing the call.
	Scroll(ctx context.Context, criteria Criteria) RemoteIterator
}
