package primary

import "context"

// MaintenanceService defines the primary port for the best-effort remote
// maintenance operations. Per-row failures are logged and skipped rather
// than aborting the sweep.
type MaintenanceService interface {
	// Touch forces the remote system to reindex the named entities by
	// issuing two consecutive no-op updates per entity (append then strip
	// a trailing space on the name) with remote validation disabled.
	// Returns how many entities were touched successfully.
	Touch(ctx context.Context, remoteIDs ...string) (int, error)

	// Unlink clears the remote reference on every linked local row of
	// every linkable entity type, returning affected-row counts keyed by
	// entity type name.
	Unlink(ctx context.Context) (map[string]int64, error)
}
