package primary

import "context"

// LinkedEntity is one local row that carries a remote reference.
// IsValid is nil when validation was not requested, otherwise it reports
// whether the referenced remote record still exists.
type LinkedEntity struct {
	ID         string
	RemoteRef  string
	EntityName string
	IsValid    *bool
}

// LinkService defines the primary port for cross-type link aggregation.
type LinkService interface {
	// Aggregate collects every linked local row across all linkable entity
	// types, in the fixed per-type order. When validate is true, each
	// type's references are checked against the remote system in one
	// batched call per type.
	Aggregate(ctx context.Context, validate bool) ([]LinkedEntity, error)
}
