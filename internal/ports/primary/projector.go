// Package primary defines the primary ports (driving interfaces) for the
// sync layer, along with their request/response types. Job runners and CLI
// commands talk to the application exclusively through these interfaces.
package primary

import "context"

// RemoteClient is the projection input: the subset of a remote client
// record that identity projection cares about.
type RemoteClient struct {
	ID        string
	Name      string
	Email     string
	FirstName string
	LastName  string
}

// User is the projection output: a local user linked to a remote client.
type User struct {
	ID        string
	Name      string
	Email     string
	FirstName string
	LastName  string
	Timezone  string
	Team      string
	RemoteRef string
}

// IdentityProjector defines the primary port for get-or-create projection
// of remote clients onto local users.
type IdentityProjector interface {
	// Project returns the local user linked to the given remote client,
	// creating one if none exists. Idempotent under concurrent calls for
	// the same remote client id.
	Project(ctx context.Context, client RemoteClient) (*User, error)
}
