// Package app implements the sync layer's services over the secondary
// ports. Services hold no state of their own beyond injected dependencies
// and are safe for concurrent use.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/crmsync/internal/config"
	"github.com/example/crmsync/internal/core/match"
	"github.com/example/crmsync/internal/ports/primary"
	"github.com/example/crmsync/internal/ports/secondary"
)

// ProjectorServiceImpl implements primary.IdentityProjector: get-or-create
// mapping from remote clients to local users.
//
// Correctness under concurrency comes from the per-client lock: two sync
// passes projecting the same remote client serialize on it, so only one of
// them can conclude "no existing user" and create one. The cached id hint
// is purely a fast path layered outside the lock; a stale or missing hint
// degrades to the locked path, never to a duplicate user.
type ProjectorServiceImpl struct {
	users secondary.UserRepository
	cache secondary.Cache
	locks secondary.LockManager
	cfg   *config.Config
}

// NewProjectorService creates a new projector with injected dependencies.
func NewProjectorService(users secondary.UserRepository, cache secondary.Cache, locks secondary.LockManager, cfg *config.Config) *ProjectorServiceImpl {
	return &ProjectorServiceImpl{
		users: users,
		cache: cache,
		locks: locks,
		cfg:   cfg,
	}
}

// Project returns the local user linked to the given remote client,
// creating one if none exists.
func (s *ProjectorServiceImpl) Project(ctx context.Context, client primary.RemoteClient) (*primary.User, error) {
	if client.ID == "" {
		return nil, fmt.Errorf("remote client has no id")
	}

	hintKey := "projector:client:" + client.ID

	// Fast path: a cached user id from an earlier projection.
	if v, ok := s.cache.Get(hintKey); ok {
		if userID, ok := v.(string); ok {
			user, err := s.users.GetByID(ctx, userID)
			if err != nil {
				return nil, fmt.Errorf("failed to load hinted user %s: %w", userID, err)
			}
			if user != nil {
				return toUser(user), nil
			}
			// The hinted user was deleted locally; drop the hint and
			// take the locked path.
			s.cache.Forget(hintKey)
		}
	}

	email, err := s.clientEmail(client)
	if err != nil {
		return nil, err
	}

	var result *secondary.UserRecord
	lock := s.locks.Lock("projector:client:"+client.ID, s.cfg.ProjectorLockLease())
	err = lock.Block(ctx, s.cfg.ProjectorLockAcquire(), func() error {
		user, err := s.findOrBuild(ctx, client, email)
		if err != nil {
			return err
		}
		result = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Remember(hintKey, s.cfg.ProjectorTTL(), func() (any, error) {
		return result.ID, nil
	})

	return toUser(result), nil
}

// findOrBuild runs inside the per-client lock: locate the best existing
// candidate or create a fresh user, then persist the link.
func (s *ProjectorServiceImpl) findOrBuild(ctx context.Context, client primary.RemoteClient, email string) (*secondary.UserRecord, error) {
	candidates, err := s.users.FindByRemoteRef(ctx, client.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to search users by remote ref: %w", err)
	}
	if len(candidates) == 0 {
		candidates, err = s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to search users by email: %w", err)
		}
	}

	var user *secondary.UserRecord
	create := false

	switch len(candidates) {
	case 0:
		user = s.newUser(client, email)
		create = true
	case 1:
		user = candidates[0]
	default:
		// Several candidates (manual duplication, or more than one row
		// already carrying this remote ref). Score and keep the best;
		// equal scores keep the first-seen candidate.
		target := match.Person{Email: email, FirstName: client.FirstName, LastName: client.LastName}
		people := make([]match.Person, len(candidates))
		for i, c := range candidates {
			people[i] = match.Person{Email: c.Email, FirstName: c.FirstName, LastName: c.LastName}
		}
		user = candidates[match.PickBest(target, people)]
	}

	user.RemoteRef = client.ID
	if create {
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user for remote client %s: %w", client.ID, err)
		}
	} else {
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to link user %s to remote client %s: %w", user.ID, client.ID, err)
		}
	}

	return user, nil
}

// clientEmail returns the email to match and store for a remote client,
// falling back to the configured default when the remote record has none.
func (s *ProjectorServiceImpl) clientEmail(client primary.RemoteClient) (string, error) {
	if client.Email != "" {
		return client.Email, nil
	}
	if s.cfg.DefaultClientEmail == "" {
		return "", &config.MissingDefaultError{Field: "default_client_email"}
	}
	return s.cfg.DefaultClientEmail, nil
}

func (s *ProjectorServiceImpl) newUser(client primary.RemoteClient, email string) *secondary.UserRecord {
	name := client.Name
	if name == "" {
		name = strings.TrimSpace(client.FirstName + " " + client.LastName)
	}
	if name == "" {
		name = email
	}

	return &secondary.UserRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		FirstName: client.FirstName,
		LastName:  client.LastName,
		Timezone:  s.cfg.DefaultTimezone,
		Team:      s.cfg.DefaultTeam,
		CreatedAt: time.Now().UTC(),
	}
}

func toUser(rec *secondary.UserRecord) *primary.User {
	return &primary.User{
		ID:        rec.ID,
		Name:      rec.Name,
		Email:     rec.Email,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Timezone:  rec.Timezone,
		Team:      rec.Team,
		RemoteRef: rec.RemoteRef,
	}
}
