package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/crmsync/internal/config"
	"github.com/example/crmsync/internal/ports/primary"
	"github.com/example/crmsync/internal/ports/secondary"
)

// SyncErrorServiceImpl implements primary.SyncErrorService.
//
// Writes that interact with the dedup invariant (EnsureCreated, Create,
// Resolve, ResolveAllForStrategy) run inside a lock scoped to the owning
// entity, so two concurrent sync attempts cannot both pass the "unresolved
// error already exists" check. Archive toggles leave resolved_at alone and
// therefore run without the lock.
type SyncErrorServiceImpl struct {
	repo  secondary.SyncErrorRepository
	locks secondary.LockManager
	cfg   *config.Config
	now   func() time.Time
}

// NewSyncErrorService creates a new sync error service with injected
// dependencies.
func NewSyncErrorService(repo secondary.SyncErrorRepository, locks secondary.LockManager, cfg *config.Config) *SyncErrorServiceImpl {
	return &SyncErrorServiceImpl{
		repo:  repo,
		locks: locks,
		cfg:   cfg,
		now:   time.Now,
	}
}

// EnsureCreated records a failure unless an unresolved error with the same
// message already exists for (entity, strategy).
func (s *SyncErrorServiceImpl) EnsureCreated(ctx context.Context, entity primary.EntityRef, strategy, message string) (*primary.SyncError, error) {
	hash := hashMessage(message)

	var result *secondary.SyncErrorRecord
	err := s.withEntityLock(ctx, entity, func() error {
		existing, err := s.repo.FindUnresolved(ctx, entity.Type, entity.ID, strategy, hash)
		if err != nil {
			return fmt.Errorf("failed to check for existing sync error: %w", err)
		}
		if existing != nil {
			result = existing
			return nil
		}

		rec := s.newRecord(entity, strategy, message, hash)
		if err := s.repo.Create(ctx, rec); err != nil {
			return fmt.Errorf("failed to create sync error: %w", err)
		}
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toSyncError(result), nil
}

// Create always records a new failure, without duplicate suppression.
func (s *SyncErrorServiceImpl) Create(ctx context.Context, entity primary.EntityRef, strategy, message string) (*primary.SyncError, error) {
	rec := s.newRecord(entity, strategy, message, hashMessage(message))

	err := s.withEntityLock(ctx, entity, func() error {
		if err := s.repo.Create(ctx, rec); err != nil {
			return fmt.Errorf("failed to create sync error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toSyncError(rec), nil
}

// Resolve stamps the error as resolved, under the owning entity's lock.
func (s *SyncErrorServiceImpl) Resolve(ctx context.Context, errorID string) error {
	rec, err := s.mustGet(ctx, errorID)
	if err != nil {
		return err
	}

	entity := primary.EntityRef{Type: rec.EntityType, ID: rec.EntityID}
	return s.withEntityLock(ctx, entity, func() error {
		return s.repo.MarkResolved(ctx, errorID, s.now().UTC())
	})
}

// Archive stamps the error as archived. Resolution state is untouched.
func (s *SyncErrorServiceImpl) Archive(ctx context.Context, errorID string) error {
	at := s.now().UTC()
	return s.repo.MarkArchived(ctx, errorID, &at)
}

// Unarchive clears the archived stamp. Resolution state is untouched.
func (s *SyncErrorServiceImpl) Unarchive(ctx context.Context, errorID string) error {
	return s.repo.MarkArchived(ctx, errorID, nil)
}

// ResolveAllForStrategy resolves every unresolved error for the
// (entity, strategy) pair, streaming the backlog in bounded pages.
func (s *SyncErrorServiceImpl) ResolveAllForStrategy(ctx context.Context, entity primary.EntityRef, strategy string) (int, error) {
	count := 0
	err := s.withEntityLock(ctx, entity, func() error {
		at := s.now().UTC()
		return s.repo.ForEachUnresolved(ctx, entity.Type, entity.ID, strategy, func(rec *secondary.SyncErrorRecord) error {
			if err := s.repo.MarkResolved(ctx, rec.ID, at); err != nil {
				return err
			}
			count++
			return nil
		})
	})
	if err != nil {
		return count, err
	}
	return count, nil
}

// ArchiveAll archives every error not archived yet, streaming in bounded
// pages.
func (s *SyncErrorServiceImpl) ArchiveAll(ctx context.Context) (int, error) {
	count := 0
	at := s.now().UTC()
	err := s.repo.ForEachNotArchived(ctx, func(rec *secondary.SyncErrorRecord) error {
		if err := s.repo.MarkArchived(ctx, rec.ID, &at); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// UnarchiveAllNotResolved un-archives every archived error that is still
// unresolved.
func (s *SyncErrorServiceImpl) UnarchiveAllNotResolved(ctx context.Context) (int, error) {
	count := 0
	err := s.repo.ForEachArchivedUnresolved(ctx, func(rec *secondary.SyncErrorRecord) error {
		if err := s.repo.MarkArchived(ctx, rec.ID, nil); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// ArchiveByIDs archives the given errors in one batch write.
func (s *SyncErrorServiceImpl) ArchiveByIDs(ctx context.Context, ids []string) error {
	at := s.now().UTC()
	return s.repo.MarkArchivedBatch(ctx, ids, &at)
}

// UnarchiveByIDs un-archives the given errors in one batch write.
func (s *SyncErrorServiceImpl) UnarchiveByIDs(ctx context.Context, ids []string) error {
	return s.repo.MarkArchivedBatch(ctx, ids, nil)
}

// List returns errors matching the filters, newest first.
func (s *SyncErrorServiceImpl) List(ctx context.Context, filters primary.SyncErrorFilters) ([]*primary.SyncError, error) {
	recs, err := s.repo.List(ctx, secondary.SyncErrorFilters{
		EntityType: filters.Entity.Type,
		EntityID:   filters.Entity.ID,
		Strategy:   filters.Strategy,
		Unresolved: filters.Unresolved,
		Archived:   filters.Archived,
		Limit:      filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sync errors: %w", err)
	}

	out := make([]*primary.SyncError, len(recs))
	for i, rec := range recs {
		out[i] = toSyncError(rec)
	}
	return out, nil
}

func (s *SyncErrorServiceImpl) withEntityLock(ctx context.Context, entity primary.EntityRef, fn func() error) error {
	lock := s.locks.Lock("syncerror:"+entity.Type+":"+entity.ID, s.cfg.ErrorLockLease())
	return lock.Block(ctx, s.cfg.ErrorLockAcquire(), fn)
}

func (s *SyncErrorServiceImpl) mustGet(ctx context.Context, errorID string) (*secondary.SyncErrorRecord, error) {
	rec, err := s.repo.GetByID(ctx, errorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync error %s: %w", errorID, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("sync error %s not found", errorID)
	}
	return rec, nil
}

func (s *SyncErrorServiceImpl) newRecord(entity primary.EntityRef, strategy, message, hash string) *secondary.SyncErrorRecord {
	return &secondary.SyncErrorRecord{
		ID:          uuid.NewString(),
		EntityType:  entity.Type,
		EntityID:    entity.ID,
		Strategy:    strategy,
		Message:     message,
		MessageHash: hash,
		CreatedAt:   s.now().UTC(),
	}
}

func hashMessage(message string) string {
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])
}

func toSyncError(rec *secondary.SyncErrorRecord) *primary.SyncError {
	return &primary.SyncError{
		ID:         rec.ID,
		Entity:     primary.EntityRef{Type: rec.EntityType, ID: rec.EntityID},
		Strategy:   rec.Strategy,
		Message:    rec.Message,
		CreatedAt:  rec.CreatedAt,
		ResolvedAt: rec.ResolvedAt,
		ArchivedAt: rec.ArchivedAt,
	}
}
