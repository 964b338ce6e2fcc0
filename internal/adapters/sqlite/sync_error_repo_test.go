package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/example/crmsync/internal/ports/secondary"
)

func newSyncError(id, entityID, strategy, hash string) *secondary.SyncErrorRecord {
	return &secondary.SyncErrorRecord{
		ID:          id,
		EntityType:  "company",
		EntityID:    entityID,
		Strategy:    strategy,
		Message:     "sync failed",
		MessageHash: hash,
	}
}

func TestSyncErrorRepository_CreateAndGet(t *testing.T) {
	repo := NewSyncErrorRepository(setupTestDB(t))
	ctx := context.Background()

	seedSyncError(t, repo, newSyncError("e1", "c1", "push", "h1"))

	rec, err := repo.GetByID(ctx, "e1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if rec == nil {
		t.Fatal("expected the error back")
	}
	if rec.EntityID != "c1" || rec.Strategy != "push" || rec.MessageHash != "h1" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.ResolvedAt != nil || rec.ArchivedAt != nil {
		t.Error("expected a fresh error to be unresolved and unarchived")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected created_at to be stamped")
	}
}

func TestSyncErrorRepository_GetMissingReturnsNil(t *testing.T) {
	repo := NewSyncErrorRepository(setupTestDB(t))

	rec, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil for a missing error, got %+v", rec)
	}
}

func TestSyncErrorRepository_FindUnresolved(t *testing.T) {
	repo := NewSyncErrorRepository(setupTestDB(t))
	ctx := context.Background()

	seedSyncError(t, repo, newSyncError("e1", "c1", "push", "h1"))

	rec, err := repo.FindUnresolved(ctx, "company", "c1", "push", "h1")
	if err != nil {
		t.Fatalf("FindUnresolved failed: %v", err)
	}
	if rec == nil || rec.ID != "e1" {
		t.Fatalf("expected e1, got %+v", rec)
	}

	// A different hash must not match.
	rec, err = repo.FindUnresolved(ctx, "company", "c1", "push", "other")
	if err != nil {
		t.Fatalf("FindUnresolved failed: %v", err)
	}
	if rec != nil {
		t.Errorf("expected no match for a different hash, got %+v", rec)
	}

	// A resolved row must not match.
	if err := repo.MarkResolved(ctx, "e1", time.Now().UTC()); err != nil {
		t.Fatalf("MarkResolved failed: %v", err)
	}
	rec, err = repo.FindUnresolved(ctx, "company", "c1", "push", "h1")
	if err != nil {
		t.Fatalf("FindUnresolved failed: %v", err)
	}
	if rec != nil {
		t.Errorf("expected resolved rows to be excluded, got %+v", rec)
	}
}

func TestSyncErrorRepository_MarkResolvedMissingFails(t *testing.T) {
	repo := NewSyncErrorRepository(setupTestDB(t))

	if err := repo.MarkResolved(context.Background(), "missing", time.Now().UTC()); err == nil {
		t.Error("expected an error resolving a missing row")
	}
}

func TestSyncErrorRepository_MarkArchivedSetsAndClears(t *testing.T) {
	repo := NewSyncErrorRepository(setupTestDB(t))
	ctx := context.Background()

	seedSyncError(t, repo, newSyncError("e1", "c1", "push", "h1"))

	at := time.Now().UTC()
	if err := repo.MarkArchived(ctx, "e1", &at); err != nil {
		t.Fatalf("MarkArchived failed: %v", err)
	}
	rec, _ := repo.GetByID(ctx, "e1")
	if rec.ArchivedAt == nil {
		t.Fatal("expected archived_at to be set")
	}

	if err := repo.MarkArchived(ctx, "e1", nil); err != nil {
		t.Fatalf("MarkArchived(nil) failed: %v", err)
	}
	rec, _ = repo.GetByID(ctx, "e1")
	if rec.ArchivedAt != nil {
		t.Error("expected archived_at to be cleared")
	}
}

func TestSyncErrorRepository_MarkArchivedBatch(t *testing.T) {
	repo := NewSyncErrorRepository(setupTestDB(t))
	ctx := context.Background()

	seedSyncError(t, repo, newSyncError("e1", "c1", "push", "h1"))
	seedSyncError(t, repo, newSyncError("e2", "c1", "push", "h2"))
	seedSyncError(t, repo, newSyncError("e3", "c1", "push", "h3"))

	at := time.Now().UTC()
	if err := repo.MarkArchivedBatch(ctx, []string{"e1", "e3"}, &at); err != nil {
		t.Fatalf("MarkArchivedBatch failed: %v", err)
	}

	for id, wantArchived := range map[string]bool{"e1": true, "e2": false, "e3": true} {
		rec, _ := repo.GetByID(ctx, id)
		if (rec.ArchivedAt != nil) != wantArchived {
			t.Errorf("%s: archived=%v, want %v", id, rec.ArchivedAt != nil, wantArchived)
		}
	}

	// Empty batches are a no-op, not an error.
	if err := repo.MarkArchivedBatch(ctx, nil, &at); err != nil {
		t.Errorf("empty batch failed: %v", err)
	}
}

func TestSyncErrorRepository_ListFiltersAndOrder(t *testing.T) {
	repo := NewSyncErrorRepository(setupTestDB(t))
	ctx := context.Background()

	seedSyncError(t, repo, newSyncError("e1", "c1", "push", "h1"))
	seedSyncError(t, repo, newSyncError("e2", "c1", "pull", "h2"))
	seedSyncError(t, repo, newSyncError("e3", "c2", "push", "h3"))
	repo.MarkResolved(ctx, "e1", time.Now().UTC())

	all, err := repo.List(ctx, secondary.SyncErrorFilters{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}
	if all[0].ID != "e3" {
		t.Errorf("expected newest first, got %s", all[0].ID)
	}

	unresolved, err := repo.List(ctx, secondary.SyncErrorFilters{Unresolved: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(unresolved) != 2 {
		t.Errorf("expected 2 unresolved rows, got %d", len(unresolved))
	}

	byEntity, err := repo.List(ctx, secondary.SyncErrorFilters{EntityType: "company", EntityID: "c1", Strategy: "push"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byEntity) != 1 || byEntity[0].ID != "e1" {
		t.Errorf("unexpected entity filter result %+v", byEntity)
	}

	archived := false
	notArchived, err := repo.List(ctx, secondary.SyncErrorFilters{Archived: &archived, Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(notArchived) != 2 {
		t.Errorf("expected the limit to apply, got %d rows", len(notArchived))
	}
}

func TestSyncErrorRepository_SweepPagesThroughBacklog(t *testing.T) {
	repo := NewSyncErrorRepository(setupTestDB(t))
	ctx := context.Background()

	total := sweepPageSize + 50
	for i := 0; i < total; i++ {
		seedSyncError(t, repo, newSyncError(fmt.Sprintf("e%04d", i), "c1", "push", fmt.Sprintf("h%d", i)))
	}

	seen := 0
	err := repo.ForEachUnresolved(ctx, "company", "c1", "push", func(rec *secondary.SyncErrorRecord) error {
		seen++
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachUnresolved failed: %v", err)
	}
	if seen != total {
		t.Errorf("expected %d rows across pages, got %d", total, seen)
	}
}

func TestSyncErrorRepository_SweepCallbackMayWriteBack(t *testing.T) {
	repo := NewSyncErrorRepository(setupTestDB(t))
	ctx := context.Background()

	total := sweepPageSize + 10
	for i := 0; i < total; i++ {
		seedSyncError(t, repo, newSyncError(fmt.Sprintf("e%04d", i), "c1", "push", fmt.Sprintf("h%d", i)))
	}

	at := time.Now().UTC()
	resolved := 0
	err := repo.ForEachUnresolved(ctx, "company", "c1", "push", func(rec *secondary.SyncErrorRecord) error {
		if err := repo.MarkResolved(ctx, rec.ID, at); err != nil {
			return err
		}
		resolved++
		return nil
	})
	if err != nil {
		t.Fatalf("sweep with write-back failed: %v", err)
	}
	if resolved != total {
		t.Errorf("expected every row resolved exactly once, got %d of %d", resolved, total)
	}

	left, err := repo.List(ctx, secondary.SyncErrorFilters{Unresolved: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("expected no unresolved rows left, got %d", len(left))
	}
}

func TestSyncErrorRepository_ForEachArchivedUnresolved(t *testing.T) {
	repo := NewSyncErrorRepository(setupTestDB(t))
	ctx := context.Background()

	seedSyncError(t, repo, newSyncError("e1", "c1", "push", "h1"))
	seedSyncError(t, repo, newSyncError("e2", "c1", "push", "h2"))
	seedSyncError(t, repo, newSyncError("e3", "c1", "push", "h3"))

	at := time.Now().UTC()
	repo.MarkArchived(ctx, "e1", &at)
	repo.MarkArchived(ctx, "e2", &at)
	repo.MarkResolved(ctx, "e2", at)

	var ids []string
	err := repo.ForEachArchivedUnresolved(ctx, func(rec *secondary.SyncErrorRecord) error {
		ids = append(ids, rec.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachArchivedUnresolved failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "e1" {
		t.Errorf("expected only e1, got %v", ids)
	}
}
