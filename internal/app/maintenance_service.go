package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/example/crmsync/internal/core/linked"
	"github.com/example/crmsync/internal/ports/secondary"
)

// MaintenanceServiceImpl implements primary.MaintenanceService.
//
// Both operations are best-effort sweeps: a per-row failure is logged and
// the sweep continues. That is the one place in this layer where errors are
// swallowed; everything else propagates.
type MaintenanceServiceImpl struct {
	touchProvider secondary.RemoteProvider
	links         secondary.LinkRepository
	logger        *log.Logger
}

// NewMaintenanceService creates a maintenance service. touchProvider is the
// remote provider whose entities need forced reindexing. If logger is nil,
// a default logger writing to stderr is used.
func NewMaintenanceService(touchProvider secondary.RemoteProvider, links secondary.LinkRepository, logger *log.Logger) *MaintenanceServiceImpl {
	if logger == nil {
		logger = log.New(os.Stderr, "[maint] ", log.LstdFlags)
	}
	return &MaintenanceServiceImpl{
		touchProvider: touchProvider,
		links:         links,
		logger:        logger,
	}
}

// Touch forces remote reindexing of the named entities: for each, append a
// trailing space to the name and strip it again, both with remote
// validation disabled. The remote system treats the pair as a no-op but
// reindexes the record downstream. Works around a remote-system limitation;
// not a business operation.
func (s *MaintenanceServiceImpl) Touch(ctx context.Context, remoteIDs ...string) (int, error) {
	records, err := s.touchProvider.FetchByIDs(ctx, remoteIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch entities to touch: %w", err)
	}

	byID := make(map[string]secondary.RemoteRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	touched := 0
	for _, id := range remoteIDs {
		rec, ok := byID[id]
		if !ok {
			s.logger.Printf("WARNING: remote entity %s not found, skipping touch", id)
			continue
		}

		name := strings.TrimRight(rec.Name, " ")
		if err := s.touchOne(ctx, id, name); err != nil {
			s.logger.Printf("WARNING: failed to touch %s: %v", id, err)
			continue
		}

		s.logger.Printf("Touched remote entity %s", id)
		touched++
	}

	return touched, nil
}

func (s *MaintenanceServiceImpl) touchOne(ctx context.Context, id, name string) error {
	padded := []secondary.UpdateInput{{ID: id, Fields: map[string]string{"name": name + " "}}}
	if err := s.touchProvider.BulkUpdate(ctx, padded, secondary.ValidationNone); err != nil {
		return fmt.Errorf("pad update failed: %w", err)
	}

	restored := []secondary.UpdateInput{{ID: id, Fields: map[string]string{"name": name}}}
	if err := s.touchProvider.BulkUpdate(ctx, restored, secondary.ValidationNone); err != nil {
		return fmt.Errorf("restore update failed: %w", err)
	}
	return nil
}

// Unlink clears the remote reference on every linked local row of every
// linkable entity type. Per-type failures are logged and skipped; the
// returned counts cover the types that succeeded.
func (s *MaintenanceServiceImpl) Unlink(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(linked.All()))

	for _, t := range linked.All() {
		n, err := s.links.ClearRemoteRefs(ctx, t)
		if err != nil {
			s.logger.Printf("WARNING: failed to unlink %s rows: %v", t, err)
			continue
		}
		counts[t.String()] = n
		s.logger.Printf("Unlinked %d %s rows", n, t)
	}

	return counts, nil
}
