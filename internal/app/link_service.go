package app

import (
	"context"
	"fmt"

	"github.com/example/crmsync/internal/core/linked"
	"github.com/example/crmsync/internal/ports/primary"
	"github.com/example/crmsync/internal/ports/secondary"
)

// LinkServiceImpl implements primary.LinkService: cross-type aggregation of
// local rows that reference remote records, with optional bulk existence
// validation against the remote system (one batched call per entity type,
// never per row).
type LinkServiceImpl struct {
	repo      secondary.LinkRepository
	providers map[linked.ProviderKey]secondary.RemoteProvider
}

// NewLinkService creates a link service. providers maps each provider key
// to the remote provider validating that slice of the remote system; a
// missing provider fails validation for its types at call time.
func NewLinkService(repo secondary.LinkRepository, providers map[linked.ProviderKey]secondary.RemoteProvider) *LinkServiceImpl {
	return &LinkServiceImpl{
		repo:      repo,
		providers: providers,
	}
}

// Aggregate collects every linked local row across all linkable entity
// types in the fixed order, validating remote existence when requested.
func (s *LinkServiceImpl) Aggregate(ctx context.Context, validate bool) ([]primary.LinkedEntity, error) {
	var out []primary.LinkedEntity

	for _, t := range linked.All() {
		var rows []secondary.LinkedRow
		err := s.repo.ForEachLinked(ctx, t, func(row secondary.LinkedRow) error {
			rows = append(rows, row)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to collect linked %s rows: %w", t, err)
		}

		var exists map[string]bool
		if validate && len(rows) > 0 {
			exists, err = s.validateRefs(ctx, t, rows)
			if err != nil {
				return nil, err
			}
		}

		for _, row := range rows {
			entity := primary.LinkedEntity{
				ID:         row.ID,
				RemoteRef:  row.RemoteRef,
				EntityName: t.String(),
			}
			if exists != nil {
				valid := exists[row.RemoteRef]
				entity.IsValid = &valid
			}
			out = append(out, entity)
		}
	}

	return out, nil
}

// validateRefs checks all remote references of one entity type in a single
// batched remote call.
func (s *LinkServiceImpl) validateRefs(ctx context.Context, t linked.EntityType, rows []secondary.LinkedRow) (map[string]bool, error) {
	provider, ok := s.providers[t.Provider()]
	if !ok {
		return nil, fmt.Errorf("no remote provider wired for entity type %s", t)
	}

	seen := make(map[string]bool, len(rows))
	refs := make([]string, 0, len(rows))
	for _, row := range rows {
		if !seen[row.RemoteRef] {
			seen[row.RemoteRef] = true
			refs = append(refs, row.RemoteRef)
		}
	}

	records, err := provider.FetchByIDs(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to validate %s references: %w", t, err)
	}

	exists := make(map[string]bool, len(refs))
	for _, rec := range records {
		exists[rec.ID] = true
	}
	return exists, nil
}
