// Package remote contains file-backed implementations of the remote
// provider port. A SnapshotProvider serves a JSON snapshot of one remote
// entity collection, which lets link validation and maintenance commands
// run against an exported copy of the remote system without network access.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/example/crmsync/internal/ports/secondary"
)

// SnapshotProvider implements secondary.RemoteProvider over a JSON file
// holding an array of remote records. Reads load lazily on first use;
// BulkUpdate rewrites the file.
type SnapshotProvider struct {
	path string

	mu      sync.Mutex
	loaded  bool
	records []secondary.RemoteRecord
}

// NewSnapshotProvider creates a provider reading from the given JSON file.
// The file may not exist yet; it then behaves as an empty collection.
func NewSnapshotProvider(path string) *SnapshotProvider {
	return &SnapshotProvider{path: path}
}

// FetchAll returns every record in the snapshot.
func (p *SnapshotProvider) FetchAll(ctx context.Context) ([]secondary.RemoteRecord, error) {
	records, err := p.load()
	if err != nil {
		return nil, err
	}
	out := make([]secondary.RemoteRecord, len(records))
	copy(out, records)
	return out, nil
}

// FetchByID returns the record with the given id, or nil when absent.
func (p *SnapshotProvider) FetchByID(ctx context.Context, id string) (*secondary.RemoteRecord, error) {
	records, err := p.load()
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.ID == id {
			r := rec
			return &r, nil
		}
	}
	return nil, nil
}

// FetchByCriteria returns all records matching the filter exactly.
func (p *SnapshotProvider) FetchByCriteria(ctx context.Context, criteria secondary.Criteria) ([]secondary.RemoteRecord, error) {
	records, err := p.load()
	if err != nil {
		return nil, err
	}

	var out []secondary.RemoteRecord
	for _, rec := range records {
		if matches(rec, criteria) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// FetchByIDs returns the records whose ids appear in ids; unknown ids are
// silently absent.
func (p *SnapshotProvider) FetchByIDs(ctx context.Context, ids []string) ([]secondary.RemoteRecord, error) {
	records, err := p.load()
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out []secondary.RemoteRecord
	for _, rec := range records {
		if want[rec.ID] {
			out = append(out, rec)
		}
	}
	return out, nil
}

// BulkUpdate applies field updates to the snapshot and rewrites the file.
// The validation level is accepted for interface compatibility; a snapshot
// has no validation of its own.
func (p *SnapshotProvider) BulkUpdate(ctx context.Context, inputs []secondary.UpdateInput, level secondary.ValidationLevel) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.loadLocked(); err != nil {
		return err
	}

	byID := make(map[string]int, len(p.records))
	for i, rec := range p.records {
		byID[rec.ID] = i
	}

	for _, in := range inputs {
		i, ok := byID[in.ID]
		if !ok {
			return fmt.Errorf("remote record %s not found in snapshot %s", in.ID, p.path)
		}
		applyFields(&p.records[i], in.Fields)
	}

	return p.saveLocked()
}

// Scroll returns an iterator over records matching the filter.
func (p *SnapshotProvider) Scroll(ctx context.Context, criteria secondary.Criteria) secondary.RemoteIterator {
	return &snapshotIterator{provider: p, criteria: criteria}
}

type snapshotIterator struct {
	provider *SnapshotProvider
	criteria secondary.Criteria
	loaded   bool
	matched  []secondary.RemoteRecord
	pos      int
}

func (it *snapshotIterator) Next(ctx context.Context) (*secondary.RemoteRecord, bool, error) {
	if !it.loaded {
		matched, err := it.provider.FetchByCriteria(ctx, it.criteria)
		if err != nil {
			return nil, false, err
		}
		it.matched = matched
		it.loaded = true
	}
	if it.pos >= len(it.matched) {
		return nil, false, nil
	}
	rec := it.matched[it.pos]
	it.pos++
	return &rec, true, nil
}

func (p *SnapshotProvider) load() ([]secondary.RemoteRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.loadLocked(); err != nil {
		return nil, err
	}
	return p.records, nil
}

func (p *SnapshotProvider) loadLocked() error {
	if p.loaded {
		return nil
	}

	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		p.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", p.path, err)
	}

	var records []secondary.RemoteRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse snapshot %s: %w", p.path, err)
	}

	p.records = records
	p.loaded = true
	return nil
}

func (p *SnapshotProvider) saveLocked() error {
	data, err := json.MarshalIndent(p.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", p.path, err)
	}
	return nil
}

func matches(rec secondary.RemoteRecord, criteria secondary.Criteria) bool {
	for field, want := range criteria {
		if fieldValue(rec, field) != want {
			return false
		}
	}
	return true
}

func fieldValue(rec secondary.RemoteRecord, field string) string {
	switch field {
	case "name":
		return rec.Name
	case "email":
		return rec.Email
	case "first_name":
		return rec.FirstName
	case "last_name":
		return rec.LastName
	case "code":
		return rec.Code
	case "parent_ref":
		return rec.ParentRef
	default:
		return ""
	}
}

func applyFields(rec *secondary.RemoteRecord, fields map[string]string) {
	for field, value := range fields {
		switch field {
		case "name":
			rec.Name = value
		case "email":
			rec.Email = value
		case "first_name":
			rec.FirstName = value
		case "last_name":
			rec.LastName = value
		case "code":
			rec.Code = value
		case "parent_ref":
			rec.ParentRef = value
		}
	}
}
