package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/example/crmsync/internal/core/linked"
	"github.com/example/crmsync/internal/ports/secondary"
)

var errBulkUpdate = errors.New("remote rejected update")

// memUserRepo is an in-memory UserRepository safe for concurrent use, so
// tests can hammer the projector from many goroutines.
type memUserRepo struct {
	mu    sync.Mutex
	users []*secondary.UserRecord

	createCalls int
	updateCalls int
}

var _ secondary.UserRepository = (*memUserRepo)(nil)

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*secondary.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByRemoteRef(ctx context.Context, ref string) ([]*secondary.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*secondary.UserRecord
	for _, u := range r.users {
		if u.RemoteRef == ref {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) ([]*secondary.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*secondary.UserRecord
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memUserRepo) Create(ctx context.Context, user *secondary.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users = append(r.users, &cp)
	r.createCalls++
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, user *secondary.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == user.ID {
			cp := *user
			r.users[i] = &cp
			r.updateCalls++
			return nil
		}
	}
	return nil
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// memSyncErrorRepo is an in-memory SyncErrorRepository.
type memSyncErrorRepo struct {
	mu   sync.Mutex
	recs []*secondary.SyncErrorRecord
}

var _ secondary.SyncErrorRepository = (*memSyncErrorRepo)(nil)

func (r *memSyncErrorRepo) Create(ctx context.Context, rec *secondary.SyncErrorRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.recs = append(r.recs, &cp)
	return nil
}

func (r *memSyncErrorRepo) GetByID(ctx context.Context, id string) (*secondary.SyncErrorRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.recs {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memSyncErrorRepo) FindUnresolved(ctx context.Context, entityType, entityID, strategy, messageHash string) (*secondary.SyncErrorRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.recs {
		if rec.EntityType == entityType && rec.EntityID == entityID &&
			rec.Strategy == strategy && rec.MessageHash == messageHash &&
			rec.ResolvedAt == nil {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memSyncErrorRepo) List(ctx context.Context, filters secondary.SyncErrorFilters) ([]*secondary.SyncErrorRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*secondary.SyncErrorRecord
	for i := len(r.recs) - 1; i >= 0; i-- {
		rec := r.recs[i]
		if filters.EntityType != "" && rec.EntityType != filters.EntityType {
			continue
		}
		if filters.EntityID != "" && rec.EntityID != filters.EntityID {
			continue
		}
		if filters.Strategy != "" && rec.Strategy != filters.Strategy {
			continue
		}
		if filters.Unresolved && rec.ResolvedAt != nil {
			continue
		}
		if filters.Archived != nil && *filters.Archived != (rec.ArchivedAt != nil) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
		if filters.Limit > 0 && len(out) >= filters.Limit {
			break
		}
	}
	return out, nil
}

func (r *memSyncErrorRepo) ForEachUnresolved(ctx context.Context, entityType, entityID, strategy string, fn func(*secondary.SyncErrorRecord) error) error {
	for _, rec := range r.snapshot() {
		if rec.EntityType == entityType && rec.EntityID == entityID &&
			rec.Strategy == strategy && rec.ResolvedAt == nil {
			if err := fn(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *memSyncErrorRepo) ForEachNotArchived(ctx context.Context, fn func(*secondary.SyncErrorRecord) error) error {
	for _, rec := range r.snapshot() {
		if rec.ArchivedAt == nil {
			if err := fn(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *memSyncErrorRepo) ForEachArchivedUnresolved(ctx context.Context, fn func(*secondary.SyncErrorRecord) error) error {
	for _, rec := range r.snapshot() {
		if rec.ArchivedAt != nil && rec.ResolvedAt == nil {
			if err := fn(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *memSyncErrorRepo) MarkResolved(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.recs {
		if rec.ID == id {
			t := at
			rec.ResolvedAt = &t
			return nil
		}
	}
	return nil
}

func (r *memSyncErrorRepo) MarkArchived(ctx context.Context, id string, at *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.recs {
		if rec.ID == id {
			rec.ArchivedAt = at
			return nil
		}
	}
	return nil
}

func (r *memSyncErrorRepo) MarkArchivedBatch(ctx context.Context, ids []string, at *time.Time) error {
	for _, id := range ids {
		if err := r.MarkArchived(ctx, id, at); err != nil {
			return err
		}
	}
	return nil
}

func (r *memSyncErrorRepo) snapshot() []*secondary.SyncErrorRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*secondary.SyncErrorRecord, len(r.recs))
	for i, rec := range r.recs {
		cp := *rec
		out[i] = &cp
	}
	return out
}

func (r *memSyncErrorRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recs)
}

// memLinkRepo is an in-memory LinkRepository with per-type error injection.
type memLinkRepo struct {
	rows     map[linked.EntityType][]secondary.LinkedRow
	clearErr map[linked.EntityType]error
}

var _ secondary.LinkRepository = (*memLinkRepo)(nil)

func (r *memLinkRepo) ForEachLinked(ctx context.Context, t linked.EntityType, fn func(secondary.LinkedRow) error) error {
	for _, row := range r.rows[t] {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (r *memLinkRepo) ClearRemoteRefs(ctx context.Context, t linked.EntityType) (int64, error) {
	if err := r.clearErr[t]; err != nil {
		return 0, err
	}
	n := int64(len(r.rows[t]))
	r.rows[t] = nil
	return n, nil
}

// fakeRemoteProvider serves a fixed record set and records every write.
type fakeRemoteProvider struct {
	records []secondary.RemoteRecord

	fetchByIDsCalls int
	fetchByIDsErr   error

	bulkUpdates   [][]secondary.UpdateInput
	bulkLevels    []secondary.ValidationLevel
	bulkFailForID string
}

var _ secondary.RemoteProvider = (*fakeRemoteProvider)(nil)

func (p *fakeRemoteProvider) FetchAll(ctx context.Context) ([]secondary.RemoteRecord, error) {
	return p.records, nil
}

func (p *fakeRemoteProvider) FetchByID(ctx context.Context, id string) (*secondary.RemoteRecord, error) {
	for _, rec := range p.records {
		if rec.ID == id {
			cp := rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (p *fakeRemoteProvider) FetchByCriteria(ctx context.Context, criteria secondary.Criteria) ([]secondary.RemoteRecord, error) {
	return p.records, nil
}

func (p *fakeRemoteProvider) FetchByIDs(ctx context.Context, ids []string) ([]secondary.RemoteRecord, error) {
	p.fetchByIDsCalls++
	if p.fetchByIDsErr != nil {
		return nil, p.fetchByIDsErr
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []secondary.RemoteRecord
	for _, rec := range p.records {
		if want[rec.ID] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (p *fakeRemoteProvider) BulkUpdate(ctx context.Context, inputs []secondary.UpdateInput, level secondary.ValidationLevel) error {
	for _, in := range inputs {
		if p.bulkFailForID != "" && in.ID == p.bulkFailForID {
			return errBulkUpdate
		}
	}
	p.bulkUpdates = append(p.bulkUpdates, inputs)
	p.bulkLevels = append(p.bulkLevels, level)
	for _, in := range inputs {
		for i := range p.records {
			if p.records[i].ID == in.ID {
				if name, ok := in.Fields["name"]; ok {
					p.records[i].Name = name
				}
			}
		}
	}
	return nil
}

func (p *fakeRemoteProvider) Scroll(ctx context.Context, criteria secondary.Criteria) secondary.RemoteIterator {
	return &sliceIterator{records: p.records}
}

type sliceIterator struct {
	records []secondary.RemoteRecord
	pos     int
}

func (it *sliceIterator) Next(ctx context.Context) (*secondary.RemoteRecord, bool, error) {
	if it.pos >= len(it.records) {
		return nil, false, nil
	}
	rec := it.records[it.pos]
	it.pos++
	return &rec, true, nil
}
