package remote

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/crmsync/internal/ports/secondary"
)

func writeSnapshot(t *testing.T, records []secondary.RemoteRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "companies.json")
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("failed to marshal snapshot: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}
	return path
}

func TestSnapshotProvider_MissingFileIsEmpty(t *testing.T) {
	p := NewSnapshotProvider(filepath.Join(t.TempDir(), "absent.json"))

	records, err := p.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected an empty collection, got %d records", len(records))
	}
}

func TestSnapshotProvider_FetchByID(t *testing.T) {
	path := writeSnapshot(t, []secondary.RemoteRecord{
		{ID: "A1", Name: "Acme"},
		{ID: "A2", Name: "Globex"},
	})
	p := NewSnapshotProvider(path)
	ctx := context.Background()

	rec, err := p.FetchByID(ctx, "A2")
	if err != nil {
		t.Fatalf("FetchByID failed: %v", err)
	}
	if rec == nil || rec.Name != "Globex" {
		t.Errorf("unexpected record %+v", rec)
	}

	rec, err = p.FetchByID(ctx, "missing")
	if err != nil {
		t.Fatalf("FetchByID failed: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil for an unknown id, got %+v", rec)
	}
}

func TestSnapshotProvider_FetchByIDsSkipsUnknown(t *testing.T) {
	path := writeSnapshot(t, []secondary.RemoteRecord{
		{ID: "A1"}, {ID: "A2"}, {ID: "A3"},
	})
	p := NewSnapshotProvider(path)

	records, err := p.FetchByIDs(context.Background(), []string{"A1", "A3", "missing"})
	if err != nil {
		t.Fatalf("FetchByIDs failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestSnapshotProvider_FetchByCriteria(t *testing.T) {
	path := writeSnapshot(t, []secondary.RemoteRecord{
		{ID: "A1", Name: "Acme", ParentRef: "G1"},
		{ID: "A2", Name: "Acme", ParentRef: "G2"},
		{ID: "A3", Name: "Globex", ParentRef: "G1"},
	})
	p := NewSnapshotProvider(path)

	records, err := p.FetchByCriteria(context.Background(), secondary.Criteria{
		"name":       "Acme",
		"parent_ref": "G1",
	})
	if err != nil {
		t.Fatalf("FetchByCriteria failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "A1" {
		t.Errorf("unexpected criteria result %+v", records)
	}
}

func TestSnapshotProvider_BulkUpdatePersists(t *testing.T) {
	path := writeSnapshot(t, []secondary.RemoteRecord{{ID: "A1", Name: "Acme"}})
	p := NewSnapshotProvider(path)
	ctx := context.Background()

	err := p.BulkUpdate(ctx, []secondary.UpdateInput{
		{ID: "A1", Fields: map[string]string{"name": "Acme Corp"}},
	}, secondary.ValidationNone)
	if err != nil {
		t.Fatalf("BulkUpdate failed: %v", err)
	}

	// A fresh provider must see the rewritten file.
	rec, err := NewSnapshotProvider(path).FetchByID(ctx, "A1")
	if err != nil {
		t.Fatalf("FetchByID failed: %v", err)
	}
	if rec.Name != "Acme Corp" {
		t.Errorf("expected the update persisted, got %q", rec.Name)
	}
}

func TestSnapshotProvider_BulkUpdateUnknownIDFails(t *testing.T) {
	path := writeSnapshot(t, []secondary.RemoteRecord{{ID: "A1"}})
	p := NewSnapshotProvider(path)

	err := p.BulkUpdate(context.Background(), []secondary.UpdateInput{
		{ID: "missing", Fields: map[string]string{"name": "x"}},
	}, secondary.ValidationFull)
	if err == nil {
		t.Error("expected an error updating an unknown record")
	}
}

func TestSnapshotProvider_Scroll(t *testing.T) {
	path := writeSnapshot(t, []secondary.RemoteRecord{
		{ID: "A1", Name: "Acme"},
		{ID: "A2", Name: "Acme"},
		{ID: "A3", Name: "Globex"},
	})
	p := NewSnapshotProvider(path)
	ctx := context.Background()

	it := p.Scroll(ctx, secondary.Criteria{"name": "Acme"})
	var ids []string
	for {
		rec, ok, err := it.Next(ctx)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if !ok {
			break
		}
		ids = append(ids, rec.ID)
	}

	if len(ids) != 2 || ids[0] != "A1" || ids[1] != "A2" {
		t.Errorf("unexpected scroll result %v", ids)
	}
}

func TestSnapshotProvider_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := NewSnapshotProvider(path).FetchAll(context.Background()); err == nil {
		t.Error("expected an error for a malformed snapshot")
	}
}
