package counters

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const fileCounters = `{"success": true, "data": [
	{"counter_id": 1, "counter_bus_id": "V1", "counter_com_id": "A", "counter_created_at": "2024-06-01 08:00:00"},
	{"counter_id": 2, "counter_bus_id": "V2", "counter_com_id": "A", "counter_created_at": "2024-06-03 18:00:00"},
	{"counter_id": 3, "counter_bus_id": "V3", "counter_com_id": "B"}
]}`

func writeCounters(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write counters: %v", err)
	}
}

func TestFileRepository_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")
	writeCounters(t, path, fileCounters)

	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}
	defer repo.Close()

	ctx := context.Background()

	all, err := repo.FetchAll(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("FetchAll() = %d records, %v", len(all), err)
	}

	day, err := repo.FetchByDate(ctx, "2024-06-01")
	if err != nil || len(day) != 1 || day[0].ID != 1 {
		t.Errorf("FetchByDate() = %+v, %v", day, err)
	}

	span, err := repo.FetchByDateRange(ctx, "2024-06-01", "2024-06-03")
	if err != nil || len(span) != 2 {
		t.Errorf("FetchByDateRange() = %d records, %v", len(span), err)
	}

	if _, err := repo.FetchByDateRange(ctx, "June", "2024-06-03"); err == nil {
		t.Error("FetchByDateRange(bad date) error = nil")
	}
}

func TestFileRepository_MissingFile(t *testing.T) {
	if _, err := NewFileRepository(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("NewFileRepository(missing) error = nil")
	}
}

func TestFileRepository_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")
	writeCounters(t, path, `[]`)

	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}
	defer repo.Close()

	writeCounters(t, path, fileCounters)

	select {
	case ev := <-repo.Events():
		if ev.Type != EventSourceChanged {
			t.Fatalf("event = %+v, want EventSourceChanged", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change event")
	}

	all, _ := repo.FetchAll(context.Background())
	if len(all) != 3 {
		t.Errorf("records after reload = %d, want 3", len(all))
	}
}

func TestFileRepository_CloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")
	writeCounters(t, path, `[]`)

	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestDecode(t *testing.T) {
	if _, err := Decode([]byte(`"nope"`)); err == nil {
		t.Error("Decode(string) error = nil")
	}
	records, err := Decode([]byte(`{"data": []}`))
	if err != nil || len(records) != 0 {
		t.Errorf("Decode(empty envelope) = %v, %v", records, err)
	}
}
