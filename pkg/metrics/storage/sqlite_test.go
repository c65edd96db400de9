package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/metrics"
)

// createTempStore creates a temporary SQLite store for testing.
func createTempStore(t *testing.T) (*Store, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(&Config{
		Path:        dbPath,
		Driver:      "sqlite3",
		BusyTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store, dbPath
}

func sample(service string, uptime, requests, ts int64) metrics.Sample {
	return metrics.Sample{Service: service, Uptime: uptime, Requests: requests, Timestamp: ts}
}

func TestStore_Open(t *testing.T) {
	_, dbPath := createTempStore(t)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStore_AppendAndRowCount(t *testing.T) {
	store, _ := createTempStore(t)
	ctx := context.Background()

	if got := store.RowCount(ctx); got != 0 {
		t.Fatalf("RowCount() on empty store = %d, want 0", got)
	}

	if err := store.Append(ctx, sample("alpha", 120, 5, 100)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if err := store.Append(ctx, sample("beta", 60, 1, 101)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	if got := store.RowCount(ctx); got != 2 {
		t.Errorf("RowCount() = %d, want 2", got)
	}
}

func TestStore_SeriesSince(t *testing.T) {
	store, _ := createTempStore(t)
	ctx := context.Background()

	for i, ts := range []int64{10, 20, 30, 40} {
		if err := store.Append(ctx, sample("alpha", int64(i)*100, int64(i), ts)); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}
	// Another service's rows must not leak into alpha's series.
	if err := store.Append(ctx, sample("beta", 1, 1, 25)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	tests := []struct {
		name    string
		service string
		since   int64
		wantTS  []int64
	}{
		{"all from zero", "alpha", 0, []int64{10, 20, 30, 40}},
		{"since is inclusive", "alpha", 20, []int64{20, 30, 40}},
		{"future window empty", "alpha", 100, nil},
		{"unknown service empty", "gamma", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := store.SeriesSince(ctx, tt.service, tt.since)
			if len(points) != len(tt.wantTS) {
				t.Fatalf("SeriesSince() returned %d points, want %d", len(points), len(tt.wantTS))
			}
			for i, want := range tt.wantTS {
				if points[i].Timestamp != want {
					t.Errorf("points[%d].Timestamp = %d, want %d", i, points[i].Timestamp, want)
				}
			}
		})
	}
}

func TestStore_LatestPerService(t *testing.T) {
	store, _ := createTempStore(t)
	ctx := context.Background()

	// Out-of-order timestamps: the max timestamp wins, not the last
	// insertion.
	for _, ts := range []int64{10, 20, 15} {
		if err := store.Append(ctx, sample("alpha", ts*10, ts, ts)); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	latest := store.LatestPerService(ctx)
	entry, ok := latest["alpha"]
	if !ok {
		t.Fatal("LatestPerService() missing alpha")
	}
	if entry.Timestamp != 20 {
		t.Errorf("latest timestamp = %d, want 20", entry.Timestamp)
	}
	if entry.Uptime != 200 || entry.Requests != 20 {
		t.Errorf("latest entry = %+v, want uptime=200 requests=20", entry)
	}
}

func TestStore_LatestPerService_TieBrokenByInsertion(t *testing.T) {
	store, _ := createTempStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, sample("alpha", 100, 1, 50)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if err := store.Append(ctx, sample("alpha", 200, 2, 50)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	latest := store.LatestPerService(ctx)
	if got := latest["alpha"].Uptime; got != 200 {
		t.Errorf("tie at ts=50 resolved to uptime=%d, want 200 (latest insertion)", got)
	}
}

func TestStore_GlobalLatestTimestamp(t *testing.T) {
	store, _ := createTempStore(t)
	ctx := context.Background()

	if _, ok := store.GlobalLatestTimestamp(ctx); ok {
		t.Error("GlobalLatestTimestamp() on empty store reported a value")
	}

	for _, s := range []metrics.Sample{
		sample("alpha", 1, 1, 10),
		sample("beta", 1, 1, 99),
		sample("alpha", 1, 1, 50),
	} {
		if err := store.Append(ctx, s); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	ts, ok := store.GlobalLatestTimestamp(ctx)
	if !ok || ts != 99 {
		t.Errorf("GlobalLatestTimestamp() = %d, %v; want 99, true", ts, ok)
	}
}

func TestStore_DistinctServices(t *testing.T) {
	store, _ := createTempStore(t)
	ctx := context.Background()

	for _, s := range []metrics.Sample{
		sample("beta", 1, 1, 10),
		sample("alpha", 1, 1, 11),
		sample("beta", 2, 2, 12),
	} {
		if err := store.Append(ctx, s); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	services := store.DistinctServices(ctx)
	want := []string{"alpha", "beta"}
	if len(services) != len(want) {
		t.Fatalf("DistinctServices() = %v, want %v", services, want)
	}
	for i := range want {
		if services[i] != want[i] {
			t.Errorf("services[%d] = %q, want %q", i, services[i], want[i])
		}
	}
}

func TestStore_SchemaSelfHeal(t *testing.T) {
	store, _ := createTempStore(t)
	ctx := context.Background()

	// Drop the table out from under the store; the next operation must
	// re-ensure the schema and succeed on its single retry.
	if _, err := store.db.ExecContext(ctx, "DROP TABLE samples"); err != nil {
		t.Fatalf("dropping table: %v", err)
	}

	if err := store.Append(ctx, sample("alpha", 1, 1, 10)); err != nil {
		t.Fatalf("Append() after schema loss failed: %v", err)
	}
	if got := store.RowCount(ctx); got != 1 {
		t.Errorf("RowCount() after self-heal = %d, want 1", got)
	}
}

func TestStore_ReadsDegradeToEmpty(t *testing.T) {
	store, _ := createTempStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, sample("alpha", 1, 1, 10)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	// Close the database entirely: reads must degrade, not panic or
	// surface errors.
	store.db.Close()

	if got := store.DistinctServices(ctx); len(got) != 0 {
		t.Errorf("DistinctServices() after close = %v, want empty", got)
	}
	if got := store.SeriesSince(ctx, "alpha", 0); len(got) != 0 {
		t.Errorf("SeriesSince() after close = %v, want empty", got)
	}
	if got := store.LatestPerService(ctx); len(got) != 0 {
		t.Errorf("LatestPerService() after close = %v, want empty", got)
	}
	if got := store.RowCount(ctx); got != 0 {
		t.Errorf("RowCount() after close = %d, want 0", got)
	}
	if _, ok := store.GlobalLatestTimestamp(ctx); ok {
		t.Error("GlobalLatestTimestamp() after close reported a value")
	}
}

func TestStore_WriteFailureSurfaces(t *testing.T) {
	store, _ := createTempStore(t)
	ctx := context.Background()

	store.db.Close()

	err := store.Append(ctx, sample("alpha", 1, 1, 10))
	if err == nil {
		t.Fatal("Append() after close succeeded, want StorageError")
	}
	var storageErr *metrics.StorageError
	if !errors.As(err, &storageErr) {
		t.Errorf("Append() error = %T, want *metrics.StorageError", err)
	}
}

func TestStore_ModerncDriver(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "modernc.db")
	store, err := Open(&Config{Path: dbPath, Driver: "sqlite"})
	if err != nil {
		t.Fatalf("Open() with modernc driver failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Append(ctx, sample("alpha", 120, 5, 100)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if got := store.RowCount(ctx); got != 1 {
		t.Errorf("RowCount() = %d, want 1", got)
	}
}
