package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/echovale/cubederby/internal/derby/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestSaveGetBatchRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.August, 20, 10, 30, 0, 0, time.UTC)
	input := storage.BatchRecord{
		Seed:            42,
		Pads:            23,
		Runs:            1000,
		Failures:        0,
		Shuffle:         true,
		CamellyaTrigger: true,
		CreatedAt:       now,
		Rates: []storage.BatchRate{
			{Name: "Calcharo", Wins: 1200, Share: 0.55},
			{Name: "Phoebe", Wins: 982, Share: 0.45},
		},
	}

	id, err := store.SaveBatch(context.Background(), input)
	if err != nil {
		t.Fatalf("save batch: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero batch id")
	}

	got, err := store.GetBatch(context.Background(), id)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if got.ID != id {
		t.Fatalf("id = %d, want %d", got.ID, id)
	}
	if got.Seed != input.Seed || got.Pads != input.Pads || got.Runs != input.Runs {
		t.Fatalf("batch fields = %+v, want %+v", got, input)
	}
	if !got.Shuffle || !got.CamellyaTrigger {
		t.Fatalf("expected flags round-tripped, got %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, now)
	}
	if len(got.Rates) != 2 {
		t.Fatalf("expected 2 rates, got %+v", got.Rates)
	}
	if got.Rates[0].Name != "Calcharo" || got.Rates[0].Wins != 1200 {
		t.Fatalf("expected Calcharo first by share, got %+v", got.Rates)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)

	_, err := store.GetBatch(context.Background(), 404)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing batch error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestSaveBatchValidation(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)

	if _, err := store.SaveBatch(context.Background(), storage.BatchRecord{
		Runs:  0,
		Rates: []storage.BatchRate{{Name: "Zani"}},
	}); err == nil {
		t.Fatal("expected zero-run batch to be rejected")
	}
	if _, err := store.SaveBatch(context.Background(), storage.BatchRecord{
		Runs: 10,
	}); err == nil {
		t.Fatal("expected rateless batch to be rejected")
	}
}

func TestListBatchesNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	for _, seed := range []int64{1, 2, 3} {
		if _, err := store.SaveBatch(context.Background(), storage.BatchRecord{
			Seed:  seed,
			Pads:  23,
			Runs:  100,
			Rates: []storage.BatchRate{{Name: "Zani", Wins: 100, Share: 1}},
		}); err != nil {
			t.Fatalf("save batch %d: %v", seed, err)
		}
	}

	records, err := store.ListBatches(context.Background(), 2)
	if err != nil {
		t.Fatalf("list batches: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Seed != 3 || records[1].Seed != 2 {
		t.Fatalf("expected newest first, got seeds %d,%d", records[0].Seed, records[1].Seed)
	}
	if records[0].Rates != nil {
		t.Fatalf("expected list summaries without rates, got %+v", records[0].Rates)
	}
}

func TestListBatchesRequiresLimit(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)

	if _, err := store.ListBatches(context.Background(), 0); err == nil {
		t.Fatal("expected zero limit to be rejected")
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "derby.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
