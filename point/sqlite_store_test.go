package point

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/viant/nnview/engine"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	// Register functions before any connection work.
	if err := engine.RegisterFunctions(); err != nil {
		t.Fatalf("engine.RegisterFunctions failed: %v", err)
	}
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("engine.Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return store
}

// TestSQLiteStore_SaveLoadRemove exercises saving a dataset, reading it back
// in insertion order, listing datasets, and removing one.
func TestSQLiteStore_SaveLoadRemove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	set, err := NewSet([]Point{
		{ID: 2, X: 0.5, Y: -1, Label: 1, ImageRef: "c.png"},
		{ID: 0, X: math.NaN(), Y: 3, Label: 0, ImageRef: "a.png"},
		{ID: 1, X: 4, Y: math.Inf(1), Label: 7, ImageRef: "b.png"},
	})
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}
	if err := store.SavePoints(ctx, "ds1", set); err != nil {
		t.Fatalf("SavePoints failed: %v", err)
	}
	if err := store.SavePoints(ctx, "ds2", set); err != nil {
		t.Fatalf("SavePoints(ds2) failed: %v", err)
	}

	got, err := store.LoadPoints(ctx, "ds1")
	if err != nil {
		t.Fatalf("LoadPoints failed: %v", err)
	}
	if got.Len() != set.Len() {
		t.Fatalf("LoadPoints returned %d points, want %d", got.Len(), set.Len())
	}
	if got.At(0).ID != 2 || got.At(1).ID != 0 || got.At(2).ID != 1 {
		t.Errorf("LoadPoints order = [%d, %d, %d], want [2, 0, 1]", got.At(0).ID, got.At(1).ID, got.At(2).ID)
	}
	if p := got.At(1); !math.IsNaN(p.X) || p.ImageRef != "a.png" {
		t.Errorf("LoadPoints[1] = %+v, want NaN x and a.png", p)
	}
	if p := got.At(2); !math.IsInf(p.Y, 1) || p.Label != 7 {
		t.Errorf("LoadPoints[2] = %+v, want +Inf y and label 7", p)
	}

	ids, err := store.Datasets(ctx)
	if err != nil {
		t.Fatalf("Datasets failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "ds1" || ids[1] != "ds2" {
		t.Fatalf("Datasets = %v, want [ds1 ds2]", ids)
	}

	if err := store.Remove(ctx, "ds1"); err != nil {
		t.Fatalf("Remove(ds1) failed: %v", err)
	}
	if _, err := store.LoadPoints(ctx, "ds1"); err == nil {
		t.Fatalf("expected ds1 to be removed")
	}
}

// TestSQLiteStore_Nearest validates that ranking inside SQLite with nn_l2
// yields the ordered, self-excluded neighbor list.
func TestSQLiteStore_Nearest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	set, err := NewSet([]Point{
		{ID: 0, X: 0, Y: 0}, {ID: 1, X: 1, Y: 0}, {ID: 2, X: 0, Y: 1}, {ID: 3, X: 5, Y: 5},
	})
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}
	if err := store.SavePoints(ctx, "grid", set); err != nil {
		t.Fatalf("SavePoints failed: %v", err)
	}

	out, err := store.Nearest(ctx, "grid", 0, 2)
	if err != nil {
		t.Fatalf("Nearest failed: %v", err)
	}
	if len(out) != 2 || out[0] != (Neighbor{ID: 1, Distance: 1}) || out[1] != (Neighbor{ID: 2, Distance: 1}) {
		t.Fatalf("Nearest = %v, want [{1 1} {2 1}]", out)
	}

	out, err = store.Nearest(ctx, "grid", 3, 10)
	if err != nil {
		t.Fatalf("Nearest(k=10) failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("Nearest(k=10) returned %d neighbors, want 3", len(out))
	}

	if out, err := store.Nearest(ctx, "grid", 0, 0); err != nil || len(out) != 0 {
		t.Fatalf("Nearest(k=0) = %v, %v; want empty, nil", out, err)
	}
	if _, err := store.Nearest(ctx, "grid", 42, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Nearest(unknown) = %v, want ErrNotFound", err)
	}
	if _, err := store.Nearest(ctx, "grid", 0, -1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Nearest(k=-1) = %v, want ErrInvalidArgument", err)
	}
}

func TestSQLiteStore_NearestAnomaly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	set, err := NewSet([]Point{{ID: 0, X: 0, Y: 0}, {ID: 1, X: math.NaN(), Y: 0}, {ID: 2, X: 1, Y: 1}})
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}
	if err := store.SavePoints(ctx, "bad", set); err != nil {
		t.Fatalf("SavePoints failed: %v", err)
	}
	_, err = store.Nearest(ctx, "bad", 0, 1)
	anomaly, ok := err.(*AnomalyError)
	if !ok || anomaly.ID != 1 {
		t.Fatalf("Nearest = %v, want anomaly for id 1", err)
	}

	_, err = store.Nearest(ctx, "bad", 1, 1)
	anomaly, ok = err.(*AnomalyError)
	if !ok || anomaly.ID != 1 {
		t.Fatalf("Nearest(NaN query) = %v, want anomaly for id 1", err)
	}
}
