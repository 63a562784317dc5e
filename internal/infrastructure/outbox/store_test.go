package outbox

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "outbox.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnqueueDrainOrder(t *testing.T) {
	store := openTestStore(t)

	base := time.Now()
	for i, op := range []string{"create", "update", "delete"} {
		err := store.Enqueue(Item{
			TaskID:    "task-1",
			Owner:     "a@x.com",
			Operation: op,
			Payload:   json.RawMessage(`{}`),
			Timestamp: base.Add(time.Duration(i) * time.Millisecond),
		})
		if err != nil {
			t.Fatalf("enqueue %s: %v", op, err)
		}
	}

	items, err := store.GetBatch(10)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	for i, want := range []string{"create", "update", "delete"} {
		if items[i].Operation != want {
			t.Fatalf("position %d: %q, want %q", i, items[i].Operation, want)
		}
	}
}

func TestRemoveAndSize(t *testing.T) {
	store := openTestStore(t)

	if err := store.Enqueue(Item{TaskID: "t", Operation: "update"}); err != nil {
		t.Fatal(err)
	}
	size, err := store.Size()
	if err != nil || size != 1 {
		t.Fatalf("size = %d (%v), want 1", size, err)
	}

	items, _ := store.GetBatch(1)
	if err := store.Remove(items[0]); err != nil {
		t.Fatalf("remove: %v", err)
	}
	size, _ = store.Size()
	if size != 0 {
		t.Fatalf("size after remove = %d, want 0", size)
	}
}

func TestRequeueMovesToBack(t *testing.T) {
	store := openTestStore(t)

	if err := store.Enqueue(Item{TaskID: "first", Operation: "update", Timestamp: time.Now().Add(-time.Hour)}); err != nil {
		t.Fatal(err)
	}
	items, _ := store.GetBatch(1)

	if err := store.Remove(items[0]); err != nil {
		t.Fatal(err)
	}
	if err := store.Requeue(items[0]); err != nil {
		t.Fatal(err)
	}
	if err := store.Enqueue(Item{TaskID: "second", Operation: "update", Timestamp: time.Now().Add(-30 * time.Minute)}); err != nil {
		t.Fatal(err)
	}

	items, _ = store.GetBatch(2)
	if len(items) != 2 || items[0].TaskID != "second" || items[1].TaskID != "first" {
		t.Fatalf("requeue did not move item to the back: %+v", items)
	}
}
