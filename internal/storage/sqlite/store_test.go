package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "falcon.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testBase = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestOpenCreatesSchema(t *testing.T) {
	store := newTestStore(t)

	tables := []string{"conversations", "long_term_memory", "fact_tags", "user_context", "task_history"}
	for _, table := range tables {
		var name string
		err := store.db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "falcon.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	store.Close()

	store, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	store.Close()
}
