package store

import (
	"context"
	"path/filepath"
	"testing"
)

// testStore opens an initialized store in a temp directory.
func testStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.InitSchema(); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}

	return st
}

func TestOpen_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	if st.Path() != path {
		t.Errorf("Path() = %q, want %q", st.Path(), path)
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	st := testStore(t)

	if err := st.InitSchema(); err != nil {
		t.Errorf("Second InitSchema() failed: %v", err)
	}

	tables := []string{"offline_queue", "cached_scores", "cached_submissions", "app_state"}
	for _, table := range tables {
		var count int
		query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
		if err := st.conn.QueryRow(query, table).Scan(&count); err != nil {
			t.Fatalf("Failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("Table %s does not exist", table)
		}
	}
}

func TestReopen_KeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := st.InitSchema(); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}

	ctx := context.Background()
	if err := st.SetState(ctx, "k", "v"); err != nil {
		t.Fatalf("SetState() failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Survives a process restart
	st, err = Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer st.Close()
	if err := st.InitSchema(); err != nil {
		t.Fatalf("InitSchema() after reopen failed: %v", err)
	}

	value, err := st.GetState(ctx, "k")
	if err != nil {
		t.Fatalf("GetState() failed: %v", err)
	}
	if value != "v" {
		t.Errorf("value = %q, want 'v'", value)
	}
}

func TestClearAll(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.SetState(ctx, "k", "v"); err != nil {
		t.Fatalf("SetState() failed: %v", err)
	}
	if err := st.Enqueue(ctx, &QueuedRequest{ID: "q1", Method: "POST", Target: "/scores"}); err != nil {
		t.Fatalf("Enqueue() failed: %v", err)
	}

	if err := st.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() failed: %v", err)
	}

	if _, err := st.GetState(ctx, "k"); err != ErrNotFound {
		t.Errorf("GetState() after clear = %v, want ErrNotFound", err)
	}
	depth, err := st.QueueDepth(ctx)
	if err != nil {
		t.Fatalf("QueueDepth() failed: %v", err)
	}
	if depth != 0 {
		t.Errorf("QueueDepth() = %d, want 0", depth)
	}
}
