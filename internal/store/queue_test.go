package store

import (
	"context"
	"testing"
	"time"
)

func TestEnqueue_Roundtrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	req := &QueuedRequest{
		ID:         "q1",
		Method:     "POST",
		Target:     "/scores",
		Payload:    []byte(`{"value":7}`),
		EnqueuedAt: now,
	}

	if err := st.Enqueue(ctx, req); err != nil {
		t.Fatalf("Enqueue() failed: %v", err)
	}

	pending, err := st.PendingRequests(ctx)
	if err != nil {
		t.Fatalf("PendingRequests() failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("len(pending) = %d, want 1", len(pending))
	}

	got := pending[0]
	if got.ID != "q1" {
		t.Errorf("ID = %q, want 'q1'", got.ID)
	}
	if got.Method != "POST" {
		t.Errorf("Method = %q, want 'POST'", got.Method)
	}
	if got.Target != "/scores" {
		t.Errorf("Target = %q, want '/scores'", got.Target)
	}
	if string(got.Payload) != `{"value":7}` {
		t.Errorf("Payload = %s, want {\"value\":7}", got.Payload)
	}
	if got.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0", got.RetryCount)
	}
	if !got.EnqueuedAt.Equal(now) {
		t.Errorf("EnqueuedAt = %v, want %v", got.EnqueuedAt, now)
	}
}

func TestEnqueue_NoPayload(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	req := &QueuedRequest{
		ID:         "q1",
		Method:     "DELETE",
		Target:     "/scores/abc",
		EnqueuedAt: time.Now(),
	}
	if err := st.Enqueue(ctx, req); err != nil {
		t.Fatalf("Enqueue() failed: %v", err)
	}

	pending, err := st.PendingRequests(ctx)
	if err != nil {
		t.Fatalf("PendingRequests() failed: %v", err)
	}
	if len(pending[0].Payload) != 0 {
		t.Errorf("Payload = %q, want empty", pending[0].Payload)
	}
}

func TestPendingRequests_FIFOOrder(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	// Inserted out of chronological order; q2 and q3 share a timestamp
	// and must come back in insertion order.
	entries := []*QueuedRequest{
		{ID: "q2", Method: "POST", Target: "/scores", EnqueuedAt: base.Add(time.Second)},
		{ID: "q3", Method: "POST", Target: "/scores", EnqueuedAt: base.Add(time.Second)},
		{ID: "q1", Method: "POST", Target: "/scores", EnqueuedAt: base},
	}
	for _, req := range entries {
		if err := st.Enqueue(ctx, req); err != nil {
			t.Fatalf("Enqueue(%s) failed: %v", req.ID, err)
		}
	}

	pending, err := st.PendingRequests(ctx)
	if err != nil {
		t.Fatalf("PendingRequests() failed: %v", err)
	}

	want := []string{"q1", "q2", "q3"}
	if len(pending) != len(want) {
		t.Fatalf("len(pending) = %d, want %d", len(pending), len(want))
	}
	for i, id := range want {
		if pending[i].ID != id {
			t.Errorf("pending[%d].ID = %q, want %q", i, pending[i].ID, id)
		}
	}
}

func TestIncrementRetry(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	req := &QueuedRequest{ID: "q1", Method: "POST", Target: "/scores", EnqueuedAt: time.Now()}
	if err := st.Enqueue(ctx, req); err != nil {
		t.Fatalf("Enqueue() failed: %v", err)
	}

	for want := 1; want <= 3; want++ {
		count, err := st.IncrementRetry(ctx, "q1")
		if err != nil {
			t.Fatalf("IncrementRetry() failed: %v", err)
		}
		if count != want {
			t.Errorf("retry count = %d, want %d", count, want)
		}
	}
}

func TestDeleteRequest(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	req := &QueuedRequest{ID: "q1", Method: "POST", Target: "/scores", EnqueuedAt: time.Now()}
	if err := st.Enqueue(ctx, req); err != nil {
		t.Fatalf("Enqueue() failed: %v", err)
	}

	if err := st.DeleteRequest(ctx, "q1"); err != nil {
		t.Fatalf("DeleteRequest() failed: %v", err)
	}

	depth, err := st.QueueDepth(ctx)
	if err != nil {
		t.Fatalf("QueueDepth() failed: %v", err)
	}
	if depth != 0 {
		t.Errorf("QueueDepth() = %d, want 0", depth)
	}

	// Deleting an absent entry is a no-op
	if err := st.DeleteRequest(ctx, "q1"); err != nil {
		t.Errorf("DeleteRequest() on absent entry failed: %v", err)
	}
}
