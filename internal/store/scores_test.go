package store

import (
	"context"
	"testing"
	"time"
)

func TestUpsertScore_Insert(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	score := &CachedScore{
		SubmissionID: "sub1",
		CriterionID:  "crit1",
		SeatID:       "seat1",
		Phase:        "appearance",
		ScoreValue:   8,
		Comment:      "clean finish",
		SyncStatus:   SyncPending,
		UpdatedAt:    time.Now(),
	}
	if err := st.UpsertScore(ctx, score); err != nil {
		t.Fatalf("UpsertScore() failed: %v", err)
	}

	got, err := st.GetScore(ctx, "sub1", "crit1", "seat1")
	if err != nil {
		t.Fatalf("GetScore() failed: %v", err)
	}
	if got.ScoreValue != 8 {
		t.Errorf("ScoreValue = %v, want 8", got.ScoreValue)
	}
	if got.Comment != "clean finish" {
		t.Errorf("Comment = %q, want 'clean finish'", got.Comment)
	}
	if got.SyncStatus != SyncPending {
		t.Errorf("SyncStatus = %q, want pending", got.SyncStatus)
	}
}

func TestUpsertScore_SameIdentityOverwrites(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	first := &CachedScore{
		SubmissionID: "sub1", CriterionID: "crit1", SeatID: "seat1",
		Phase: "appearance", ScoreValue: 8,
		SyncStatus: SyncPending, UpdatedAt: time.Now(),
	}
	if err := st.UpsertScore(ctx, first); err != nil {
		t.Fatalf("First UpsertScore() failed: %v", err)
	}

	second := &CachedScore{
		SubmissionID: "sub1", CriterionID: "crit1", SeatID: "seat1",
		Phase: "appearance", ScoreValue: 9,
		SyncStatus: SyncPending, UpdatedAt: time.Now().Add(time.Second),
	}
	if err := st.UpsertScore(ctx, second); err != nil {
		t.Fatalf("Second UpsertScore() failed: %v", err)
	}

	// Exactly one row, latest value wins
	scores, err := st.ScoresBySubmission(ctx, "sub1")
	if err != nil {
		t.Fatalf("ScoresBySubmission() failed: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("len(scores) = %d, want 1", len(scores))
	}
	if scores[0].ScoreValue != 9 {
		t.Errorf("ScoreValue = %v, want 9", scores[0].ScoreValue)
	}
}

func TestGetScore_NotFound(t *testing.T) {
	st := testStore(t)

	_, err := st.GetScore(context.Background(), "nope", "nope", "nope")
	if err != ErrNotFound {
		t.Errorf("GetScore() = %v, want ErrNotFound", err)
	}
}

func TestScoresByStatus(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	now := time.Now()
	scores := []*CachedScore{
		{SubmissionID: "sub1", CriterionID: "c1", SeatID: "s1", Phase: "taste", ScoreValue: 5, SyncStatus: SyncPending, UpdatedAt: now},
		{SubmissionID: "sub1", CriterionID: "c2", SeatID: "s1", Phase: "taste", ScoreValue: 6, SyncStatus: SyncSynced, UpdatedAt: now},
		{SubmissionID: "sub2", CriterionID: "c1", SeatID: "s1", Phase: "taste", ScoreValue: 7, SyncStatus: SyncPending, UpdatedAt: now.Add(time.Second)},
	}
	for _, s := range scores {
		if err := st.UpsertScore(ctx, s); err != nil {
			t.Fatalf("UpsertScore() failed: %v", err)
		}
	}

	pending, err := st.ScoresByStatus(ctx, SyncPending)
	if err != nil {
		t.Fatalf("ScoresByStatus() failed: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("len(pending) = %d, want 2", len(pending))
	}

	count, err := st.PendingScoreCount(ctx)
	if err != nil {
		t.Fatalf("PendingScoreCount() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("PendingScoreCount() = %d, want 2", count)
	}
}

func TestMarkScoreStatus(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	score := &CachedScore{
		SubmissionID: "sub1", CriterionID: "c1", SeatID: "s1",
		Phase: "taste", ScoreValue: 5,
		SyncStatus: SyncPending, UpdatedAt: time.Now(),
	}
	if err := st.UpsertScore(ctx, score); err != nil {
		t.Fatalf("UpsertScore() failed: %v", err)
	}

	if err := st.MarkScoreStatus(ctx, "sub1", "c1", "s1", SyncSynced); err != nil {
		t.Fatalf("MarkScoreStatus() failed: %v", err)
	}

	got, err := st.GetScore(ctx, "sub1", "c1", "s1")
	if err != nil {
		t.Fatalf("GetScore() failed: %v", err)
	}
	if got.SyncStatus != SyncSynced {
		t.Errorf("SyncStatus = %q, want synced", got.SyncStatus)
	}
}

func TestScoreKey_Deterministic(t *testing.T) {
	a := ScoreKey("sub1", "crit1", "seat1")
	b := ScoreKey("sub1", "crit1", "seat1")
	if a != b {
		t.Errorf("ScoreKey not deterministic: %q != %q", a, b)
	}
	if a == ScoreKey("sub1", "crit1", "seat2") {
		t.Error("ScoreKey collides across seats")
	}
}
