package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SyncStatus tracks whether a cached score has reached the server.
type SyncStatus string

const (
	// SyncPending means the score is recorded locally and either in
	// flight or sitting in the offline queue.
	SyncPending SyncStatus = "pending"

	// SyncSynced means the server confirmed the score.
	SyncSynced SyncStatus = "synced"

	// SyncFailed means the server rejected the score or delivery was
	// abandoned after exhausting retries.
	SyncFailed SyncStatus = "failed"
)

// CachedScore is the local shadow of one scoring decision. At most one
// row exists per (submission, criterion, seat); a resubmission of the
// same identity overwrites the row.
type CachedScore struct {
	SubmissionID string
	CriterionID  string
	SeatID       string
	Phase        string
	ScoreValue   float64
	Comment      string
	SyncStatus   SyncStatus
	UpdatedAt    time.Time
}

// Key returns the deterministic composite primary key for the score.
func (s *CachedScore) Key() string {
	return ScoreKey(s.SubmissionID, s.CriterionID, s.SeatID)
}

// ScoreKey builds the composite key for a (submission, criterion, seat)
// triple. The key is recomputed from the identity, never randomly
// generated, which is what makes score upserts naturally idempotent.
func ScoreKey(submissionID, criterionID, seatID string) string {
	return fmt.Sprintf("%s|%s|%s", submissionID, criterionID, seatID)
}

// ErrNotFound is returned by point lookups when no record exists.
// Absence is not a storage failure.
var ErrNotFound = errors.New("record not found")

// UpsertScore inserts or replaces the cached score for its identity.
func (st *Store) UpsertScore(ctx context.Context, score *CachedScore) error {
	var comment any
	if score.Comment != "" {
		comment = score.Comment
	}

	_, err := st.conn.ExecContext(ctx, `
		INSERT INTO cached_scores (
			key, submission_id, criterion_id, seat_id,
			phase, score_value, comment, sync_status, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			phase = excluded.phase,
			score_value = excluded.score_value,
			comment = excluded.comment,
			sync_status = excluded.sync_status,
			updated_at = excluded.updated_at`,
		score.Key(), score.SubmissionID, score.CriterionID, score.SeatID,
		score.Phase, score.ScoreValue, comment, string(score.SyncStatus),
		score.UpdatedAt.UTC().Format(timeFormat))
	if err != nil {
		return storageErr("upsert score", err)
	}

	return nil
}

// GetScore returns the cached score for an identity, or ErrNotFound.
func (st *Store) GetScore(ctx context.Context, submissionID, criterionID, seatID string) (*CachedScore, error) {
	row := st.conn.QueryRowContext(ctx, `
		SELECT submission_id, criterion_id, seat_id, phase, score_value,
		       comment, sync_status, updated_at
		FROM cached_scores WHERE key = ?`,
		ScoreKey(submissionID, criterionID, seatID))

	score, err := scanScore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get score", err)
	}

	return score, nil
}

// ScoresBySubmission returns all cached scores for a submission.
func (st *Store) ScoresBySubmission(ctx context.Context, submissionID string) ([]*CachedScore, error) {
	return st.queryScores(ctx, `
		SELECT submission_id, criterion_id, seat_id, phase, score_value,
		       comment, sync_status, updated_at
		FROM cached_scores WHERE submission_id = ?
		ORDER BY updated_at`, submissionID)
}

// ScoresByStatus returns all cached scores in a given sync status,
// in ascending update order.
func (st *Store) ScoresByStatus(ctx context.Context, status SyncStatus) ([]*CachedScore, error) {
	return st.queryScores(ctx, `
		SELECT submission_id, criterion_id, seat_id, phase, score_value,
		       comment, sync_status, updated_at
		FROM cached_scores WHERE sync_status = ?
		ORDER BY updated_at`, string(status))
}

// MarkScoreStatus updates the sync status of a cached score in place.
// No-op if the row is absent (e.g. cache was cleared mid-drain).
func (st *Store) MarkScoreStatus(ctx context.Context, submissionID, criterionID, seatID string, status SyncStatus) error {
	_, err := st.conn.ExecContext(ctx, `
		UPDATE cached_scores SET sync_status = ? WHERE key = ?`,
		string(status), ScoreKey(submissionID, criterionID, seatID))
	if err != nil {
		return storageErr("mark score status", err)
	}
	return nil
}

// PendingScoreCount returns how many cached scores are not yet synced.
func (st *Store) PendingScoreCount(ctx context.Context) (int, error) {
	var n int
	err := st.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM cached_scores WHERE sync_status = ?`,
		string(SyncPending)).Scan(&n)
	if err != nil {
		return 0, storageErr("count pending scores", err)
	}
	return n, nil
}

// ClearScores empties the score cache. Used on logout/reset only.
func (st *Store) ClearScores(ctx context.Context) error {
	if _, err := st.conn.ExecContext(ctx, `DELETE FROM cached_scores`); err != nil {
		return storageErr("clear scores", err)
	}
	return nil
}

func (st *Store) queryScores(ctx context.Context, query string, args ...any) ([]*CachedScore, error) {
	rows, err := st.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query scores", err)
	}
	defer rows.Close()

	var scores []*CachedScore
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, storageErr("scan score", err)
		}
		scores = append(scores, score)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate scores", err)
	}

	return scores, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScore(row rowScanner) (*CachedScore, error) {
	var (
		score     CachedScore
		comment   sql.NullString
		status    string
		updatedAt string
	)
	err := row.Scan(&score.SubmissionID, &score.CriterionID, &score.SeatID,
		&score.Phase, &score.ScoreValue, &comment, &status, &updatedAt)
	if err != nil {
		return nil, err
	}

	score.Comment = comment.String
	score.SyncStatus = SyncStatus(status)
	if t, err := time.Parse(timeFormat, updatedAt); err == nil {
		score.UpdatedAt = t
	}

	return &score, nil
}
