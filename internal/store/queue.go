package store

import (
	"context"
	"database/sql"
	"time"
)

// QueuedRequest is a deferred mutation awaiting delivery to the scoring
// service. An entry exists in the queue if and only if its effect has not
// been confirmed by the server and it has not been abandoned after
// exhausting retries.
type QueuedRequest struct {
	// ID is a locally generated identifier, stable for the life of the entry.
	ID string

	// Method is the HTTP verb: POST, PUT, PATCH, or DELETE.
	Method string

	// Target is the fully qualified resource path, e.g. "/scores".
	Target string

	// Payload is the request body as canonical JSON. Empty for deletes.
	// The same bytes are sent on every retry.
	Payload []byte

	// EnqueuedAt orders the drain (oldest first).
	EnqueuedAt time.Time

	// RetryCount is incremented on every failed delivery attempt.
	RetryCount int
}

// Enqueue durably stores a deferred mutation.
//
// Returns once the row is written. A returned error is always a
// *StorageError: failing to enqueue means the write was lost, so callers
// must surface it rather than report "queued".
func (st *Store) Enqueue(ctx context.Context, req *QueuedRequest) error {
	var payload any
	if len(req.Payload) > 0 {
		payload = string(req.Payload)
	}

	_, err := st.conn.ExecContext(ctx, `
		INSERT INTO offline_queue (id, method, target, payload, enqueued_at, retry_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.ID, req.Method, req.Target, payload,
		req.EnqueuedAt.UTC().Format(timeFormat), req.RetryCount)
	if err != nil {
		return storageErr("enqueue request", err)
	}

	return nil
}

// PendingRequests returns all queued entries ordered by enqueue time,
// oldest first. Ties are broken by insertion order.
func (st *Store) PendingRequests(ctx context.Context) ([]*QueuedRequest, error) {
	rows, err := st.conn.QueryContext(ctx, `
		SELECT id, method, target, payload, enqueued_at, retry_count
		FROM offline_queue
		ORDER BY enqueued_at, rowid`)
	if err != nil {
		return nil, storageErr("list pending requests", err)
	}
	defer rows.Close()

	var reqs []*QueuedRequest
	for rows.Next() {
		var (
			req        QueuedRequest
			payload    sql.NullString
			enqueuedAt string
		)
		if err := rows.Scan(&req.ID, &req.Method, &req.Target, &payload, &enqueuedAt, &req.RetryCount); err != nil {
			return nil, storageErr("scan queued request", err)
		}
		if payload.Valid {
			req.Payload = []byte(payload.String)
		}
		if t, err := time.Parse(timeFormat, enqueuedAt); err == nil {
			req.EnqueuedAt = t
		}
		reqs = append(reqs, &req)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate queued requests", err)
	}

	return reqs, nil
}

// DeleteRequest removes a queued entry. No-op if the entry is absent.
func (st *Store) DeleteRequest(ctx context.Context, id string) error {
	if _, err := st.conn.ExecContext(ctx, `DELETE FROM offline_queue WHERE id = ?`, id); err != nil {
		return storageErr("delete queued request", err)
	}
	return nil
}

// IncrementRetry bumps retry_count for a queued entry in place and
// returns the new count.
func (st *Store) IncrementRetry(ctx context.Context, id string) (int, error) {
	if _, err := st.conn.ExecContext(ctx, `
		UPDATE offline_queue SET retry_count = retry_count + 1 WHERE id = ?`, id); err != nil {
		return 0, storageErr("increment retry count", err)
	}

	var count int
	err := st.conn.QueryRowContext(ctx, `
		SELECT retry_count FROM offline_queue WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return 0, storageErr("read retry count", err)
	}

	return count, nil
}

// QueueDepth returns the number of entries awaiting delivery.
func (st *Store) QueueDepth(ctx context.Context) (int, error) {
	var n int
	err := st.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM offline_queue`).Scan(&n)
	if err != nil {
		return 0, storageErr("count queue", err)
	}
	return n, nil
}

// ClearQueue empties the offline queue. Used on explicit reset only.
func (st *Store) ClearQueue(ctx context.Context) error {
	if _, err := st.conn.ExecContext(ctx, `DELETE FROM offline_queue`); err != nil {
		return storageErr("clear queue", err)
	}
	return nil
}
