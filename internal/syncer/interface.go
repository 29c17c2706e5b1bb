package syncer

import (
	"context"
	"errors"

	"github.com/scorepadhq/scorepad/internal/store"
)

// Transport delivers one stored queue entry to the scoring service.
// Implemented by *api.Client.
type Transport interface {
	// Deliver replays the entry's method/target/payload. A nil return
	// means the server confirmed the write. Errors are classified by
	// the api package (*api.NetworkError, *api.HTTPError).
	Deliver(ctx context.Context, req *store.QueuedRequest) error
}

// Listener observes per-entry drain outcomes. The judging service uses
// this to flip cached score rows; the dashboard uses it for broadcasts.
type Listener interface {
	// RequestDelivered is called after the entry was confirmed and
	// removed from the queue.
	RequestDelivered(req *store.QueuedRequest)

	// RequestAbandoned is called after the entry exhausted its retries
	// and was removed from the queue. The write is lost.
	RequestAbandoned(req *store.QueuedRequest, err error)
}

// Result is the outcome of one delivery attempt during a drain pass.
// Results are returned to the caller for UI feedback, never persisted.
type Result struct {
	// RequestID is the queue entry id.
	RequestID string

	// Method and Target describe the replayed call.
	Method string
	Target string

	// Success means the server confirmed the write and the entry was
	// removed.
	Success bool

	// Terminal means the entry was abandoned after exhausting retries
	// and removed. Success and Terminal are mutually exclusive; a
	// result with neither set will be retried on a future pass.
	Terminal bool

	// RetryCount is the entry's retry count after this attempt.
	RetryCount int

	// Err carries the delivery failure, nil on success.
	Err error
}

// ErrSyncInProgress is returned when a drain trigger is coalesced
// because another drain is already walking the queue.
var ErrSyncInProgress = errors.New("sync already in progress")
