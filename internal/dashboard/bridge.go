package dashboard

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/scorepadhq/scorepad/internal/connectivity"
	"github.com/scorepadhq/scorepad/internal/store"
	"github.com/scorepadhq/scorepad/internal/syncer"
)

// QueueDepther reports the current offline backlog depth. Satisfied by
// *store.Store.
type QueueDepther interface {
	QueueDepth(ctx context.Context) (int, error)
}

// Bridge feeds sync activity into a dashboard server. It implements
// syncer.Listener and provides an OnPass hook, so one instance can be
// registered with a Syncer to mirror its activity to connected clients.
type Bridge struct {
	server *Server
	depth  QueueDepther

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

// NewBridge creates a bridge that broadcasts through server. depth may
// be nil, in which case queue_update messages carry the count of
// requests seen in each pass rather than a live depth.
func NewBridge(server *Server, depth QueueDepther) *Bridge {
	return &Bridge{server: server, depth: depth}
}

// RequestDelivered implements syncer.Listener. A delivered score write
// is announced as score_recorded; any delivery updates the depth.
func (b *Bridge) RequestDelivered(req *store.QueuedRequest) {
	if data, ok := scorePayload(req, string(store.SyncSynced)); ok {
		b.server.BroadcastData(MessageTypeScoreRecorded, data)
	}
	b.broadcastDepth()
}

// RequestAbandoned implements syncer.Listener.
func (b *Bridge) RequestAbandoned(req *store.QueuedRequest, err error) {
	if data, ok := scorePayload(req, string(store.SyncFailed)); ok {
		b.server.BroadcastData(MessageTypeScoreRecorded, data)
	}
	b.broadcastDepth()
}

// scorePayload extracts a score identity from a queued write's body.
// Non-score writes (or unparseable bodies) report ok=false.
func scorePayload(req *store.QueuedRequest, status string) (ScoreRecordedData, bool) {
	var body struct {
		SubmissionID string  `json:"submission_id"`
		CriterionID  string  `json:"criterion_id"`
		Value        float64 `json:"value"`
	}
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return ScoreRecordedData{}, false
	}
	if body.SubmissionID == "" || body.CriterionID == "" {
		return ScoreRecordedData{}, false
	}
	return ScoreRecordedData{
		SubmissionID: body.SubmissionID,
		CriterionID:  body.CriterionID,
		Value:        body.Value,
		Status:       status,
	}, true
}

// OnPass broadcasts a summary of a completed drain pass. Register it as
// the Syncer's OnPass hook.
func (b *Bridge) OnPass(results []syncer.Result) {
	summary := SyncCompleteData{Attempted: len(results)}
	for _, res := range results {
		switch {
		case res.Success:
			summary.Delivered++
		case res.Terminal:
			summary.Abandoned++
		}
	}
	summary.Remaining = summary.Attempted - summary.Delivered - summary.Abandoned

	b.server.BroadcastData(MessageTypeSyncComplete, summary)
}

// WatchConnectivity mirrors monitor transitions to connected clients
// until Stop is called.
func (b *Bridge) WatchConnectivity(monitor *connectivity.Monitor) {
	b.mu.Lock()
	if b.done != nil {
		b.mu.Unlock()
		return
	}
	b.done = make(chan struct{})
	done := b.done
	b.mu.Unlock()

	ch := monitor.Subscribe()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer monitor.Unsubscribe(ch)

		for {
			select {
			case <-done:
				return
			case tr, ok := <-ch:
				if !ok {
					return
				}
				b.server.BroadcastData(MessageTypeConnectivity, ConnectivityData{Online: tr.Online})
				b.broadcastDepth()
			}
		}
	}()
}

// Stop ends connectivity watching. Safe to call when WatchConnectivity
// was never started.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if b.done != nil {
		close(b.done)
		b.done = nil
	}
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bridge) broadcastDepth() {
	if b.depth == nil {
		return
	}
	depth, err := b.depth.QueueDepth(context.Background())
	if err != nil {
		return
	}
	b.server.BroadcastData(MessageTypeQueueUpdate, QueueUpdateData{Depth: depth})
}

var _ syncer.Listener = (*Bridge)(nil)
