// Package syncer decides when to drain the offline queue and guarantees
// that at most one drain runs at a time.
//
// Triggers: an offline-to-online transition, a periodic timer tick
// while online with a non-empty queue, and an explicit SyncNow. A
// trigger that arrives while a drain is running is coalesced, not
// stacked.
//
// A drain is a single FIFO pass over the queue. Entries that keep
// failing stay in place with an incremented retry count until they hit
// the ceiling, at which point they are abandoned and surfaced to the
// caller. The ceiling counts drain passes, not elapsed time: a flapping
// connection can exhaust retries faster than a human-scale outage
// would.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scorepadhq/scorepad/internal/connectivity"
	"github.com/scorepadhq/scorepad/internal/store"
)

// DefaultMaxRetries is the drain-pass ceiling before a queued write is
// abandoned.
const DefaultMaxRetries = 3

// DefaultInterval is the periodic drain check while online.
const DefaultInterval = 30 * time.Second

// Config holds syncer construction parameters.
type Config struct {
	// Store holds the offline queue.
	Store *store.Store

	// Transport delivers queue entries.
	Transport Transport

	// Monitor is the host connectivity signal.
	Monitor *connectivity.Monitor

	// Interval between periodic drain checks (default: DefaultInterval).
	Interval time.Duration

	// MaxRetries is the drain-pass ceiling (default: DefaultMaxRetries).
	MaxRetries int

	// OnPass, if set, receives the results of every completed drain pass.
	OnPass func(results []Result)

	// Logger for drain activity (default: stderr logger).
	Logger *log.Logger
}

// Syncer orchestrates queue draining.
type Syncer struct {
	store      *store.Store
	transport  Transport
	monitor    *connectivity.Monitor
	interval   time.Duration
	maxRetries int
	onPass     func([]Result)
	logger     *log.Logger

	draining    atomic.Bool
	drainStarts atomic.Int64

	mu        sync.Mutex
	listeners []Listener
}

// New creates a Syncer.
func New(cfg Config) (*Syncer, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}
	if cfg.Monitor == nil {
		return nil, fmt.Errorf("monitor cannot be nil")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}

	return &Syncer{
		store:      cfg.Store,
		transport:  cfg.Transport,
		monitor:    cfg.Monitor,
		interval:   cfg.Interval,
		maxRetries: cfg.MaxRetries,
		onPass:     cfg.OnPass,
		logger:     cfg.Logger,
	}, nil
}

// AddListener registers a drain outcome observer.
func (s *Syncer) AddListener(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Draining reports whether a drain pass is currently running.
func (s *Syncer) Draining() bool {
	return s.draining.Load()
}

// DrainStarts returns how many drain passes have started.
func (s *Syncer) DrainStarts() int64 {
	return s.drainStarts.Load()
}

// Backlog returns the current offline queue depth.
func (s *Syncer) Backlog(ctx context.Context) (int, error) {
	return s.store.QueueDepth(ctx)
}

// SyncNow runs one drain pass and returns per-entry results.
//
// If a drain is already in progress the trigger is coalesced and
// ErrSyncInProgress is returned. The pass walks the queue once, oldest
// first; entries that fail below the ceiling remain for a future pass.
func (s *Syncer) SyncNow(ctx context.Context) ([]Result, error) {
	if !s.draining.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.draining.Store(false)

	s.drainStarts.Add(1)
	results, err := s.drain(ctx)
	if err != nil {
		return nil, err
	}

	if s.onPass != nil {
		s.onPass(results)
	}
	return results, nil
}

// drain performs a single pass over the queue.
func (s *Syncer) drain(ctx context.Context) ([]Result, error) {
	pending, err := s.store.PendingRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read offline queue: %w", err)
	}

	results := make([]Result, 0, len(pending))
	for _, req := range pending {
		// A cancelled drain leaves the remaining entries untouched;
		// they keep their retry counts for the next pass.
		if ctx.Err() != nil {
			break
		}

		result := s.attempt(ctx, req)
		results = append(results, result)
	}

	s.logger.Printf("Drain pass complete: %d attempted, %d delivered, %d abandoned",
		len(results), countDelivered(results), countTerminal(results))

	return results, nil
}

// attempt delivers one entry and updates its queue bookkeeping.
func (s *Syncer) attempt(ctx context.Context, req *store.QueuedRequest) Result {
	result := Result{
		RequestID:  req.ID,
		Method:     req.Method,
		Target:     req.Target,
		RetryCount: req.RetryCount,
	}

	err := s.transport.Deliver(ctx, req)
	if err == nil {
		if derr := s.store.DeleteRequest(ctx, req.ID); derr != nil {
			// Delivered but not dequeued: the entry will be resent on
			// the next pass. Idempotent-by-identity writes absorb that.
			s.logger.Printf("WARNING: delivered %s but failed to dequeue: %v", req.ID, derr)
		}
		result.Success = true
		s.notifyDelivered(req)
		s.logger.Printf("Delivered %s %s (%s)", req.Method, req.Target, req.ID)
		return result
	}

	count, serr := s.store.IncrementRetry(ctx, req.ID)
	if serr != nil {
		s.logger.Printf("WARNING: failed to record retry for %s: %v", req.ID, serr)
		result.Err = err
		return result
	}
	result.RetryCount = count

	if count >= s.maxRetries {
		if derr := s.store.DeleteRequest(ctx, req.ID); derr != nil {
			s.logger.Printf("WARNING: failed to remove abandoned entry %s: %v", req.ID, derr)
		}
		result.Terminal = true
		result.Err = fmt.Errorf("max retries exceeded after %d attempts: %w", count, err)
		s.notifyAbandoned(req, result.Err)
		s.logger.Printf("Abandoned %s %s (%s) after %d attempts: %v",
			req.Method, req.Target, req.ID, count, err)
		return result
	}

	result.Err = err
	s.logger.Printf("Delivery of %s failed (attempt %d/%d), will retry: %v",
		req.ID, count, s.maxRetries, err)
	return result
}

// Run hosts the trigger loop: drain on reconnect, and on a periodic
// tick while online with a non-empty queue. Blocks until ctx is
// cancelled. Started on application mount, stopped on unmount.
func (s *Syncer) Run(ctx context.Context) {
	transitions := s.monitor.Subscribe()
	defer s.monitor.Unsubscribe(transitions)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Printf("Sync loop started (interval %v, retry ceiling %d)", s.interval, s.maxRetries)

	for {
		select {
		case <-ctx.Done():
			s.logger.Println("Sync loop stopped")
			return

		case tr := <-transitions:
			if !tr.Online {
				continue
			}
			s.logger.Println("Connectivity restored, draining queue")
			s.trigger(ctx)

		case <-ticker.C:
			if !s.monitor.Online() {
				continue
			}
			depth, err := s.store.QueueDepth(ctx)
			if err != nil {
				s.logger.Printf("WARNING: failed to read queue depth: %v", err)
				continue
			}
			if depth == 0 {
				continue
			}
			s.trigger(ctx)
		}
	}
}

// trigger runs a drain pass, swallowing the coalesced case.
func (s *Syncer) trigger(ctx context.Context) {
	if _, err := s.SyncNow(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
		s.logger.Printf("WARNING: drain failed: %v", err)
	}
}

func (s *Syncer) notifyDelivered(req *store.QueuedRequest) {
	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.RequestDelivered(req)
	}
}

func (s *Syncer) notifyAbandoned(req *store.QueuedRequest, err error) {
	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.RequestAbandoned(req, err)
	}
}

func countDelivered(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}

func countTerminal(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Terminal {
			n++
		}
	}
	return n
}
