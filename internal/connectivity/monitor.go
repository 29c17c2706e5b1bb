// Package connectivity carries the host platform's online/offline signal.
//
// The client never probes reachability itself: the venue device's network
// manager owns that decision and feeds it in, either programmatically via
// Monitor.Set or through a watched state file (FileMonitor). Components
// that care read Monitor.Online for the current state and Subscribe for
// transitions.
package connectivity

import (
	"sync"
	"time"
)

// Transition reports a single online/offline change.
type Transition struct {
	// Online is the new state.
	Online bool

	// At is when the transition was observed.
	At time.Time
}

// Monitor holds the current connectivity state and fans transitions out
// to subscribers. Safe for concurrent use.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   map[chan Transition]struct{}
}

// NewMonitor creates a Monitor with the given initial state.
func NewMonitor(online bool) *Monitor {
	return &Monitor{
		online: online,
		subs:   make(map[chan Transition]struct{}),
	}
}

// Online returns the current state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set records a new state. Subscribers are only notified on an actual
// transition; setting the same state twice is a no-op.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online

	tr := Transition{Online: online, At: time.Now()}
	subs := make([]chan Transition, 0, len(m.subs))
	for ch := range m.subs {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	// Non-blocking fan-out; a slow subscriber drops transitions rather
	// than stalling the signal source.
	for _, ch := range subs {
		select {
		case ch <- tr:
		default:
		}
	}
}

// Subscribe registers for transition notifications. The returned channel
// is buffered; call Unsubscribe when done.
func (m *Monitor) Subscribe() chan Transition {
	ch := make(chan Transition, 8)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (m *Monitor) Unsubscribe(ch chan Transition) {
	m.mu.Lock()
	if _, ok := m.subs[ch]; ok {
		delete(m.subs, ch)
		close(ch)
	}
	m.mu.Unlock()
}
