// Package connectivity tracks whether the remote store is reachable and
// notifies subscribers exactly once per transition.
package connectivity

import (
	"context"
	"sync"
	"time"
)

// Pinger probes remote reachability. remote.Store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

const probeTimeout = 3 * time.Second

// Monitor is a two-state online/offline machine. Repeated signals for the
// current state are suppressed: subscribers only see edges.
type Monitor struct {
	pinger   Pinger
	interval time.Duration

	mu     sync.Mutex
	online bool
	subs   []func(online bool)
}

// New returns a Monitor that starts in the offline state.
func New(pinger Pinger, interval time.Duration) *Monitor {
	return &Monitor{pinger: pinger, interval: interval}
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers fn to be called on every transition. The callback runs
// on the monitor's goroutine; it must not block for long.
func (m *Monitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Signal feeds a platform-reported connectivity state into the machine.
// Duplicate signals produce no event.
func (m *Monitor) Signal(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := append([]func(bool){}, m.subs...)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// Run probes the remote on a ticker until ctx is cancelled, feeding the
// results into Signal. The first probe runs immediately.
func (m *Monitor) Run(ctx context.Context) {
	probe := func() {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := m.pinger.Ping(pctx)
		cancel()
		m.Signal(err == nil)
	}

	probe()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probe()
		case <-ctx.Done():
			return
		}
	}
}
