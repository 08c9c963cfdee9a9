// Package presence tracks which agents are currently viewing or typing on a
// ticket. Entries are advisory UI state with a staleness TTL: an agent whose
// heartbeat is older than the cutoff is considered gone. Nothing here is a
// lock; two agents can always reply at once.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/deskhive/deskhive/internal/models"
)

// DefaultTTL is the staleness cutoff after which a viewer is dropped.
// Clients heartbeat at roughly half this interval.
const DefaultTTL = 60 * time.Second

// Tracker records and reports per-ticket viewers.
type Tracker interface {
	Heartbeat(ctx context.Context, viewer models.Viewer) error
	Viewers(ctx context.Context, ticketID int64) ([]models.Viewer, error)
	// Prune drops stale entries; the cron runner calls it periodically.
	Prune(ctx context.Context) error
}

// MemoryTracker keeps presence in process memory. Used in tests and in
// single-node deployments without Redis.
type MemoryTracker struct {
	mu  sync.RWMutex
	ttl time.Duration
	// ticket id -> agent id -> viewer
	entries map[int64]map[int64]models.Viewer
}

// NewMemoryTracker creates a memory tracker with the given staleness cutoff;
// zero means DefaultTTL.
func NewMemoryTracker(ttl time.Duration) *MemoryTracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryTracker{ttl: ttl, entries: make(map[int64]map[int64]models.Viewer)}
}

func (t *MemoryTracker) Heartbeat(_ context.Context, viewer models.Viewer) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	viewer.LastSeen = time.Now()
	if t.entries[viewer.TicketID] == nil {
		t.entries[viewer.TicketID] = make(map[int64]models.Viewer)
	}
	t.entries[viewer.TicketID][viewer.AgentID] = viewer
	return nil
}

func (t *MemoryTracker) Viewers(_ context.Context, ticketID int64) ([]models.Viewer, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cutoff := time.Now().Add(-t.ttl)
	var viewers []models.Viewer
	for _, viewer := range t.entries[ticketID] {
		if viewer.LastSeen.After(cutoff) {
			viewers = append(viewers, viewer)
		}
	}
	return viewers, nil
}

func (t *MemoryTracker) Prune(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-t.ttl)
	for ticketID, agents := range t.entries {
		for agentID, viewer := range agents {
			if !viewer.LastSeen.After(cutoff) {
				delete(agents, agentID)
			}
		}
		if len(agents) == 0 {
			delete(t.entries, ticketID)
		}
	}
	return nil
}
