package application

import (
	"sync"
	"time"
)

// flowRegistry holds open request flows keyed by ID. Entries expire after a
// sliding TTL and the oldest entry is evicted once maxEntries is reached.
type flowRegistry struct {
	mu         sync.Mutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]flowRegistryEntry
}

type flowRegistryEntry struct {
	flow      *RequestFlow
	expiresAt time.Time
}

func newFlowRegistry(ttl time.Duration, maxEntries int, now func() time.Time) *flowRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if now == nil {
		now = time.Now
	}
	return &flowRegistry{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]flowRegistryEntry),
	}
}

func (r *flowRegistry) Get(id string) (*RequestFlow, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	now := r.now()
	if now.After(entry.expiresAt) {
		delete(r.entries, id)
		entry.flow.Close()
		return nil, false
	}
	entry.expiresAt = now.Add(r.ttl)
	r.entries[id] = entry
	return entry.flow, true
}

func (r *flowRegistry) Store(flow *RequestFlow) {
	if r == nil || flow == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleanupLocked()
	if len(r.entries) >= r.maxEntries {
		r.evictOldestLocked()
	}
	r.entries[flow.ID()] = flowRegistryEntry{flow: flow, expiresAt: r.now().Add(r.ttl)}
}

// Remove drops and closes the flow. It reports whether the flow was present.
func (r *flowRegistry) Remove(id string) bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	entry, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok {
		entry.flow.Close()
	}
	return ok
}

func (r *flowRegistry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *flowRegistry) cleanupLocked() {
	now := r.now()
	for id, entry := range r.entries {
		if now.After(entry.expiresAt) {
			delete(r.entries, id)
			entry.flow.Close()
		}
	}
}

func (r *flowRegistry) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, entry := range r.entries {
		if oldestID == "" || entry.expiresAt.Before(oldest) {
			oldestID, oldest = id, entry.expiresAt
		}
	}
	if oldestID == "" {
		return
	}
	r.entries[oldestID].flow.Close()
	delete(r.entries, oldestID)
}
