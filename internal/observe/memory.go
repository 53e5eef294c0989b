package observe

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
)

// MemoryStore holds the latest observation of every site, keyed by URL.
// It is the only mutable site state in the process: probes, fleet runs,
// deployment events and sink restores all funnel through it.
type MemoryStore struct {
	mu           sync.RWMutex
	observations map[string]domain.Observation // URL -> latest observation
	lastRun      *domain.FleetReport           // Most recent fleet run
	lastUpdate   time.Time                     // Timestamp of last merge
}

// NewMemoryStore creates an empty observation store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		observations: make(map[string]domain.Observation),
	}
}

// Apply merges one observation into the store
func (m *MemoryStore) Apply(o domain.Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.applyLocked(o)
	m.lastUpdate = time.Now()
}

func (m *MemoryStore) applyLocked(o domain.Observation) {
	if cur, ok := m.observations[o.URL]; ok {
		m.observations[o.URL] = cur.Merge(o)
		return
	}
	m.observations[o.URL] = o
}

// ApplyReport merges a whole fleet run as one serialized step
func (m *MemoryStore) ApplyReport(r domain.FleetReport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range r.Results {
		m.applyLocked(domain.ObservationFromProbe(e.ProbeResult))
	}
	report := r
	m.lastRun = &report
	m.lastUpdate = time.Now()
}

// Get returns the latest observation of a site
func (m *MemoryStore) Get(url string) (domain.Observation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.observations[url]
	return o, ok
}

// Snapshot returns a copy of all observations
func (m *MemoryStore) Snapshot() map[string]domain.Observation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]domain.Observation, len(m.observations))
	for k, v := range m.observations {
		out[k] = v
	}
	return out
}

// Retain drops observations of sites no longer in the roster
func (m *MemoryStore) Retain(urls []string) int {
	keep := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		keep[u] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for u := range m.observations {
		if _, ok := keep[u]; !ok {
			delete(m.observations, u)
			removed++
		}
	}
	return removed
}

// Count returns the number of observed sites
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.observations)
}

// LastRun returns the most recent fleet report, if any
func (m *MemoryStore) LastRun() (domain.FleetReport, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRun == nil {
		return domain.FleetReport{}, false
	}
	return *m.lastRun, true
}

// GetLastUpdate returns the timestamp of the last merge
func (m *MemoryStore) GetLastUpdate() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lastUpdate
}
