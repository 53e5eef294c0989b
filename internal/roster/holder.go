package roster

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
)

// Holder keeps the current roster. A roster is immutable once stored;
// reloads swap it whole.
type Holder struct {
	mu       sync.RWMutex
	sites    []domain.Site
	loadedAt time.Time
}

func NewHolder() *Holder {
	return &Holder{}
}

// Set replaces the roster with a private copy of sites
func (h *Holder) Set(sites []domain.Site) {
	cp := append([]domain.Site(nil), sites...)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.sites = cp
	h.loadedAt = time.Now()
}

// Sites returns a copy of the current roster in file order
func (h *Holder) Sites() []domain.Site {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]domain.Site(nil), h.sites...)
}

// Lookup finds a site by URL
func (h *Holder) Lookup(url string) (domain.Site, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sites {
		if s.URL == url {
			return s, true
		}
	}
	return domain.Site{}, false
}

// URLs returns the URL of every site
func (h *Holder) URLs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.sites))
	for i, s := range h.sites {
		out[i] = s.URL
	}
	return out
}

// Count returns the number of sites
func (h *Holder) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sites)
}

// LoadedAt returns when the roster was last replaced
func (h *Holder) LoadedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loadedAt
}
