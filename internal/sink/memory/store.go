package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/sink"
)

// Store is an in-process sink. Nothing survives a restart; it backs
// local runs and tests.
type Store struct {
	mu     sync.RWMutex
	sites  map[string]domain.SiteRecord
	checks map[string][]domain.CheckRecord
	builds map[string][]domain.BuildRecord
}

var _ sink.Sink = (*Store)(nil)

func New() *Store {
	return &Store{
		sites:  make(map[string]domain.SiteRecord),
		checks: make(map[string][]domain.CheckRecord),
		builds: make(map[string][]domain.BuildRecord),
	}
}

func (s *Store) Name() string { return "memory" }
func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error { return nil }

func (s *Store) UpsertSites(_ context.Context, sites []domain.SiteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range sites {
		if cur, ok := s.sites[rec.ID]; ok {
			rec.CurrentStatus = cur.CurrentStatus
			rec.LastCheck = cur.LastCheck
			rec.AIReadable = cur.AIReadable
		}
		s.sites[rec.ID] = rec
	}
	return nil
}

func (s *Store) FindSite(_ context.Context, url string) (domain.SiteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sites[sink.SiteID(url)]
	if !ok {
		return domain.SiteRecord{}, sink.ErrSiteNotFound
	}
	return rec, nil
}

func (s *Store) ListSites(context.Context) ([]domain.SiteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SiteRecord, 0, len(s.sites))
	for _, rec := range s.sites {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateSiteStatus(_ context.Context, siteID string, u domain.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sites[siteID]
	if !ok {
		return sink.ErrSiteNotFound
	}
	rec.CurrentStatus = u.Status
	at := u.LastCheck
	rec.LastCheck = &at
	if u.AIReadable != nil {
		rec.AIReadable = *u.AIReadable
	}
	s.sites[siteID] = rec
	return nil
}

func (s *Store) InsertCheck(_ context.Context, c domain.CheckRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[c.SiteID] = append(s.checks[c.SiteID], c)
	return nil
}

func (s *Store) RecentChecks(_ context.Context, siteID string, limit int) ([]domain.CheckRecord, error) {
	s.mu.RLock()
	all := append([]domain.CheckRecord(nil), s.checks[siteID]...)
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })
	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	if all == nil {
		all = []domain.CheckRecord{}
	}
	return all, nil
}

func (s *Store) PruneChecks(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, checks := range s.checks {
		kept := checks[:0]
		for _, c := range checks {
			if c.Timestamp.Before(olderThan) {
				removed++
				continue
			}
			kept = append(kept, c)
		}
		s.checks[id] = kept
	}
	return removed, nil
}

func (s *Store) InsertBuild(_ context.Context, b domain.BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds[b.SiteID] = append(s.builds[b.SiteID], b)
	return nil
}

// Builds returns the stored builds of a site, oldest first.
func (s *Store) Builds(siteID string) []domain.BuildRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.BuildRecord(nil), s.builds[siteID]...)
}
