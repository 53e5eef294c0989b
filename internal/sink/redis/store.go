package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/sink"
)

// Store is a Redis-backed result sink
type Store struct {
	client cmdable
}

// cmdable is the part of go-redis the store talks to. *redis.Client
// satisfies it; tests substitute an in-memory timeline.
type cmdable interface {
	redis.Cmdable
	Close() error
}

var _ sink.Sink = (*Store)(nil)

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return newStore(client)
}

func newStore(c cmdable) *Store {
	return &Store{client: c}
}

func (s *Store) Name() string { return "redis" }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// UpsertSites stores the identity of every site (bulk operation).
// The cached status of an already known site is preserved.
func (s *Store) UpsertSites(ctx context.Context, sites []domain.SiteRecord) error {
	if len(sites) == 0 {
		return nil
	}

	existing := make(map[string]domain.SiteRecord, len(sites))
	for _, rec := range sites {
		cur, err := s.getSite(ctx, rec.ID)
		if err == nil {
			existing[rec.ID] = cur
		} else if !errors.Is(err, sink.ErrSiteNotFound) {
			return err
		}
	}

	pipe := s.client.Pipeline()
	for _, rec := range sites {
		if cur, ok := existing[rec.ID]; ok {
			rec.CurrentStatus = cur.CurrentStatus
			rec.LastCheck = cur.LastCheck
			rec.AIReadable = cur.AIReadable
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal site %s: %w", rec.ID, err)
		}
		pipe.Set(ctx, SiteKey(rec.ID), data, 0)
		pipe.SAdd(ctx, AllSitesKey(), rec.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save sites: %w", err)
	}
	return nil
}

// FindSite looks a site up by URL. IDs derive from URLs, so no secondary index is needed.
func (s *Store) FindSite(ctx context.Context, url string) (domain.SiteRecord, error) {
	return s.getSite(ctx, sink.SiteID(url))
}

func (s *Store) getSite(ctx context.Context, id string) (domain.SiteRecord, error) {
	data, err := s.client.Get(ctx, SiteKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.SiteRecord{}, sink.ErrSiteNotFound
		}
		return domain.SiteRecord{}, fmt.Errorf("failed to get site: %w", err)
	}

	var rec domain.SiteRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.SiteRecord{}, fmt.Errorf("failed to unmarshal site: %w", err)
	}
	return rec, nil
}

// ListSites retrieves all sites from Redis
func (s *Store) ListSites(ctx context.Context) ([]domain.SiteRecord, error) {
	ids, err := s.client.SMembers(ctx, AllSitesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get site IDs: %w", err)
	}

	sites := make([]domain.SiteRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.getSite(ctx, id)
		if err != nil {
			// Skip sites that couldn't be retrieved
			continue
		}
		sites = append(sites, rec)
	}
	return sites, nil
}

// UpdateSiteStatus refreshes the cached status of a site
func (s *Store) UpdateSiteStatus(ctx context.Context, siteID string, u domain.StatusUpdate) error {
	rec, err := s.getSite(ctx, siteID)
	if err != nil {
		return err
	}

	rec.CurrentStatus = u.Status
	at := u.LastCheck
	rec.LastCheck = &at
	if u.AIReadable != nil {
		rec.AIReadable = *u.AIReadable
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal site: %w", err)
	}
	if err := s.client.Set(ctx, SiteKey(siteID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update site: %w", err)
	}
	return nil
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
