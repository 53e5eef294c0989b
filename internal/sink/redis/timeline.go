package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
)

// InsertCheck appends a check to the site's timeline
func (s *Store) InsertCheck(ctx context.Context, c domain.CheckRecord) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal check: %w", err)
	}
	member := redis.Z{Score: score(c.Timestamp), Member: data}
	if err := s.client.ZAdd(ctx, ChecksKey(c.SiteID), member).Err(); err != nil {
		return fmt.Errorf("failed to save check: %w", err)
	}
	return nil
}

// RecentChecks returns at most limit checks, newest first
func (s *Store) RecentChecks(ctx context.Context, siteID string, limit int) ([]domain.CheckRecord, error) {
	if limit <= 0 {
		return []domain.CheckRecord{}, nil
	}
	raw, err := s.client.ZRevRange(ctx, ChecksKey(siteID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get checks: %w", err)
	}

	checks := make([]domain.CheckRecord, 0, len(raw))
	for _, item := range raw {
		var c domain.CheckRecord
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			// Skip entries that couldn't be decoded
			continue
		}
		checks = append(checks, c)
	}
	return checks, nil
}

// PruneChecks removes checks older than the cutoff across all sites
func (s *Store) PruneChecks(ctx context.Context, olderThan time.Time) (int64, error) {
	ids, err := s.client.SMembers(ctx, AllSitesKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get site IDs: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	// Exclusive upper bound: a check stamped exactly at the cutoff is kept.
	upper := "(" + strconv.FormatFloat(score(olderThan), 'f', 0, 64)

	pipe := s.client.Pipeline()
	cmds := make([]*redis.IntCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.ZRemRangeByScore(ctx, ChecksKey(id), "-inf", upper))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to prune checks: %w", err)
	}

	var removed int64
	for _, cmd := range cmds {
		removed += cmd.Val()
	}
	return removed, nil
}

// InsertBuild appends a deployment event to the site's build timeline
func (s *Store) InsertBuild(ctx context.Context, b domain.BuildRecord) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal build: %w", err)
	}
	member := redis.Z{Score: score(b.Timestamp), Member: data}
	if err := s.client.ZAdd(ctx, BuildsKey(b.SiteID), member).Err(); err != nil {
		return fmt.Errorf("failed to save build: %w", err)
	}
	return nil
}
