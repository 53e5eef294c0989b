package scheduler

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/observe"
	"github.com/MrSnakeDoc/sitepulse/internal/sink"
)

// SinkSyncer keeps the result sink and the observation store in step with the roster
type SinkSyncer struct {
	sink   sink.Sink
	store  *observe.MemoryStore
	logger logger.Logger
}

// NewSinkSyncer creates a new sink syncer. s may be nil, making every call a no-op.
func NewSinkSyncer(
	s sink.Sink,
	store *observe.MemoryStore,
	log logger.Logger,
) *SinkSyncer {
	return &SinkSyncer{
		sink:   s,
		store:  store,
		logger: log,
	}
}

// SyncRoster upserts the identity of every roster site into the sink
func (ss *SinkSyncer) SyncRoster(ctx context.Context, sites []domain.Site) error {
	if ss.sink == nil {
		return nil
	}

	records := make([]domain.SiteRecord, 0, len(sites))
	for _, s := range sites {
		records = append(records, sink.RecordFromSite(s))
	}
	if err := ss.sink.UpsertSites(ctx, records); err != nil {
		return fmt.Errorf("failed to sync roster to %s: %w", ss.sink.Name(), err)
	}

	ss.logger.Info("roster synced to sink",
		logger.String("sink", ss.sink.Name()),
		logger.Int("count", len(records)))
	return nil
}

// Restore loads the cached status of each site from the sink into the
// observation store, so a restart does not forget the last known state.
func (ss *SinkSyncer) Restore(ctx context.Context) error {
	if ss.sink == nil {
		return nil
	}
	ss.logger.Info("restoring site status from sink", logger.String("sink", ss.sink.Name()))

	records, err := ss.sink.ListSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites from %s: %w", ss.sink.Name(), err)
	}

	restored := 0
	for _, rec := range records {
		if rec.LastCheck == nil {
			continue
		}
		ss.store.Apply(domain.Observation{
			URL:        rec.URL,
			Status:     rec.CurrentStatus,
			AIReadable: rec.AIReadable,
			LastCheck:  *rec.LastCheck,
			Source:     domain.SourceRestore,
		})
		restored++
	}

	if restored == 0 {
		ss.logger.Info("no site status found in sink")
		return nil
	}
	ss.logger.Info("restored site status from sink", logger.Int("count", restored))
	return nil
}
