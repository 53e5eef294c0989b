package scheduler

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/observe"
	"github.com/MrSnakeDoc/sitepulse/internal/roster"
)

// RosterReloader swaps in a new roster and propagates it
type RosterReloader struct {
	loader *roster.Loader
	holder *roster.Holder
	store  *observe.MemoryStore
	syncer *SinkSyncer
	logger logger.Logger
}

// NewRosterReloader creates a new roster reloader
func NewRosterReloader(
	loader *roster.Loader,
	holder *roster.Holder,
	store *observe.MemoryStore,
	syncer *SinkSyncer,
	log logger.Logger,
) *RosterReloader {
	return &RosterReloader{
		loader: loader,
		holder: holder,
		store:  store,
		syncer: syncer,
		logger: log,
	}
}

// Reload reads the roster file and applies it. On failure the current roster is kept.
func (rr *RosterReloader) Reload(ctx context.Context) error {
	rr.logger.Info("reloading roster", logger.String("path", rr.loader.Path()))

	sites, err := rr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	rr.Apply(ctx, sites)
	return nil
}

// Apply installs sites as the current roster, forgets observations of
// removed sites and upserts the new identities into the sink (best effort).
func (rr *RosterReloader) Apply(ctx context.Context, sites []domain.Site) {
	rr.holder.Set(sites)

	urls := make([]string, len(sites))
	for i, s := range sites {
		urls[i] = s.URL
	}
	if removed := rr.store.Retain(urls); removed > 0 {
		rr.logger.Info("dropped observations of removed sites", logger.Int("count", removed))
	}

	rr.logger.Info("roster applied", logger.Int("sites", len(sites)))

	if rr.syncer != nil {
		if err := rr.syncer.SyncRoster(ctx, sites); err != nil {
			// Don't fail - the in-memory roster is the primary source
			rr.logger.Warn("failed to sync roster to sink", logger.Error(err))
		}
	}
}
