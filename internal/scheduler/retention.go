package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/sink"
)

const (
	// DefaultRetention is how long stored checks are kept
	DefaultRetention = 30 * 24 * time.Hour // 30 days
	// DefaultSweepInterval is how often old checks are pruned
	DefaultSweepInterval = 24 * time.Hour
)

// RetentionSweeper prunes checks older than the retention window from the sink
type RetentionSweeper struct {
	sink      sink.Sink
	logger    logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewRetentionSweeper creates a new retention sweeper
func NewRetentionSweeper(
	s sink.Sink,
	log logger.Logger,
	interval time.Duration,
	retention time.Duration,
) *RetentionSweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &RetentionSweeper{
		sink:      s,
		logger:    log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic sweep process
func (rs *RetentionSweeper) Start(ctx context.Context) error {
	// Run immediately on start
	if _, err := rs.Sweep(ctx); err != nil {
		rs.logger.Warn("initial retention sweep failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(rs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := rs.Sweep(ctx); err != nil {
					rs.logger.Error("retention sweep failed",
						logger.Error(err))
				}
			case <-rs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper
func (rs *RetentionSweeper) Stop() {
	rs.stopOnce.Do(func() { close(rs.stopCh) })
}

// Sweep removes checks older than the retention window
func (rs *RetentionSweeper) Sweep(ctx context.Context) (int64, error) {
	if rs.sink == nil {
		return 0, nil
	}

	cutoff := rs.now().Add(-rs.retention)
	removed, err := rs.sink.PruneChecks(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune checks: %w", err)
	}

	if removed > 0 {
		rs.logger.Info("retention sweep completed",
			logger.Int64("checks_deleted", removed),
			logger.Time("cutoff", cutoff))
	} else {
		rs.logger.Debug("no checks to prune")
	}
	return removed, nil
}
