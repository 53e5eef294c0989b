package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/observe"
	"github.com/MrSnakeDoc/sitepulse/internal/roster"
)

const (
	// DefaultCheckInterval is how often the whole fleet is probed
	DefaultCheckInterval = 15 * time.Minute
)

// Runner runs one probe per site and aggregates the results
type Runner interface {
	Run(ctx context.Context, sites []domain.Site) domain.FleetReport
}

// RunObserver is told about every completed run, with the observations
// as they were before the run was merged.
type RunObserver interface {
	AfterRun(ctx context.Context, before map[string]domain.Observation, report domain.FleetReport)
}

// FleetChecker handles periodic probing of the roster
type FleetChecker struct {
	runner        Runner
	roster        *roster.Holder
	store         *observe.MemoryStore
	observers     []RunObserver
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	loop          sync.WaitGroup
	manualTrigger chan struct{}

	runMu   sync.Mutex // one run at a time
	running atomic.Bool
}

// NewFleetChecker creates a new fleet checker
func NewFleetChecker(
	runner Runner,
	holder *roster.Holder,
	store *observe.MemoryStore,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
	observers ...RunObserver,
) *FleetChecker {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &FleetChecker{
		runner:        runner,
		roster:        holder,
		store:         store,
		observers:     observers,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic check process. The first run starts right away
// in the background so a slow fleet does not hold up startup.
func (fc *FleetChecker) Start(ctx context.Context) error {
	ticker := time.NewTicker(fc.interval)
	fc.loop.Add(1)
	go func() {
		defer fc.loop.Done()
		defer ticker.Stop()

		fc.Check(ctx)

		for {
			select {
			case <-ticker.C:
				if fc.stopping() {
					return
				}
				fc.Check(ctx)
			case <-fc.manualTrigger:
				if fc.stopping() {
					return
				}
				fc.logger.Info("manual fleet check triggered")
				fc.Check(ctx)
			case <-fc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the checker and waits for the scheduled run in progress, if
// any, so nothing probes or records once it returns.
func (fc *FleetChecker) Stop() {
	fc.stopOnce.Do(func() { close(fc.stopCh) })
	fc.loop.Wait()
}

func (fc *FleetChecker) stopping() bool {
	select {
	case <-fc.stopCh:
		return true
	default:
		return false
	}
}

// Running reports whether a run is in progress
func (fc *FleetChecker) Running() bool {
	return fc.running.Load()
}

// Check probes the current roster, merges the report into the observation
// store and notifies observers. Concurrent callers are serialized. A run
// whose ctx is cancelled (shutdown, client gone) is returned but neither
// merged nor passed to observers.
func (fc *FleetChecker) Check(ctx context.Context) domain.FleetReport {
	fc.runMu.Lock()
	defer fc.runMu.Unlock()
	fc.running.Store(true)
	defer fc.running.Store(false)

	sites := fc.roster.Sites()
	fc.logger.Info("checking fleet", logger.Int("sites", len(sites)))

	before := fc.store.Snapshot()
	report := fc.runner.Run(ctx, sites)
	if err := ctx.Err(); err != nil {
		fc.logger.Warn("fleet run interrupted, results discarded",
			logger.Int("sites", len(sites)),
			logger.Error(err))
		return report
	}
	fc.store.ApplyReport(report)

	for _, o := range fc.observers {
		o.AfterRun(ctx, before, report)
	}
	return report
}
