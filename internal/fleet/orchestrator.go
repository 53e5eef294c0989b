package fleet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
)

const (
	DefaultConcurrency = 5
	DefaultRunTimeout  = 90 * time.Second
)

// Prober is the single-site probe the orchestrator fans out to.
type Prober interface {
	Probe(ctx context.Context, url string) domain.ProbeResult
}

type Options struct {
	// Concurrency bounds the number of in-flight probes.
	Concurrency int
	// RunTimeout cancels probes still pending when it elapses. Zero disables it.
	RunTimeout time.Duration
}

// Orchestrator runs one probe per roster site and aggregates the results.
type Orchestrator struct {
	prober Prober
	opts   Options
	log    logger.Logger
	now    func() time.Time

	// probes still running after their run returned on the deadline
	stragglers sync.WaitGroup
}

func New(prober Prober, opts Options, log logger.Logger) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		prober: prober,
		opts:   opts,
		log:    log,
		now:    time.Now,
	}
}

// Run probes every site and returns one result per site, in roster order.
// It never fails: a site whose probe panics, or which is still pending when
// the run deadline passes, is reported as an error result.
func (o *Orchestrator) Run(ctx context.Context, sites []domain.Site) domain.FleetReport {
	start := time.Now()

	runCtx := ctx
	if o.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.opts.RunTimeout)
		defer cancel()
	}

	results := make([]domain.FleetEntry, len(sites))
	done := make([]bool, len(sites))
	var (
		mu     sync.Mutex
		closed bool
	)
	store := func(i int, e domain.FleetEntry) {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			results[i] = e
			done[i] = true
		}
	}

	finished := make(chan struct{})
	o.stragglers.Add(1)
	go func() {
		defer o.stragglers.Done()
		defer close(finished)
		g := new(errgroup.Group)
		g.SetLimit(o.opts.Concurrency)
		for i, site := range sites {
			g.Go(func() error {
				store(i, o.probeOne(runCtx, site))
				return nil
			})
		}
		_ = g.Wait()
	}()

	// A prober that ignores cancellation must not hold the run past its deadline.
	select {
	case <-finished:
	case <-runCtx.Done():
	}

	mu.Lock()
	closed = true
	for i, site := range sites {
		if !done[i] {
			results[i] = domain.FleetEntry{
				Name:        site.Name,
				ProbeResult: domain.FailedProbe(site.URL, timeoutError(runCtx.Err()), o.now()),
			}
		}
	}
	mu.Unlock()

	report := domain.FleetReport{
		Timestamp:   o.now(),
		TotalSites:  len(sites),
		TotalTimeMs: time.Since(start).Milliseconds(),
		Results:     results,
		Summary:     domain.SummarizeRun(results),
	}

	o.log.Info("fleet run complete",
		logger.Int("sites", report.TotalSites),
		logger.Int("live", report.Summary.Live),
		logger.Int("errors", report.Summary.Errors),
		logger.Int("ai_readable", report.Summary.AIReadable),
		logger.Int64("elapsed_ms", report.TotalTimeMs))

	return report
}

// Wait blocks until every probe started by past runs has returned, including
// those abandoned at a run deadline. Call it once no new Run can start.
func (o *Orchestrator) Wait() {
	o.stragglers.Wait()
}

func (o *Orchestrator) probeOne(ctx context.Context, site domain.Site) (entry domain.FleetEntry) {
	entry.Name = site.Name

	defer func() {
		if rec := recover(); rec != nil {
			o.log.Error("probe panicked",
				logger.String("site", site.Name),
				logger.String("url", site.URL),
				logger.String("panic", fmt.Sprint(rec)))
			entry.ProbeResult = domain.FailedProbe(site.URL,
				fmt.Errorf("probe of %s (%s) panicked: %v", site.Name, site.URL, rec), o.now())
		}
	}()

	if err := ctx.Err(); err != nil {
		entry.ProbeResult = domain.FailedProbe(site.URL, timeoutError(err), o.now())
		return entry
	}

	entry.ProbeResult = o.prober.Probe(ctx, site.URL)
	if ctx.Err() != nil && entry.Status == domain.StatusError && entry.ResponseTime == 0 {
		entry.Error = timeoutError(ctx.Err()).Error()
	}
	return entry
}

var errRunDeadline = errors.New("timeout: fleet run deadline exceeded")

func timeoutError(err error) error {
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		return errRunDeadline
	}
	return fmt.Errorf("timeout: fleet run cancelled: %w", err)
}
