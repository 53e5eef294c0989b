package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/observe"
	"github.com/MrSnakeDoc/sitepulse/internal/roster"
	"github.com/MrSnakeDoc/sitepulse/internal/sink"
	"github.com/MrSnakeDoc/sitepulse/internal/sink/memory"
)

type stubRunner struct {
	mu    sync.Mutex
	runs  int
	delay time.Duration
}

func (s *stubRunner) Run(_ context.Context, sites []domain.Site) domain.FleetReport {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	time.Sleep(s.delay)

	now := time.Now()
	results := make([]domain.FleetEntry, len(sites))
	for i, site := range sites {
		results[i] = domain.FleetEntry{Name: site.Name, ProbeResult: domain.ProbeResult{URL: site.URL, Status: domain.StatusLive, AIReadable: true, Timestamp: now}}
	}
	return domain.FleetReport{Timestamp: now, TotalSites: len(sites), Results: results, Summary: domain.SummarizeRun(results)}
}

func (s *stubRunner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

type recordingObserver struct {
	mu      sync.Mutex
	befores []map[string]domain.Observation
}

func (r *recordingObserver) AfterRun(_ context.Context, before map[string]domain.Observation, _ domain.FleetReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.befores = append(r.befores, before)
}

func TestFleetChecker_Check(t *testing.T) {
	holder := roster.NewHolder()
	holder.Set([]domain.Site{{Name: "A", URL: "https://a.example"}, {Name: "B", URL: "https://b.example"}})
	store := observe.NewMemoryStore()
	obs := &recordingObserver{}

	fc := NewFleetChecker(&stubRunner{}, holder, store, logger.Nop(), time.Hour, make(chan struct{}, 1), obs)

	report := fc.Check(context.Background())
	if report.TotalSites != 2 {
		t.Errorf("TotalSites = %d, want 2", report.TotalSites)
	}
	if store.Count() != 2 {
		t.Errorf("observations = %d, want 2", store.Count())
	}
	if _, ok := store.LastRun(); !ok {
		t.Error("last run not recorded")
	}

	fc.Check(context.Background())
	if len(obs.befores) != 2 {
		t.Fatalf("observer called %d times, want 2", len(obs.befores))
	}
	if len(obs.befores[0]) != 0 || len(obs.befores[1]) != 2 {
		t.Error("observer must receive the state from before the run")
	}
}

func TestFleetChecker_StartRunsImmediatelyAndOnTrigger(t *testing.T) {
	holder := roster.NewHolder()
	holder.Set([]domain.Site{{Name: "A", URL: "https://a.example"}})
	runner := &stubRunner{}
	trigger := make(chan struct{}, 1)

	fc := NewFleetChecker(runner, holder, observe.NewMemoryStore(), logger.Nop(), time.Hour, trigger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := fc.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer fc.Stop()

	waitFor(t, func() bool { return runner.count() >= 1 })
	trigger <- struct{}{}
	waitFor(t, func() bool { return runner.count() >= 2 })

	fc.Stop() // idempotent
}

func TestRosterReloader_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	write := func(content string) {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(`
sites:
  - name: A
    url: https://a.example
  - name: B
    url: https://b.example
`)

	holder := roster.NewHolder()
	store := observe.NewMemoryStore()
	mem := memory.New()
	rr := NewRosterReloader(roster.NewLoader(path), holder, store, NewSinkSyncer(mem, store, logger.Nop()), logger.Nop())
	ctx := context.Background()

	if err := rr.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if holder.Count() != 2 {
		t.Errorf("holder has %d sites, want 2", holder.Count())
	}
	if recs, _ := mem.ListSites(ctx); len(recs) != 2 {
		t.Errorf("sink has %d sites, want 2", len(recs))
	}

	store.Apply(domain.Observation{URL: "https://b.example", Status: domain.StatusLive})
	write(`
sites:
  - name: A
    url: https://a.example
`)
	if err := rr.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if _, ok := store.Get("https://b.example"); ok {
		t.Error("observation of removed site kept")
	}

	write("sites: [broken")
	if err := rr.Reload(ctx); err == nil {
		t.Error("Reload() should fail on invalid yaml")
	}
	if holder.Count() != 1 {
		t.Error("failed reload must keep the previous roster")
	}
}

func TestSinkSyncer_Restore(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	site := domain.Site{Name: "A", URL: "https://a.example"}
	rec := sink.RecordFromSite(site)
	_ = mem.UpsertSites(ctx, []domain.SiteRecord{rec, sink.RecordFromSite(domain.Site{Name: "B", URL: "https://b.example"})})

	ai := true
	at := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	_ = mem.UpdateSiteStatus(ctx, rec.ID, domain.StatusUpdate{Status: domain.StatusLive, LastCheck: at, AIReadable: &ai})

	store := observe.NewMemoryStore()
	if err := NewSinkSyncer(mem, store, logger.Nop()).Restore(ctx); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if store.Count() != 1 {
		t.Fatalf("restored %d observations, want 1 (never-checked sites skipped)", store.Count())
	}
	o, _ := store.Get(site.URL)
	if o.Status != domain.StatusLive || !o.AIReadable || o.Source != domain.SourceRestore {
		t.Errorf("unexpected observation: %+v", o)
	}

	if err := NewSinkSyncer(nil, store, logger.Nop()).Restore(ctx); err != nil {
		t.Errorf("Restore() without sink should be a no-op, got %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestFleetChecker_CancelledRunDiscarded(t *testing.T) {
	holder := roster.NewHolder()
	holder.Set([]domain.Site{{Name: "A", URL: "https://a.example"}})
	store := observe.NewMemoryStore()
	obs := &recordingObserver{}
	fc := NewFleetChecker(&stubRunner{}, holder, store, logger.Nop(), time.Hour, nil, obs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := fc.Check(ctx)

	if report.TotalSites != 1 {
		t.Fatalf("report has %d sites, want 1", report.TotalSites)
	}
	if store.Count() != 0 {
		t.Errorf("cancelled run merged %d observations, want 0", store.Count())
	}
	if len(obs.befores) != 0 {
		t.Errorf("observer called %d times for a cancelled run, want 0", len(obs.befores))
	}
}

func TestFleetChecker_StopWaitsForRun(t *testing.T) {
	holder := roster.NewHolder()
	holder.Set([]domain.Site{{Name: "A", URL: "https://a.example"}})
	runner := &stubRunner{delay: 100 * time.Millisecond}
	fc := NewFleetChecker(runner, holder, observe.NewMemoryStore(), logger.Nop(), time.Hour, nil)

	if err := fc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, func() bool { return fc.Running() })

	fc.Stop()
	if fc.Running() {
		t.Error("Stop returned while a run was still in progress")
	}
	if runner.count() != 1 {
		t.Errorf("runner called %d times, want 1", runner.count())
	}
}
