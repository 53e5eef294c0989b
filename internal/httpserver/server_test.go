package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/sitepulse/internal/deploy"
	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/fleet"
	"github.com/MrSnakeDoc/sitepulse/internal/history"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/observe"
	"github.com/MrSnakeDoc/sitepulse/internal/probe"
	"github.com/MrSnakeDoc/sitepulse/internal/roster"
	"github.com/MrSnakeDoc/sitepulse/internal/scheduler"
	"github.com/MrSnakeDoc/sitepulse/internal/sink"
	"github.com/MrSnakeDoc/sitepulse/internal/sink/memory"
)

type env struct {
	router   http.Handler
	deps     deps.Deps
	prober   *probe.Prober
	sink     *memory.Store
	upstream *httptest.Server
	roster   string
}

// newEnv wires the real components against an upstream with one healthy
// page (/ok) and one failing page (/down).
func newEnv(t *testing.T, withSink bool) *env {
	t.Helper()

	page := `<html><head><title>A healthy page with a proper title</title>` +
		`<meta name="viewport" content="width=device-width"></head><body>` +
		strings.Repeat("<p>server rendered</p>", 400) + `</body></html>`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(upstream.Close)

	rosterPath := filepath.Join(t.TempDir(), "sites.yaml")
	writeRoster(t, rosterPath, upstream.URL+"/ok", upstream.URL+"/down")

	log := logger.Nop()
	holder := roster.NewHolder()
	store := observe.NewMemoryStore()

	var s sink.Sink
	var mem *memory.Store
	var rec probe.Recorder
	if withSink {
		mem = memory.New()
		s = mem
		rec = sink.NewRecorder(mem, log)
	}

	syncer := scheduler.NewSinkSyncer(s, store, log)
	reloader := scheduler.NewRosterReloader(roster.NewLoader(rosterPath), holder, store, syncer, log)
	require.NoError(t, reloader.Reload(context.Background()))

	p := probe.New(probe.Options{Timeout: 2 * time.Second}, rec, log)
	checker := scheduler.NewFleetChecker(fleet.New(p, fleet.Options{RunTimeout: 5 * time.Second}, log), holder, store, log, time.Hour, make(chan struct{}, 1))

	d := deps.Deps{
		Logger:       log,
		StartTime:    time.Now(),
		Version:      "test",
		RosterFile:   rosterPath,
		Roster:       holder,
		Reloader:     reloader,
		Store:        store,
		Prober:       p,
		Fleet:        checker,
		Sink:         s,
		History:      history.NewService(s),
		Deploys:      deploy.NewProcessor(s, store, holder, log),
		CheckTrigger: make(chan struct{}, 1),
	}

	return &env{
		router:   NewRouter(log, d),
		deps:     d,
		prober:   p,
		sink:     mem,
		upstream: upstream,
		roster:   rosterPath,
	}
}

func writeRoster(t *testing.T, path string, urls ...string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("sites:\n")
	for i, u := range urls {
		b.WriteString("  - name: Site " + string(rune('A'+i)) + "\n")
		b.WriteString("    url: " + u + "\n")
		b.WriteString("    status: not-built\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func (e *env) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCheckSite(t *testing.T) {
	e := newEnv(t, true)

	t.Run("missing url", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/check-site", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "URL parameter is required", decode[map[string]string](t, rec)["error"])
	})

	t.Run("live roster site", func(t *testing.T) {
		url := e.upstream.URL + "/ok"
		rec := e.do(t, http.MethodGet, "/api/check-site?url="+url, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		res := decode[domain.ProbeResult](t, rec)
		assert.Equal(t, domain.StatusLive, res.Status)
		assert.True(t, res.AIReadable)
		require.NotNil(t, res.SEO)
		assert.True(t, res.SEO.Checks.HasTitle)

		obs, ok := e.deps.Store.Get(url)
		require.True(t, ok, "roster site observation not refreshed")
		assert.Equal(t, domain.StatusLive, obs.Status)

		e.prober.Wait()
		site, err := e.sink.FindSite(context.Background(), url)
		require.NoError(t, err)
		checks, err := e.sink.RecentChecks(context.Background(), site.ID, 10)
		require.NoError(t, err)
		assert.Len(t, checks, 1)
	})

	t.Run("unreachable url is still a 200", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/check-site?url=http://127.0.0.1:1/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[domain.ProbeResult](t, rec)
		assert.Equal(t, domain.StatusError, res.Status)
		assert.NotEmpty(t, res.Error)
		_, ok := e.deps.Store.Get("http://127.0.0.1:1/")
		assert.False(t, ok, "non-roster url must not enter the observation store")
	})
}

func TestCheckAllSites(t *testing.T) {
	e := newEnv(t, false)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := e.do(t, method, "/api/check-all-sites", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		report := decode[domain.FleetReport](t, rec)
		assert.Equal(t, 2, report.TotalSites)
		require.Len(t, report.Results, 2)
		assert.Equal(t, "Site A", report.Results[0].Name)
		assert.Equal(t, domain.StatusLive, report.Results[0].Status)
		assert.Equal(t, domain.StatusError, report.Results[1].Status)
		assert.Equal(t, "HTTP 502", report.Results[1].Error)
		assert.Equal(t, 1, report.Summary.Live)
		assert.Equal(t, 1, report.Summary.Errors)
	}

	_, ok := e.deps.Store.LastRun()
	assert.True(t, ok)
}

func TestSites(t *testing.T) {
	e := newEnv(t, false)

	rec := e.do(t, http.MethodGet, "/api/sites", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	before := decode[sitesBody](t, rec)
	assert.Equal(t, 2, before.Summary.Total)
	assert.Equal(t, 2, before.Summary.NeedsAttention)
	assert.Nil(t, before.LastUpdate)

	e.do(t, http.MethodPost, "/api/check-all-sites", nil)

	after := decode[sitesBody](t, e.do(t, http.MethodGet, "/api/sites", nil))
	assert.Equal(t, 1, after.Summary.LiveAndReadable)
	assert.Equal(t, 1, after.Summary.NeedsAttention)
	assert.Equal(t, domain.StatusLive, after.Sites[0].Status)
	assert.NotNil(t, after.LastUpdate)
	assert.NotNil(t, after.Alerts.Critical, "alert lists are never null")
}

type sitesBody struct {
	Sites      []domain.SiteView       `json:"sites"`
	Summary    domain.DashboardSummary `json:"summary"`
	Alerts     domain.DomainAlerts     `json:"domain_alerts"`
	LastUpdate *time.Time              `json:"last_update"`
}

func TestHistory(t *testing.T) {
	t.Run("no sink", func(t *testing.T) {
		e := newEnv(t, false)
		rec := e.do(t, http.MethodGet, "/api/history?site="+e.upstream.URL+"/ok", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	e := newEnv(t, true)

	t.Run("missing site", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/history", nil).Code)
	})

	t.Run("unknown site", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/history?site=https://nope.example", nil).Code)
	})

	t.Run("after checks", func(t *testing.T) {
		e.do(t, http.MethodPost, "/api/check-all-sites", nil)
		e.do(t, http.MethodPost, "/api/check-all-sites", nil)
		e.prober.Wait()

		rec := e.do(t, http.MethodGet, "/api/history?limit=1&site="+e.upstream.URL+"/ok", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[history.Result](t, rec)
		assert.Equal(t, "Site A", res.Site.Name)
		assert.Len(t, res.Checks, 1)
		assert.Equal(t, 100.0, res.Stats.UptimePercentage)
	})
}

func TestNetlifyWebhook(t *testing.T) {
	e := newEnv(t, true)

	t.Run("invalid json", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/webhook/netlify", []byte("{not json"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("known site", func(t *testing.T) {
		url := e.upstream.URL + "/ok"
		body, _ := json.Marshal(map[string]any{"id": "d1", "state": "building", "name": "a", "ssl_url": url})
		rec := e.do(t, http.MethodPost, "/api/webhook/netlify", body)
		require.Equal(t, http.StatusOK, rec.Code)

		ack := decode[deploy.Ack](t, rec)
		assert.True(t, ack.Received)
		assert.True(t, ack.Stored)
		assert.Equal(t, sink.SiteID(url), ack.SiteID)

		obs, ok := e.deps.Store.Get(url)
		require.True(t, ok)
		assert.Equal(t, domain.StatusBuilding, obs.Status)
	})

	t.Run("unknown site is acknowledged", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{"state": "ready", "url": "https://unknown.example"})
		rec := e.do(t, http.MethodPost, "/api/webhook/netlify", body)
		require.Equal(t, http.StatusOK, rec.Code)
		ack := decode[deploy.Ack](t, rec)
		assert.True(t, ack.Received)
		assert.False(t, ack.Stored)
	})
}

func TestTriggerCheck(t *testing.T) {
	e := newEnv(t, false)

	first := e.do(t, http.MethodPost, "/api/trigger-check", nil)
	assert.Equal(t, http.StatusAccepted, first.Code)

	// nobody drains the channel, the second one is refused
	second := e.do(t, http.MethodPost, "/api/trigger-check", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestReloadRoster(t *testing.T) {
	e := newEnv(t, false)

	writeRoster(t, e.roster, e.upstream.URL+"/ok")
	rec := e.do(t, http.MethodPost, "/api/reload-roster", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, e.deps.Roster.Count())

	require.NoError(t, os.WriteFile(e.roster, []byte("sites: ["), 0o644))
	rec = e.do(t, http.MethodPost, "/api/reload-roster", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 1, e.deps.Roster.Count(), "broken file keeps the previous roster")
}

func TestOpsEndpoints(t *testing.T) {
	e := newEnv(t, true)

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/healthz", nil).Code)

	ready := e.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, ready.Code)
	readyBody := decode[map[string]any](t, ready)
	assert.Equal(t, true, readyBody["ready"])
	assert.NotEmpty(t, readyBody["roster_loaded_at"])

	infra := decode[map[string]any](t, e.do(t, http.MethodGet, "/infra", nil))
	assert.Equal(t, "operational", infra["mode"])

	e.do(t, http.MethodPost, "/api/check-all-sites", nil)
	m := e.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "sitepulse_site_up")
	assert.Contains(t, m.Body.String(), "sitepulse_fleet_run_duration_ms")
}

func TestReadyzBeforeRosterLoad(t *testing.T) {
	d := deps.Deps{Logger: logger.Nop(), Roster: roster.NewHolder()}
	rec := httptest.NewRecorder()
	NewRouter(logger.Nop(), d).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
