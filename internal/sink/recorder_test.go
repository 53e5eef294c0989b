package sink_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/sink"
	"github.com/MrSnakeDoc/sitepulse/internal/sink/memory"
)

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	site := domain.Site{Name: "A", URL: "https://a.example", InitialStatus: domain.StatusNotBuilt}
	require.NoError(t, store.UpsertSites(ctx, []domain.SiteRecord{sink.RecordFromSite(site)}))

	rec := sink.NewRecorder(store, logger.Nop())
	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	err := rec.Record(ctx, domain.ProbeResult{
		URL: site.URL, Status: domain.StatusError, Timestamp: at, Error: "HTTP 500",
	})
	require.NoError(t, err)

	stored, err := store.FindSite(ctx, site.URL)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, stored.CurrentStatus)
	require.NotNil(t, stored.LastCheck)
	assert.True(t, stored.LastCheck.Equal(at))

	checks, err := store.RecentChecks(ctx, stored.ID, 10)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	require.NotNil(t, checks[0].Error)
	assert.Equal(t, "HTTP 500", *checks[0].Error)
}

func TestRecorderUnknownSite(t *testing.T) {
	store := memory.New()
	rec := sink.NewRecorder(store, logger.Nop())

	err := rec.Record(context.Background(), domain.ProbeResult{URL: "https://ad-hoc.example", Status: domain.StatusLive})
	assert.NoError(t, err)
}

func TestUpsertKeepsCachedStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	site := domain.Site{Name: "A", URL: "https://a.example"}
	rec := sink.RecordFromSite(site)
	require.NoError(t, store.UpsertSites(ctx, []domain.SiteRecord{rec}))

	ai := true
	require.NoError(t, store.UpdateSiteStatus(ctx, rec.ID, domain.StatusUpdate{Status: domain.StatusLive, LastCheck: time.Now(), AIReadable: &ai}))

	site.Name = "A renamed"
	require.NoError(t, store.UpsertSites(ctx, []domain.SiteRecord{sink.RecordFromSite(site)}))

	got, err := store.FindSite(ctx, site.URL)
	require.NoError(t, err)
	assert.Equal(t, "A renamed", got.Name)
	assert.Equal(t, domain.StatusLive, got.CurrentStatus)
	assert.True(t, got.AIReadable)
}

func TestSiteIDIsStable(t *testing.T) {
	assert.Equal(t, sink.SiteID("https://a.example"), sink.SiteID("https://a.example"))
	assert.NotEqual(t, sink.SiteID("https://a.example"), sink.SiteID("https://b.example"))
	assert.NotEqual(t, sink.NewID(), sink.NewID())
}
