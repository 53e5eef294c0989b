package sink

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
)

var (
	// ErrSiteNotFound is returned when no stored site matches the lookup.
	ErrSiteNotFound = eris.New("site not found")
)

// Sink is the optional persistence layer for sites, checks and builds.
// Every caller must tolerate a nil Sink.
type Sink interface {
	Name() string
	Ping(ctx context.Context) error

	UpsertSites(ctx context.Context, sites []domain.SiteRecord) error
	FindSite(ctx context.Context, url string) (domain.SiteRecord, error)
	ListSites(ctx context.Context) ([]domain.SiteRecord, error)
	UpdateSiteStatus(ctx context.Context, siteID string, u domain.StatusUpdate) error

	InsertCheck(ctx context.Context, c domain.CheckRecord) error
	RecentChecks(ctx context.Context, siteID string, limit int) ([]domain.CheckRecord, error)
	PruneChecks(ctx context.Context, olderThan time.Time) (int64, error)

	InsertBuild(ctx context.Context, b domain.BuildRecord) error

	Close() error
}

// SiteID derives the stable identifier of a site from its URL, so every
// backend and every restart agrees on it.
func SiteID(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}

// NewID returns a random identifier for check and build rows.
func NewID() string {
	return uuid.NewString()
}

// RecordFromSite builds the persisted identity of a roster site.
func RecordFromSite(s domain.Site) domain.SiteRecord {
	status := s.InitialStatus
	if status == "" {
		status = domain.StatusNotBuilt
	}
	return domain.SiteRecord{
		ID:            SiteID(s.URL),
		Name:          s.Name,
		URL:           s.URL,
		Ecosystem:     s.Ecosystem,
		Priority:      s.Priority,
		CurrentStatus: status,
		AIReadable:    s.InitialAIReadable,
	}
}
