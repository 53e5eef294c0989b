package deploy

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/sink"
)

// Event is the deployment notification posted by the hosting provider.
type Event struct {
	ID         string `json:"id"`
	SiteID     string `json:"site_id"`
	BuildID    string `json:"build_id"`
	State      string `json:"state"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	SSLURL     string `json:"ssl_url"`
	CreatedAt  string `json:"created_at"`
	DeployTime *int64 `json:"deploy_time"`
}

// SiteURL prefers the TLS address of the site.
func (e Event) SiteURL() string {
	if e.SSLURL != "" {
		return e.SSLURL
	}
	return e.URL
}

// Status maps the provider state onto a site status.
func (e Event) Status() domain.Status {
	switch e.State {
	case "ready":
		return domain.StatusLive
	case "building":
		return domain.StatusBuilding
	default:
		return domain.StatusError
	}
}

// BuildStatus maps the provider state onto a build outcome.
func (e Event) BuildStatus() domain.BuildStatus {
	switch e.State {
	case "ready":
		return domain.BuildSuccess
	case "building":
		return domain.BuildBuilding
	default:
		return domain.BuildFailed
	}
}

// Ack is returned for every well-formed event, stored or not.
type Ack struct {
	Received bool   `json:"received"`
	Stored   bool   `json:"stored"`
	SiteID   string `json:"site_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Observer receives the status change for sites in the roster.
type Observer interface {
	Apply(o domain.Observation)
}

// Roster tells whether a URL belongs to the monitored fleet.
type Roster interface {
	Lookup(url string) (domain.Site, bool)
}

// Processor ingests deployment events.
type Processor struct {
	sink     sink.Sink
	observer Observer
	roster   Roster
	log      logger.Logger
	now      func() time.Time
}

// NewProcessor builds a processor. s and observer may be nil.
func NewProcessor(s sink.Sink, observer Observer, roster Roster, log logger.Logger) *Processor {
	return &Processor{
		sink:     s,
		observer: observer,
		roster:   roster,
		log:      log,
		now:      time.Now,
	}
}

// Process records the event and updates the cached status of the site.
// It never fails: lookup and persistence problems are reported in the Ack.
func (p *Processor) Process(ctx context.Context, e Event) Ack {
	url := e.SiteURL()
	status := e.Status()
	now := p.now()

	p.log.Info("deployment event received",
		logger.String("deploy_id", e.ID),
		logger.String("state", e.State),
		logger.String("name", e.Name),
		logger.String("url", url))

	if url == "" {
		return Ack{Received: true, Message: "payload has no site url"}
	}

	if p.observer != nil && p.roster != nil {
		if _, ok := p.roster.Lookup(url); ok {
			p.observer.Apply(domain.Observation{
				URL:       url,
				Status:    status,
				LastCheck: now,
				Source:    domain.SourceDeploy,
			})
		}
	}

	if p.sink == nil {
		return Ack{Received: true, Message: "no result sink configured, event logged only"}
	}

	site, err := p.sink.FindSite(ctx, url)
	if err != nil {
		if errors.Is(err, sink.ErrSiteNotFound) {
			p.log.Warn("deployment event for unknown site", logger.String("url", url))
			return Ack{Received: true, Message: "Site not found in database"}
		}
		p.log.Error("deployment event lookup failed", logger.String("url", url), logger.Error(err))
		return Ack{Received: true, Message: "failed to look up site"}
	}

	build := domain.BuildRecord{
		ID:         sink.NewID(),
		SiteID:     site.ID,
		Timestamp:  parseTimestamp(e.CreatedAt, now),
		Status:     e.BuildStatus(),
		BuildTime:  e.DeployTime,
		DeployTime: e.DeployTime,
	}
	if err := p.sink.InsertBuild(ctx, build); err != nil {
		p.log.Error("failed to store build", logger.String("url", url), logger.Error(err))
		return Ack{Received: true, SiteID: site.ID, Message: "failed to store build"}
	}

	if err := p.sink.UpdateSiteStatus(ctx, site.ID, domain.StatusUpdate{Status: status, LastCheck: now}); err != nil {
		p.log.Error("failed to update site status", logger.String("url", url), logger.Error(err))
		return Ack{Received: true, SiteID: site.ID, Message: "build stored, status update failed"}
	}

	return Ack{Received: true, Stored: true, SiteID: site.ID}
}

func parseTimestamp(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return fallback
}
