package history

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/sink"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

var (
	// ErrNotConfigured means no result sink is available to read from.
	ErrNotConfigured = eris.New("history unavailable: no result sink configured")
	// ErrSiteRequired means the query named no site.
	ErrSiteRequired = eris.New("site url is required")
	// ErrSiteNotFound means the sink holds no such site.
	ErrSiteNotFound = sink.ErrSiteNotFound
)

// SiteRef identifies the site a history belongs to.
type SiteRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Stats are computed over the returned window of checks only.
type Stats struct {
	TotalChecks      int     `json:"total_checks"`
	SuccessfulChecks int     `json:"successful_checks"`
	UptimePercentage float64 `json:"uptime_percentage"`
	AvgResponseTime  float64 `json:"avg_response_time"`
}

// Result is the answer to a history query.
type Result struct {
	Site   SiteRef              `json:"site"`
	Checks []domain.CheckRecord `json:"checks"`
	Stats  Stats                `json:"stats"`
}

// Service answers history queries from a result sink.
type Service struct {
	sink sink.Sink
}

// NewService builds a history service. s may be nil.
func NewService(s sink.Sink) *Service {
	return &Service{sink: s}
}

// Query returns the most recent checks of siteURL, newest first, with stats.
func (s *Service) Query(ctx context.Context, siteURL string, limit int) (Result, error) {
	if s == nil || s.sink == nil {
		return Result{}, ErrNotConfigured
	}
	if siteURL == "" {
		return Result{}, ErrSiteRequired
	}

	site, err := s.sink.FindSite(ctx, siteURL)
	if err != nil {
		if errors.Is(err, sink.ErrSiteNotFound) {
			return Result{}, eris.Wrapf(ErrSiteNotFound, "history for %s", siteURL)
		}
		return Result{}, eris.Wrapf(err, "history: find site %s", siteURL)
	}

	checks, err := s.sink.RecentChecks(ctx, site.ID, NormalizeLimit(limit))
	if err != nil {
		return Result{}, eris.Wrapf(err, "history: checks of %s", siteURL)
	}
	if checks == nil {
		checks = []domain.CheckRecord{}
	}

	return Result{
		Site:   SiteRef{ID: site.ID, Name: site.Name, URL: site.URL},
		Checks: checks,
		Stats:  ComputeStats(checks),
	}, nil
}

// NormalizeLimit applies the default and upper bound to a requested limit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// ComputeStats derives uptime and latency figures. Uptime is the share of
// live checks; the average ignores checks with no recorded response time.
func ComputeStats(checks []domain.CheckRecord) Stats {
	st := Stats{TotalChecks: len(checks)}

	var sum int64
	var timed int
	for _, c := range checks {
		if c.Status == domain.StatusLive {
			st.SuccessfulChecks++
		}
		if c.ResponseTime > 0 {
			sum += c.ResponseTime
			timed++
		}
	}

	if st.TotalChecks > 0 {
		st.UptimePercentage = float64(st.SuccessfulChecks) / float64(st.TotalChecks) * 100
	}
	if timed > 0 {
		st.AvgResponseTime = float64(sum) / float64(timed)
	}
	return st
}
