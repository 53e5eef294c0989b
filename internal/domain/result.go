package domain

import "time"

// ProbeResult is the outcome of one probe attempt against one site.
// A site accumulates many of these over time; each one is immutable.
type ProbeResult struct {
	URL          string    `json:"url"`
	Status       Status    `json:"status"`
	ContentFound bool      `json:"content_found"`
	ResponseTime int64     `json:"response_time"` // milliseconds, 0 on failure
	Timestamp    time.Time `json:"timestamp"`
	Error        string    `json:"error,omitempty"`
	AIReadable   bool      `json:"ai_readable"`
	HTMLLength   int       `json:"html_length"`
	StatusCode   int       `json:"status_code,omitempty"`
	SEO          *SEOScore `json:"seo,omitempty"`
}

// FleetEntry is a probe result labelled with the roster name of the site.
type FleetEntry struct {
	Name string `json:"name"`
	ProbeResult
}

// FleetSummary aggregates a fleet run.
type FleetSummary struct {
	Live       int     `json:"live"`
	Errors     int     `json:"errors"`
	AIReadable int     `json:"ai_readable"`
	AvgSEO     float64 `json:"avg_seo_score"`
}

// FleetReport is the result of one fleet run. Results follow roster order
// and there is exactly one entry per roster site.
type FleetReport struct {
	Timestamp   time.Time    `json:"timestamp"`
	TotalSites  int          `json:"total_sites"`
	TotalTimeMs int64        `json:"total_time_ms"`
	Results     []FleetEntry `json:"results"`
	Summary     FleetSummary `json:"summary"`
}

// SummarizeRun computes the run-level counters over a set of results.
func SummarizeRun(results []FleetEntry) FleetSummary {
	var s FleetSummary
	var seoTotal, scored int
	for _, r := range results {
		switch r.Status {
		case StatusLive:
			s.Live++
		case StatusError:
			s.Errors++
		}
		if r.AIReadable {
			s.AIReadable++
		}
		if r.SEO != nil {
			seoTotal += r.SEO.Total
			scored++
		}
	}
	if scored > 0 {
		s.AvgSEO = float64(seoTotal) / float64(scored)
	}
	return s
}

// ─────────────────────────────────────────────────────────────────
// Persisted records (result sink)
// ─────────────────────────────────────────────────────────────────

// SiteRecord is the persisted identity of a site plus its cached status.
type SiteRecord struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	URL           string     `json:"url"`
	Ecosystem     Ecosystem  `json:"ecosystem,omitempty"`
	Priority      Priority   `json:"priority,omitempty"`
	CurrentStatus Status     `json:"current_status"`
	LastCheck     *time.Time `json:"last_check,omitempty"`
	AIReadable    bool       `json:"ai_readable"`
}

// CheckRecord is one stored probe outcome.
type CheckRecord struct {
	ID           string    `json:"id"`
	SiteID       string    `json:"site_id"`
	Timestamp    time.Time `json:"timestamp"`
	Status       Status    `json:"status"`
	ContentFound bool      `json:"content_found"`
	ResponseTime int64     `json:"response_time"`
	Error        *string   `json:"error"`
}

// NewCheckRecord derives the stored form of a probe result.
func NewCheckRecord(id, siteID string, r ProbeResult) CheckRecord {
	rec := CheckRecord{
		ID:           id,
		SiteID:       siteID,
		Timestamp:    r.Timestamp,
		Status:       r.Status,
		ContentFound: r.ContentFound,
		ResponseTime: r.ResponseTime,
	}
	if r.Error != "" {
		msg := r.Error
		rec.Error = &msg
	}
	return rec
}

type BuildStatus string

const (
	BuildSuccess  BuildStatus = "success"
	BuildFailed   BuildStatus = "failed"
	BuildBuilding BuildStatus = "building"
)

// BuildRecord is one stored deployment event.
type BuildRecord struct {
	ID         string      `json:"id"`
	SiteID     string      `json:"site_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Status     BuildStatus `json:"status"`
	BuildTime  *int64      `json:"build_time"`
	DeployTime *int64      `json:"deploy_time"`
}

// StatusUpdate is the cached-status change applied to a SiteRecord.
// AIReadable is left untouched when nil.
type StatusUpdate struct {
	Status     Status
	LastCheck  time.Time
	AIReadable *bool
}
