package domain

import "time"

// ObservationSource tells where the latest observation came from.
type ObservationSource string

const (
	SourceProbe   ObservationSource = "probe"
	SourceDeploy  ObservationSource = "deploy"
	SourceRestore ObservationSource = "restore"
)

// Observation is the mutable, latest-known state of one site, keyed by URL.
type Observation struct {
	URL          string            `json:"url"`
	Status       Status            `json:"status"`
	AIReadable   bool              `json:"ai_readable"`
	ContentFound bool              `json:"content_found"`
	LastCheck    time.Time         `json:"last_check"`
	ResponseTime int64             `json:"response_time"`
	Error        string            `json:"error,omitempty"`
	SEO          *SEOScore         `json:"seo,omitempty"`
	Source       ObservationSource `json:"source"`
}

// ObservationFromProbe converts a probe result into an observation.
func ObservationFromProbe(r ProbeResult) Observation {
	return Observation{
		URL:          r.URL,
		Status:       r.Status,
		AIReadable:   r.AIReadable,
		ContentFound: r.ContentFound,
		LastCheck:    r.Timestamp,
		ResponseTime: r.ResponseTime,
		Error:        r.Error,
		SEO:          r.SEO,
		Source:       SourceProbe,
	}
}

// Merge folds next on top of o. Deployment events only carry a status, so
// they keep the readability and SEO facts of the previous probe.
// Older observations never replace newer ones.
func (o Observation) Merge(next Observation) Observation {
	if !o.LastCheck.IsZero() && next.LastCheck.Before(o.LastCheck) {
		return o
	}
	if next.Source != SourceDeploy || o.URL == "" {
		return next
	}
	merged := o
	merged.Status = next.Status
	merged.LastCheck = next.LastCheck
	merged.Source = SourceDeploy
	if next.Status != StatusLive {
		merged.AIReadable = false
	}
	return merged
}

// SiteView is a roster entry joined with its latest observation.
type SiteView struct {
	Site
	Status       Status     `json:"current_status"`
	AIReadable   bool       `json:"ai_readable"`
	LastCheck    *time.Time `json:"last_check,omitempty"`
	ResponseTime int64      `json:"response_time,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	SEO          *SEOScore  `json:"seo,omitempty"`
}

// Join merges the roster with observations at read time. Sites without an
// observation fall back to their roster placeholders. Order follows sites.
func Join(sites []Site, obs map[string]Observation) []SiteView {
	out := make([]SiteView, 0, len(sites))
	for _, s := range sites {
		v := SiteView{
			Site:       s,
			Status:     s.InitialStatus,
			AIReadable: s.InitialAIReadable,
		}
		if v.Status == "" {
			v.Status = StatusNotBuilt
		}
		if o, ok := obs[s.URL]; ok {
			v.Status = o.Status
			v.AIReadable = o.AIReadable
			v.ResponseTime = o.ResponseTime
			v.LastError = o.Error
			v.SEO = o.SEO
			if !o.LastCheck.IsZero() {
				at := o.LastCheck
				v.LastCheck = &at
			}
		}
		out = append(out, v)
	}
	return out
}

// DashboardSummary holds the headline counters of the site list.
// A site may count in more than one bucket.
type DashboardSummary struct {
	Total           int `json:"total"`
	LiveAndReadable int `json:"live_and_readable"`
	InProgress      int `json:"in_progress"`
	NeedsAttention  int `json:"needs_attention"`
}

func Summarize(views []SiteView) DashboardSummary {
	s := DashboardSummary{Total: len(views)}
	for _, v := range views {
		if v.Status == StatusLive && v.AIReadable {
			s.LiveAndReadable++
		}
		if v.Status == StatusBuilding || v.Status == StatusDeploying {
			s.InProgress++
		}
		if v.Status == StatusNotBuilt || v.Status == StatusError || !v.AIReadable {
			s.NeedsAttention++
		}
	}
	return s
}
