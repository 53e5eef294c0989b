// Package metrics renders the fleet state in the Prometheus text exposition format.
package metrics

import (
	"fmt"
	"io"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
)

// ContentType is the media type of the text exposition format
var ContentType = string(expfmt.NewFormat(expfmt.TypeTextPlain))

// Snapshot is everything the exporter needs from one scrape
type Snapshot struct {
	Views   []domain.SiteView
	LastRun *domain.FleetReport
	Now     time.Time
}

// Build turns a snapshot into metric families, in a stable order.
func Build(s Snapshot) []*dto.MetricFamily {
	up := family("sitepulse_site_up", "1 when the last probe classified the site as live.")
	readable := family("sitepulse_site_ai_readable", "1 when the site serves server-rendered content.")
	seo := family("sitepulse_site_seo_score", "Markup score of the last probe (0-100).")
	rt := family("sitepulse_site_response_time_ms", "Time to response headers of the last probe.")
	days := family("sitepulse_domain_days_until_expiration", "Whole days until the domain registration expires.")

	for _, v := range s.Views {
		labels := siteLabels(v)
		up.Metric = append(up.Metric, gauge(labels, boolValue(v.Status == domain.StatusLive)))
		readable.Metric = append(readable.Metric, gauge(labels, boolValue(v.AIReadable)))
		if v.SEO != nil {
			seo.Metric = append(seo.Metric, gauge(labels, float64(v.SEO.Total)))
		}
		if v.LastCheck != nil {
			rt.Metric = append(rt.Metric, gauge(labels, float64(v.ResponseTime)))
		}
		if v.Domain != nil && v.Domain.ExpirationDate != nil {
			dl := append(siteLabels(v), label("domain", v.RegistrableDomain()))
			days.Metric = append(days.Metric, gauge(dl, float64(domain.DaysUntil(*v.Domain.ExpirationDate, s.Now))))
		}
	}

	out := []*dto.MetricFamily{up, readable, seo, rt, days}

	if s.LastRun != nil {
		last := family("sitepulse_fleet_last_run_timestamp_seconds", "Unix time of the last completed fleet run.")
		last.Metric = append(last.Metric, gauge(nil, float64(s.LastRun.Timestamp.Unix())))
		dur := family("sitepulse_fleet_run_duration_ms", "Wall time of the last fleet run.")
		dur.Metric = append(dur.Metric, gauge(nil, float64(s.LastRun.TotalTimeMs)))
		out = append(out, last, dur)
	}

	// empty families are not valid exposition
	kept := out[:0]
	for _, mf := range out {
		if len(mf.Metric) > 0 {
			kept = append(kept, mf)
		}
	}
	return kept
}

// Write encodes families in the text format
func Write(w io.Writer, families []*dto.MetricFamily) error {
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func family(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: &name,
		Help: &help,
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func gauge(labels []*dto.LabelPair, v float64) *dto.Metric {
	return &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: &v},
	}
}

func siteLabels(v domain.SiteView) []*dto.LabelPair {
	return []*dto.LabelPair{
		label("ecosystem", string(v.Ecosystem)),
		label("name", v.Name),
		label("url", v.URL),
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: &name, Value: &value}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
