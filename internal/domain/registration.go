package domain

import (
	"math"
	"time"
)

type AlertLevel string

const (
	AlertCritical         AlertLevel = "critical"
	AlertWarning          AlertLevel = "warning"
	AlertUnknownRegistrar AlertLevel = "unknown_registrar"
)

// DomainAlert flags a site whose domain registration needs action.
type DomainAlert struct {
	Level          AlertLevel `json:"level"`
	Name           string     `json:"name"`
	URL            string     `json:"url"`
	Domain         string     `json:"domain"`
	Registrar      string     `json:"registrar,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	DaysLeft       *int       `json:"days_until_expiration,omitempty"`
	Reason         string     `json:"reason"`
}

// DomainAlerts groups alerts by level. Critical and Warning are disjoint.
type DomainAlerts struct {
	Critical         []DomainAlert `json:"critical"`
	Warning          []DomainAlert `json:"warning"`
	UnknownRegistrar []DomainAlert `json:"unknown_registrar"`
}

// Len is the number of expiring or unregistered domains.
func (a DomainAlerts) Len() int { return len(a.Critical) + len(a.Warning) }

// DaysUntil returns whole days from now to exp, rounded up.
func DaysUntil(exp, now time.Time) int {
	return int(math.Ceil(exp.Sub(now).Hours() / 24))
}

// EvaluateDomains inspects the registration facts of every view.
//
//   - critical: not registered, or expiring within one month (expired included)
//   - warning: expiring within three months
//   - unknown_registrar: registered, live, but registrar unknown
func EvaluateDomains(views []SiteView, now time.Time) DomainAlerts {
	alerts := DomainAlerts{
		Critical:         []DomainAlert{},
		Warning:          []DomainAlert{},
		UnknownRegistrar: []DomainAlert{},
	}
	oneMonth := now.AddDate(0, 1, 0)
	threeMonths := now.AddDate(0, 3, 0)

	for _, v := range views {
		info := v.Domain
		if info == nil {
			continue
		}
		base := DomainAlert{
			Name:      v.Name,
			URL:       v.URL,
			Domain:    v.RegistrableDomain(),
			Registrar: info.Registrar,
		}

		switch {
		case !info.Registered:
			a := base
			a.Level = AlertCritical
			a.Reason = "domain not registered"
			alerts.Critical = append(alerts.Critical, a)
		case info.ExpirationDate != nil && !info.ExpirationDate.After(threeMonths):
			a := base
			exp := *info.ExpirationDate
			days := DaysUntil(exp, now)
			a.ExpirationDate = &exp
			a.DaysLeft = &days
			if !exp.After(oneMonth) {
				a.Level = AlertCritical
				a.Reason = "domain expires within one month"
				alerts.Critical = append(alerts.Critical, a)
			} else {
				a.Level = AlertWarning
				a.Reason = "domain expires within three months"
				alerts.Warning = append(alerts.Warning, a)
			}
		}

		if info.Registered && v.Status == StatusLive &&
			(info.Registrar == RegistrarOther || info.Registrar == RegistrarNotRegistered) {
			a := base
			a.Level = AlertUnknownRegistrar
			a.Reason = "registrar unknown, renewals cannot be managed"
			alerts.UnknownRegistrar = append(alerts.UnknownRegistrar, a)
		}
	}
	return alerts
}
