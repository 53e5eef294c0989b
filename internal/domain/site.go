package domain

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Status is the observed or declared lifecycle state of a site.
type Status string

const (
	StatusLive      Status = "live"
	StatusError     Status = "error"
	StatusBuilding  Status = "building"
	StatusDeploying Status = "deploying"
	StatusNotBuilt  Status = "not-built"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusLive, StatusError, StatusBuilding, StatusDeploying, StatusNotBuilt:
		return true
	}
	return false
}

// Label is the human readable status shown on dashboards and notifications.
func (s Status) Label() string {
	switch s {
	case StatusLive:
		return "Live & AI-Readable"
	case StatusBuilding:
		return "Building"
	case StatusDeploying:
		return "Deploying"
	case StatusError:
		return "Error"
	case StatusNotBuilt:
		return "Not Built"
	default:
		return "Unknown"
	}
}

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Ecosystem groups related sites together on the dashboard.
type Ecosystem string

const EcosystemOther Ecosystem = "other"

// Registrars that mean "we don't actually know who holds this domain".
const (
	RegistrarOther         = "Other"
	RegistrarNotRegistered = "Not Registered"
)

// DomainInfo carries the registration facts for a site's domain.
type DomainInfo struct {
	Registered         bool       `json:"registered"`
	Registrar          string     `json:"registrar,omitempty"`
	ExpirationDate     *time.Time `json:"expiration_date,omitempty"`
	AutoRenew          bool       `json:"auto_renew"`
	PrivacyEnabled     bool       `json:"privacy_enabled"`
	HostingAtRegistrar bool       `json:"hosting_at_registrar"`
	Notes              string     `json:"notes,omitempty"`
}

// Site is one entry of the monitored roster.
//
// It holds static configuration only. The live state (current status,
// last check, SEO score) lives in an Observation and is joined at read time.
type Site struct {
	// URL is the absolute address probed and the identity key of the site.
	URL string `json:"url"`

	Name      string    `json:"name"`
	Ecosystem Ecosystem `json:"ecosystem"`
	Priority  Priority  `json:"priority"`

	// InitialStatus is the roster-declared placeholder used until a probe,
	// webhook, or persisted observation says otherwise (ex: not-built).
	InitialStatus Status `json:"initial_status"`

	// InitialAIReadable mirrors InitialStatus for the readability flag.
	InitialAIReadable bool `json:"initial_ai_readable"`

	Framework  string      `json:"framework,omitempty"`
	NextAction string      `json:"next_action,omitempty"`
	Domain     *DomainInfo `json:"domain_info,omitempty"`
}

// Hostname returns the lower-cased host of the site URL, without port.
func (s Site) Hostname() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// RegistrableDomain returns the eTLD+1 the registration facts apply to.
// Example: "app.thereisstilltime.com" -> "thereisstilltime.com"
func (s Site) RegistrableDomain() string {
	host := s.Hostname()
	if host == "" {
		return ""
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}
