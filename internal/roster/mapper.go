package roster

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
)

// ErrEmptyRoster is returned when the file defines no sites
var ErrEmptyRoster = errors.New("no sites found in roster")

// Mapper converts roster entries to domain.Site values
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapSites converts the parsed file into sites, preserving file order.
// Every problem is reported at once so a broken file can be fixed in one pass.
func (m *Mapper) MapSites(file File) ([]domain.Site, error) {
	if len(file.Sites) == 0 {
		return nil, ErrEmptyRoster
	}

	sites := make([]domain.Site, 0, len(file.Sites))
	seen := make(map[string]int, len(file.Sites))
	var errs []error

	for i, entry := range file.Sites {
		site, err := mapEntry(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("site #%d (%s): %w", i+1, entry.Name, err))
			continue
		}
		if prev, dup := seen[site.URL]; dup {
			errs = append(errs, fmt.Errorf("site #%d (%s): url %s already used by site #%d", i+1, entry.Name, site.URL, prev))
			continue
		}
		seen[site.URL] = i + 1
		sites = append(sites, site)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return sites, nil
}

func mapEntry(e SiteEntry) (domain.Site, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return domain.Site{}, errors.New("name is required")
	}

	rawURL := strings.TrimSpace(e.URL)
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.Site{}, fmt.Errorf("url %q must be an absolute http(s) url", rawURL)
	}

	status := domain.StatusNotBuilt
	if e.Status != "" {
		status = domain.Status(strings.ToLower(strings.TrimSpace(e.Status)))
		if !status.Valid() {
			return domain.Site{}, fmt.Errorf("unknown status %q", e.Status)
		}
	}

	priority := domain.Priority(strings.ToUpper(strings.TrimSpace(e.Priority)))
	switch priority {
	case domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow:
	case "":
		priority = domain.PriorityMedium
	default:
		return domain.Site{}, fmt.Errorf("unknown priority %q", e.Priority)
	}

	ecosystem := domain.Ecosystem(strings.TrimSpace(e.Ecosystem))
	if ecosystem == "" {
		ecosystem = domain.EcosystemOther
	}

	site := domain.Site{
		URL:               rawURL,
		Name:              name,
		Ecosystem:         ecosystem,
		Priority:          priority,
		InitialStatus:     status,
		InitialAIReadable: e.AIReadable,
		Framework:         strings.TrimSpace(e.Framework),
		NextAction:        strings.TrimSpace(e.NextAction),
	}

	if e.Domain != nil {
		info, err := mapDomain(*e.Domain)
		if err != nil {
			return domain.Site{}, err
		}
		site.Domain = &info
	}
	return site, nil
}

func mapDomain(d DomainEntry) (domain.DomainInfo, error) {
	info := domain.DomainInfo{
		Registered:         d.Registered,
		Registrar:          strings.TrimSpace(d.Registrar),
		AutoRenew:          d.AutoRenew,
		PrivacyEnabled:     d.PrivacyEnabled,
		HostingAtRegistrar: d.HostingAtRegistrar,
		Notes:              strings.TrimSpace(d.Notes),
	}
	if d.ExpirationDate != "" {
		exp, err := parseDate(d.ExpirationDate)
		if err != nil {
			return domain.DomainInfo{}, err
		}
		info.ExpirationDate = &exp
	}
	return info, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid expiration_date %q (want YYYY-MM-DD)", s)
}
