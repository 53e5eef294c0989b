package roster

// File is the root structure of the roster YAML file.
//
//	sites:
//	  - name: The Citizens Compass
//	    url: https://thecitizenscompass.com
//	    ecosystem: art-of-citizenship
//	    priority: LOW
//	    status: live
//	    ai_readable: true
//	    domain:
//	      registered: true
//	      registrar: Name.com
//	      expiration_date: 2026-11-02
type File struct {
	Sites []SiteEntry `yaml:"sites"`
}

// SiteEntry represents a single site in the YAML
type SiteEntry struct {
	Name       string       `yaml:"name"`
	URL        string       `yaml:"url"`
	Ecosystem  string       `yaml:"ecosystem"`
	Priority   string       `yaml:"priority"`
	Status     string       `yaml:"status"`
	Framework  string       `yaml:"framework"`
	AIReadable bool         `yaml:"ai_readable"`
	NextAction string       `yaml:"next_action"`
	Domain     *DomainEntry `yaml:"domain"`
}

// DomainEntry holds the registration facts of a site's domain.
// ExpirationDate accepts 2006-01-02 or RFC 3339.
type DomainEntry struct {
	Registered         bool   `yaml:"registered"`
	Registrar          string `yaml:"registrar"`
	ExpirationDate     string `yaml:"expiration_date"`
	AutoRenew          bool   `yaml:"auto_renew"`
	PrivacyEnabled     bool   `yaml:"privacy_enabled"`
	HostingAtRegistrar bool   `yaml:"hosting_at_registrar"`
	Notes              string `yaml:"notes"`
}
