package redis

const (
	// KeyPrefixSite is the prefix for site record keys
	KeyPrefixSite = "sitepulse:site:"
	// KeyPrefixChecks is the prefix for per-site check timelines
	KeyPrefixChecks = "sitepulse:checks:"
	// KeyPrefixBuilds is the prefix for per-site build timelines
	KeyPrefixBuilds = "sitepulse:builds:"
	// KeyAllSites is the key for the set of all site IDs
	KeyAllSites = "sitepulse:sites:all"
)

// SiteKey returns the Redis key for a site by ID
func SiteKey(id string) string {
	return KeyPrefixSite + id
}

// ChecksKey returns the sorted set holding the checks of a site, scored by timestamp
func ChecksKey(siteID string) string {
	return KeyPrefixChecks + siteID
}

// BuildsKey returns the sorted set holding the builds of a site, scored by timestamp
func BuildsKey(siteID string) string {
	return KeyPrefixBuilds + siteID
}

// AllSitesKey returns the key for the set of all site IDs
func AllSitesKey() string {
	return KeyAllSites
}
