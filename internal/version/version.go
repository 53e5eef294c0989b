package version

import (
	"fmt"
	"runtime"
)

// Overridden at build time with -ldflags "-X github.com/MrSnakeDoc/sitepulse/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// UserAgentSuffix is appended to outbound notification requests.
func UserAgentSuffix() string {
	return fmt.Sprintf("sitepulse/%s", Version)
}

// String renders the one-line build banner used by the CLI and startup log.
func String() string {
	return fmt.Sprintf("sitepulse %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
