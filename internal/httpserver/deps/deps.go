package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/deploy"
	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/history"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/observe"
	"github.com/MrSnakeDoc/sitepulse/internal/roster"
	"github.com/MrSnakeDoc/sitepulse/internal/sink"
)

// Prober runs a single probe
type Prober interface {
	Probe(ctx context.Context, url string) domain.ProbeResult
}

// FleetChecker runs the whole roster synchronously
type FleetChecker interface {
	Check(ctx context.Context) domain.FleetReport
	Running() bool
}

// RosterReloader re-reads the roster file
type RosterReloader interface {
	Reload(ctx context.Context) error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to reach admin routes
	AllowedCIDRS []string         // IPs allowed to reach admin and probe endpoints
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins  []string         // browser origins allowed to call the API
	RateLimit    float64          // per-client requests per second on probe endpoints, 0 = off
	RateBurst    int              // per-client burst

	RosterFile   string               // Path to the roster file
	Roster       *roster.Holder       // Current roster
	Reloader     RosterReloader       // Re-reads the roster on demand
	Store        *observe.MemoryStore // Latest observation per site
	Prober       Prober               // Single-URL prober
	Fleet        FleetChecker         // Synchronous fleet runs
	Sink         sink.Sink            // Result sink (nil = not configured)
	History      *history.Service     // History queries over Sink
	Deploys      *deploy.Processor    // Deployment webhook ingestion
	CheckTrigger chan struct{}        // Channel to trigger an asynchronous fleet run
}

// Now returns the current time through TimeNow when set
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
