package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sink backends
const (
	SinkNone     = "none"
	SinkMemory   = "memory"
	SinkRedis    = "redis"
	SinkPostgres = "postgres"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	ReadTimeout     time.Duration // http.Server read timeout
	WriteTimeout    time.Duration // http.Server write timeout, must cover a synchronous fleet run

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Roster
	RosterFile  string // path to the sites.yaml roster
	WatchRoster bool   // reload the roster when the file changes

	// Probing
	CheckInterval   time.Duration // periodic fleet run (default: 15m)
	ProbeTimeout    time.Duration // per-probe timeout (default: 15s)
	Concurrency     int           // max probes in flight per fleet run (default: 5)
	FleetTimeout    time.Duration // deadline of a whole fleet run (default: 90s)
	UserAgent       string        // User-Agent sent to monitored sites
	MaxBodyBytes    int64         // response body cap
	ContentMinBytes int           // content heuristic, plain pages
	ShellMinBytes   int           // content heuristic, client-rendered shells
	ShellMarker     string        // marker identifying a client-rendered shell

	// Result sink
	SinkBackend   string        // none | memory | redis | postgres
	DatabaseURL   string        // postgres connection string
	DBMaxConns    int32         // pgxpool max connections
	DBMinConns    int32         // pgxpool min connections
	Retention     time.Duration // stored checks older than this are pruned (default: 30d)
	SweepInterval time.Duration // interval of the retention sweep (default: 24h)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Notifications
	AlertWebhookURL string // Slack-compatible incoming webhook, empty = disabled

	// HTTP surface
	CORSOrigins  []string // allowed CORS origins, empty = CORS disabled
	RateLimit    float64  // requests per second per client on probe endpoints, 0 = disabled
	RateBurst    int      // burst of the per-client limiter
	AllowedHosts []string // optional, restrict admin routes to specific Host headers
	AllowedCIDRS []string // optional, restrict admin routes to specific IPs (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SITEPULSE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SITEPULSE_SHUTDOWN_TIMEOUT", 5*time.Second),
		ReadTimeout:     mustDuration("SITEPULSE_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    mustDuration("SITEPULSE_WRITE_TIMEOUT", 120*time.Second),

		// Logging
		LogLevel:  getenv("SITEPULSE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SITEPULSE_PRETTY_LOG", true),

		// Roster
		RosterFile:  getenv("SITEPULSE_ROSTER_FILE", "/app/sites.yaml"),
		WatchRoster: mustBool("SITEPULSE_WATCH_ROSTER", true),

		// Probing
		CheckInterval:   mustDuration("SITEPULSE_CHECK_INTERVAL", 15*time.Minute),
		ProbeTimeout:    mustDuration("SITEPULSE_PROBE_TIMEOUT", 15*time.Second),
		Concurrency:     getenvInt("SITEPULSE_CONCURRENCY", 5),
		FleetTimeout:    mustDuration("SITEPULSE_FLEET_TIMEOUT", 90*time.Second),
		UserAgent:       getenv("SITEPULSE_USER_AGENT", "AI-Discoverability-Checker/1.0"),
		MaxBodyBytes:    int64(getenvInt("SITEPULSE_MAX_BODY_BYTES", 5<<20)),
		ContentMinBytes: getenvInt("SITEPULSE_CONTENT_MIN_BYTES", 5000),
		ShellMinBytes:   getenvInt("SITEPULSE_SHELL_MIN_BYTES", 50000),
		ShellMarker:     getenv("SITEPULSE_SHELL_MARKER", `id="__next"`),

		// Result sink
		SinkBackend:   strings.ToLower(getenv("SITEPULSE_SINK", SinkNone)),
		DatabaseURL:   getenv("SITEPULSE_DATABASE_URL", ""),
		DBMaxConns:    int32(getenvInt("SITEPULSE_DB_MAX_CONNS", 10)),
		DBMinConns:    int32(getenvInt("SITEPULSE_DB_MIN_CONNS", 1)),
		Retention:     mustDuration("SITEPULSE_RETENTION", 30*24*time.Hour),
		SweepInterval: mustDuration("SITEPULSE_SWEEP_INTERVAL", 24*time.Hour),

		// Notifications
		AlertWebhookURL: getenv("SITEPULSE_ALERT_WEBHOOK_URL", ""),

		// HTTP surface
		CORSOrigins:  splitAndTrim(getenv("SITEPULSE_CORS_ORIGINS", "")),
		RateLimit:    getenvFloat("SITEPULSE_RATE_LIMIT", 2),
		RateBurst:    getenvInt("SITEPULSE_RATE_BURST", 5),
		AllowedHosts: splitAndTrim(getenv("SITEPULSE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("SITEPULSE_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SITEPULSE_TRUST_PROXY", true),
	}

	switch cfg.SinkBackend {
	case SinkNone, SinkMemory:
	case SinkRedis:
		loadRedis(cfg)
	case SinkPostgres:
		cfg.DatabaseURL = requireEnv("SITEPULSE_DATABASE_URL")
	default:
		panic(fmt.Sprintf("❌ FATAL: SITEPULSE_SINK must be one of none, memory, redis, postgres (got %q)", cfg.SinkBackend))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// loadRedis reads the Redis settings, required only when Redis is the sink.
func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("SITEPULSE_REDIS_ADDR")
	cfg.RedisUser = getenv("SITEPULSE_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("SITEPULSE_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("SITEPULSE_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("SITEPULSE_REDIS_DB")
	cfg.RedisDT = mustDuration("SITEPULSE_REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("SITEPULSE_REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("SITEPULSE_REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("SITEPULSE_REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("SITEPULSE_REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("SITEPULSE_REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("SITEPULSE_REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("SITEPULSE_REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("SITEPULSE_REDIS_WARN_THRESHOLD", 3)

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: SITEPULSE_REDIS_PASSWORD is required when SITEPULSE_REDIS_PASSWORD_REQUIRED=true")
	}
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	if cp.DatabaseURL != "" {
		cp.DatabaseURL = "***REDACTED***"
	}
	if cp.AlertWebhookURL != "" {
		cp.AlertWebhookURL = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
