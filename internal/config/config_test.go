package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireEnv(t *testing.T) {
	t.Setenv("SITEPULSE_TEST_REQUIRED", "value")
	assert.Equal(t, "value", requireEnv("SITEPULSE_TEST_REQUIRED"))

	t.Setenv("SITEPULSE_TEST_REQUIRED", "")
	assert.PanicsWithValue(t,
		"❌ FATAL: Required environment variable SITEPULSE_TEST_REQUIRED is not set",
		func() { requireEnv("SITEPULSE_TEST_REQUIRED") })
}

func TestRequireEnvInt(t *testing.T) {
	t.Setenv("SITEPULSE_TEST_INT", "42")
	assert.Equal(t, 42, requireEnvInt("SITEPULSE_TEST_INT"))

	t.Setenv("SITEPULSE_TEST_INT", "forty-two")
	assert.Panics(t, func() { requireEnvInt("SITEPULSE_TEST_INT") })

	t.Setenv("SITEPULSE_TEST_INT", "")
	assert.Panics(t, func() { requireEnvInt("SITEPULSE_TEST_INT") })
}

func TestLenientParsers(t *testing.T) {
	t.Setenv("SITEPULSE_TEST_DUR", "90s")
	assert.Equal(t, 90*time.Second, mustDuration("SITEPULSE_TEST_DUR", time.Second))
	t.Setenv("SITEPULSE_TEST_DUR", "soon")
	assert.Equal(t, time.Second, mustDuration("SITEPULSE_TEST_DUR", time.Second))

	t.Setenv("SITEPULSE_TEST_BOOL", "false")
	assert.False(t, mustBool("SITEPULSE_TEST_BOOL", true))
	t.Setenv("SITEPULSE_TEST_BOOL", "maybe")
	assert.True(t, mustBool("SITEPULSE_TEST_BOOL", true))

	t.Setenv("SITEPULSE_TEST_NUM", "2.5")
	assert.InDelta(t, 2.5, getenvFloat("SITEPULSE_TEST_NUM", 1), 1e-9)
	assert.Equal(t, 7, getenvInt("SITEPULSE_TEST_NUM", 7))
}

func TestSplitAndTrim(t *testing.T) {
	tests := map[string][]string{
		"":                                nil,
		" , ,":                            {},
		"a.example.com":                   {"a.example.com"},
		`"https://a.example", 'b' , c ,,`: {"https://a.example", "b", "c"},
	}
	for in, want := range tests {
		got := splitAndTrim(in)
		if want == nil {
			assert.Nil(t, got, "input %q", in)
			continue
		}
		assert.ElementsMatch(t, want, got, "input %q", in)
	}

	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.4"}, parseAllowedIPs(" 10.0.0.0/8 ,192.168.1.4"))
	assert.Nil(t, parseAllowedIPs(""))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SITEPULSE_SINK", "")
	t.Setenv("SITEPULSE_LOG_LEVEL", "info")

	cfg := Load()
	assert.Equal(t, SinkNone, cfg.SinkBackend)
	assert.Equal(t, 15*time.Minute, cfg.CheckInterval)
	assert.Equal(t, 15*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 90*time.Second, cfg.FleetTimeout)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, `id="__next"`, cfg.ShellMarker)
	assert.Equal(t, 5000, cfg.ContentMinBytes)
	assert.Equal(t, 50000, cfg.ShellMinBytes)
	assert.Equal(t, 720*time.Hour, cfg.Retention)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_Sinks(t *testing.T) {
	t.Setenv("SITEPULSE_LOG_LEVEL", "info")

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("SITEPULSE_SINK", "mongo")
		assert.Panics(t, func() { Load() })
	})

	t.Run("postgres needs a database url", func(t *testing.T) {
		t.Setenv("SITEPULSE_SINK", "postgres")
		t.Setenv("SITEPULSE_DATABASE_URL", "")
		assert.Panics(t, func() { Load() })
	})

	t.Run("redis is case insensitive", func(t *testing.T) {
		t.Setenv("SITEPULSE_SINK", "Redis")
		t.Setenv("SITEPULSE_REDIS_ADDR", "localhost:6379")
		t.Setenv("SITEPULSE_REDIS_DB", "2")
		t.Setenv("SITEPULSE_REDIS_PASSWORD_REQUIRED", "false")

		cfg := Load()
		assert.Equal(t, SinkRedis, cfg.SinkBackend)
		assert.Equal(t, "localhost:6379", cfg.RedisAddr)
		assert.Equal(t, 2, cfg.RedisDB)
		assert.Equal(t, 2*time.Second, cfg.RedisRetryInterval)
	})

	t.Run("redis password enforced", func(t *testing.T) {
		t.Setenv("SITEPULSE_SINK", "redis")
		t.Setenv("SITEPULSE_REDIS_ADDR", "localhost:6379")
		t.Setenv("SITEPULSE_REDIS_DB", "0")
		t.Setenv("SITEPULSE_REDIS_PASSWORD_REQUIRED", "true")
		t.Setenv("SITEPULSE_REDIS_PASSWORD", "")
		assert.Panics(t, func() { Load() })
	})
}

func TestRedacted(t *testing.T) {
	cfg := &Config{
		RedisPassword:   "hunter2",
		RedisUser:       "default",
		DatabaseURL:     "postgres://u:p@db/sitepulse",
		AlertWebhookURL: "https://hooks.slack.example/T000/B000",
		RedisAddr:       "localhost:6379",
	}

	red := cfg.Redacted()
	require.Equal(t, "***REDACTED***", red.RedisPassword)
	assert.Equal(t, "***REDACTED***", red.RedisUser)
	assert.Equal(t, "***REDACTED***", red.DatabaseURL)
	assert.Equal(t, "***REDACTED***", red.AlertWebhookURL)
	assert.Equal(t, "localhost:6379", red.RedisAddr)

	assert.Equal(t, "hunter2", cfg.RedisPassword, "receiver must not be modified")
	assert.Empty(t, (&Config{}).Redacted().DatabaseURL)
}
