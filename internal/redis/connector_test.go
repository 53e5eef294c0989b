package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/sitepulse/internal/logger"
)

type flakyPinger struct {
	failures int32
	calls    atomic.Int32
}

func (p *flakyPinger) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if p.calls.Add(1) <= p.failures {
		cmd.SetErr(errors.New("connection refused"))
	}
	return cmd
}

func validOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "localhost:6379",
		ConnectTimeout: time.Second,
		RetryInterval:  time.Millisecond,
		MaxWait:        4 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestConnectOptions_Validate(t *testing.T) {
	require.NoError(t, validOptions().Validate())

	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"no addr", func(o *ConnectOptions) { o.Addr = "" }},
		{"no connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"no retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{"max wait below interval", func(o *ConnectOptions) { o.MaxWait = 0 }},
		{"no ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
		{"negative threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOptions()
			tt.mutate(&o)
			assert.Error(t, o.Validate())
		})
	}
}

func TestNextWait(t *testing.T) {
	assert.Equal(t, 4*time.Second, nextWait(2*time.Second, 10*time.Second))
	assert.Equal(t, 10*time.Second, nextWait(8*time.Second, 10*time.Second))
}

func TestWaitReady_RetriesUntilReachable(t *testing.T) {
	p := &flakyPinger{failures: 3}
	err := waitReady(context.Background(), p, validOptions(), logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, int32(4), p.calls.Load())
}

func TestWaitReady_GivesUpAfterBudget(t *testing.T) {
	opts := validOptions()
	opts.ConnectTimeout = 20 * time.Millisecond

	p := &flakyPinger{failures: 1 << 30}
	err := waitReady(context.Background(), p, opts, logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis unavailable at localhost:6379")
}
