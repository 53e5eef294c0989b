package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/alerts"
	"github.com/MrSnakeDoc/sitepulse/internal/config"
	"github.com/MrSnakeDoc/sitepulse/internal/deploy"
	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/fleet"
	"github.com/MrSnakeDoc/sitepulse/internal/history"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/observe"
	"github.com/MrSnakeDoc/sitepulse/internal/probe"
	"github.com/MrSnakeDoc/sitepulse/internal/redis"
	"github.com/MrSnakeDoc/sitepulse/internal/roster"
	"github.com/MrSnakeDoc/sitepulse/internal/scheduler"
	"github.com/MrSnakeDoc/sitepulse/internal/sink"
	"github.com/MrSnakeDoc/sitepulse/internal/sink/memory"
	"github.com/MrSnakeDoc/sitepulse/internal/sink/postgres"
	redissink "github.com/MrSnakeDoc/sitepulse/internal/sink/redis"
	"github.com/MrSnakeDoc/sitepulse/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	sink     sink.Sink
	prober   *probe.Prober
	loader   *roster.Loader
	reloader *scheduler.RosterReloader
	syncer   *scheduler.SinkSyncer
	fleet    *fleet.Orchestrator
	checker  *scheduler.FleetChecker
	sweeper  *scheduler.RetentionSweeper
}

// ProbeOptions maps the configuration onto prober options
func ProbeOptions(cfg *config.Config) probe.Options {
	return probe.Options{
		Timeout:      cfg.ProbeTimeout,
		UserAgent:    cfg.UserAgent,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Thresholds: domain.Thresholds{
			ContentMinBytes: cfg.ContentMinBytes,
			ShellMinBytes:   cfg.ShellMinBytes,
			ShellMarker:     cfg.ShellMarker,
		},
	}
}

// FleetOptions maps the configuration onto orchestrator options
func FleetOptions(cfg *config.Config) fleet.Options {
	return fleet.Options{
		Concurrency: cfg.Concurrency,
		RunTimeout:  cfg.FleetTimeout,
	}
}

func New(cfg *config.Config) (*App, error) {
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// A sink that cannot be reached degrades the service instead of stopping it
	s, err := OpenSink(context.Background(), cfg, loggerClient.Named("sink"))
	if err != nil {
		loggerClient.Error("result sink unavailable, running without persistence",
			logger.String("backend", cfg.SinkBackend),
			logger.Error(err))
		s = nil
	}

	var recorder probe.Recorder
	if s != nil {
		recorder = sink.NewRecorder(s, loggerClient.Named("sink"))
	}

	holder := roster.NewHolder()
	store := observe.NewMemoryStore()
	loader := roster.NewLoader(cfg.RosterFile)
	syncer := scheduler.NewSinkSyncer(s, store, loggerClient.Named("roster"))
	reloader := scheduler.NewRosterReloader(loader, holder, store, syncer, loggerClient.Named("roster"))

	prober := probe.New(ProbeOptions(cfg), recorder, loggerClient.Named("probe"))
	orchestrator := fleet.New(prober, FleetOptions(cfg), loggerClient.Named("fleet"))

	notifier := alerts.NewNotifier(cfg.AlertWebhookURL, holder, loggerClient.Named("alerts"))
	var observers []scheduler.RunObserver
	if notifier.Enabled() {
		observers = append(observers, notifier)
		loggerClient.Info("alert webhook configured")
	}

	// Create manual check trigger channel
	checkTrigger := make(chan struct{}, 1)

	checker := scheduler.NewFleetChecker(
		orchestrator,
		holder,
		store,
		loggerClient.Named("scheduler"),
		cfg.CheckInterval,
		checkTrigger,
		observers...,
	)

	var sweeper *scheduler.RetentionSweeper
	if s != nil {
		sweeper = scheduler.NewRetentionSweeper(s, loggerClient.Named("retention"), cfg.SweepInterval, cfg.Retention)
	}

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		CORSOrigins:  cfg.CORSOrigins,
		RateLimit:    cfg.RateLimit,
		RateBurst:    cfg.RateBurst,
		RosterFile:   cfg.RosterFile,
		Roster:       holder,
		Reloader:     reloader,
		Store:        store,
		Prober:       prober,
		Fleet:        checker,
		Sink:         s,
		History:      history.NewService(s),
		Deploys:      deploy.NewProcessor(s, store, holder, loggerClient.Named("deploy")),
		CheckTrigger: checkTrigger,
	}

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   httpserver.New(cfg, loggerClient.Named("http"), d),
		sink:     s,
		prober:   prober,
		loader:   loader,
		reloader: reloader,
		syncer:   syncer,
		fleet:    orchestrator,
		checker:  checker,
		sweeper:  sweeper,
	}, nil
}

// OpenSink connects the configured result sink. It returns a nil Sink for
// the "none" backend. The interface is only set on success so callers can
// compare it to nil.
func OpenSink(ctx context.Context, cfg *config.Config, log logger.Logger) (sink.Sink, error) {
	switch cfg.SinkBackend {
	case config.SinkMemory:
		log.Info("using in-memory result sink")
		return memory.New(), nil

	case config.SinkRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, err
		}
		log.Info("Redis initialized successfully")
		return redissink.NewStore(client), nil

	case config.SinkPostgres:
		log.Info("connecting to postgres")
		store, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			return nil, err
		}
		log.Info("postgres initialized successfully, migrations applied")
		return store, nil

	default:
		log.Info("no result sink configured, history and build records disabled")
		return nil, nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting sitepulse v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Restore the last known status before the roster is applied
	if err := a.syncer.Restore(ctx); err != nil {
		a.logger.Warn("failed to restore status from sink, starting cold",
			logger.Error(err))
	}

	// Load roster - fail fast, there is nothing to monitor without it
	if err := a.reloader.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}

	if a.cfg.WatchRoster {
		go func() {
			err := roster.Watch(ctx, a.loader, a.logger.Named("roster"), func(sites []domain.Site) {
				a.reloader.Apply(ctx, sites)
			})
			if err != nil {
				a.logger.Error("roster watcher stopped", logger.Error(err))
			}
		}()
	}

	// Start fleet checker (first run in background, then periodic)
	if err := a.checker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start fleet checker: %w", err)
	}
	a.logger.Info("fleet checker started",
		logger.Duration("interval", a.cfg.CheckInterval))

	if a.sweeper != nil {
		if err := a.sweeper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start retention sweeper: %w", err)
		}
		a.logger.Info("retention sweeper started",
			logger.Duration("interval", a.cfg.SweepInterval),
			logger.Duration("retention", a.cfg.Retention))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Order matters: nothing may start a probe once the prober is closed,
	// and nothing may record once the sink is closed.
	a.checker.Stop()
	if a.sweeper != nil {
		a.sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	var stopErr error
	if err := a.server.Stop(shutdownCtx); err != nil {
		stopErr = fmt.Errorf("failed to stop server: %w", err)
		a.logger.Error("http server did not drain in time", logger.Error(err))
	}

	a.fleet.Wait()
	a.prober.Close()

	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.logger.Warnf("failed to close %s sink: %v", a.sink.Name(), err)
		} else {
			a.logger.Infof("✅ %s sink closed cleanly", a.sink.Name())
		}
	}

	if stopErr != nil {
		_ = a.logger.Sync()
		return stopErr
	}
	a.logger.Info("✅ sitepulse stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
