// Package httpserver assembles the chi router and owns the HTTP listener.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/sitepulse/internal/config"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/mw"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/routes"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
)

// Server serves the probe API and the ops endpoints.
type Server struct {
	http    *http.Server
	logger  logger.Logger
	started time.Time
}

// NewRouter applies the global middleware chain and mounts every
// registered route group.
func NewRouter(loggerClient logger.Logger, d deps.Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(mw.Log(loggerClient, d.TrustProxy))
	r.Use(mw.CORS(d.CORSOrigins))

	groups := routes.RegisterAll(r, d)
	loggerClient.Debug("routes registered", logger.String("groups", strings.Join(groups, ",")))
	return r
}

// New builds the server. There is no per-request timeout middleware:
// check-all-sites answers after a full fleet run, bounded by WriteTimeout.
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	return &Server{
		http: &http.Server{
			Addr:              cfg.ListenPort,
			Handler:           NewRouter(loggerClient, d),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger:  loggerClient,
		started: d.StartTime,
	}
}

// Start binds the listen address and serves until Stop. A bind failure is
// returned right away.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("http server listening", logger.String("addr", ln.Addr().String()))

	if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("http server draining",
		logger.Duration("uptime", time.Since(s.started).Round(time.Second)))
	return s.http.Shutdown(ctx)
}
