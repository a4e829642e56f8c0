package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nwalker85/appsentry/internal/history"
	"github.com/nwalker85/appsentry/internal/infrastructure/config"
	"github.com/nwalker85/appsentry/internal/infrastructure/logging"
	"github.com/nwalker85/appsentry/internal/supervisor"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StatsProvider supplies the supervisor state snapshot served by /status.
type StatsProvider interface {
	Stats() supervisor.Stats
}

// HealthChecker reports the health of an attached subsystem.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the status API server.
//
// History and Health entries are optional; absent ones simply shrink the
// surface (no /runs listing, fewer health components).
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Stats   StatsProvider
	History history.Repository
	Health  map[string]HealthChecker
	Version string
}

// Server is the read-only HTTP status surface of the supervisor.
//
// Created with New() and started with Start(); all methods are safe for
// concurrent use.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	stats   StatsProvider
	history history.Repository
	health  map[string]HealthChecker
	version string
	server  *http.Server
}

// New creates a new status API server. The server is not started until
// Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Stats == nil {
		return nil, fmt.Errorf("stats provider is required")
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		stats:   deps.Stats,
		history: deps.History,
		health:  deps.Health,
		version: deps.Version,
	}, nil
}

// Start launches the HTTP listener in a background goroutine. Stop with
// Close().
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status API server error", "error", err)
		}
	}()

	s.logger.Info("status API listening", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("status API shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down status API: %w", err)
	}
	return nil
}
