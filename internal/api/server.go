// Package api provides the HTTP REST API for Cathodic Core.
//
// It exposes device settings, command dispatch and status polling, and
// connectivity queries to operator tooling. Devices never talk to this
// API; the device-facing surface is MQTT only.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fieldwatch/cathodic-core/internal/audit"
	"github.com/fieldwatch/cathodic-core/internal/command"
	"github.com/fieldwatch/cathodic-core/internal/infrastructure/config"
	"github.com/fieldwatch/cathodic-core/internal/infrastructure/logging"
	"github.com/fieldwatch/cathodic-core/internal/liveness"
	"github.com/fieldwatch/cathodic-core/internal/settings"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// AuditReader queries the persisted command audit trail.
type AuditReader interface {
	List(ctx context.Context, filter audit.Filter) (*audit.ListResult, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Logger     *logging.Logger
	Settings   *settings.Cache
	Dispatcher *command.Dispatcher
	Liveness   *liveness.Tracker
	Audit      AuditReader // optional
	Version    string
}

// Server is the HTTP API server for Cathodic Core.
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	settings   *settings.Cache
	dispatcher *command.Dispatcher
	liveness   *liveness.Tracker
	audit      AuditReader
	version    string
	server     *http.Server
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Settings == nil {
		return nil, fmt.Errorf("settings cache is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("command dispatcher is required")
	}
	if deps.Liveness == nil {
		return nil, fmt.Errorf("liveness tracker is required")
	}

	return &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		settings:   deps.Settings,
		dispatcher: deps.Dispatcher,
		liveness:   deps.Liveness,
		audit:      deps.Audit,
		version:    deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds
// for in-flight requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
