// Package api provides the HTTP REST API and WebSocket server for the
// LokaSync dashboard.
//
// It exposes the device registry, firmware push, update-log history
// and telemetry endpoints, and streams reconciled update events and
// transport status over WebSocket.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
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

	"github.com/lokasync/lokasync-core/internal/audit"
	"github.com/lokasync/lokasync-core/internal/device"
	"github.com/lokasync/lokasync-core/internal/infrastructure/config"
	"github.com/lokasync/lokasync-core/internal/infrastructure/logging"
	"github.com/lokasync/lokasync-core/internal/infrastructure/mqtt"
	"github.com/lokasync/lokasync-core/internal/session"
	"github.com/lokasync/lokasync-core/internal/telemetry"
	"github.com/lokasync/lokasync-core/internal/updatelog"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      *config.Config
	Logger      *logging.Logger
	Devices     device.Repository
	Scope       *device.ScopeResolver
	Logs        updatelog.Repository
	Reconciler  *updatelog.Reconciler
	Telemetry   *telemetry.Store
	MQTT        *mqtt.Manager
	Sessions    *session.Generator
	Audit       audit.Repository // Optional; mutations go unrecorded when nil
	ExternalHub *Hub             // If set, the server uses this hub instead of creating its own
	Version     string
}

// Server is the HTTP API server for LokaSync.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        *config.Config
	logger     *logging.Logger
	devices    device.Repository
	scope      *device.ScopeResolver
	logs       updatelog.Repository
	reconciler *updatelog.Reconciler
	telemetry  *telemetry.Store
	mqtt       *mqtt.Manager
	sessions   *session.Generator
	audits     audit.Repository
	version    string

	server      *http.Server
	hub         *Hub
	externalHub bool
	cancel      context.CancelFunc
	unsubConn   mqtt.UnsubscribeFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device repository is required")
	}
	if deps.Logs == nil {
		return nil, fmt.Errorf("update-log repository is required")
	}
	if deps.Sessions == nil {
		deps.Sessions = session.Default()
	}
	// MQTT is optional: pushes fail with 503 but reads still function.

	s := &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		devices:    deps.Devices,
		scope:      deps.Scope,
		logs:       deps.Logs,
		reconciler: deps.Reconciler,
		telemetry:  deps.Telemetry,
		mqtt:       deps.MQTT,
		sessions:   deps.Sessions,
		audits:     deps.Audit,
		version:    deps.Version,
	}

	// Use an externally-provided hub when the composition root also
	// broadcasts reconciled records through it.
	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, relays transport state changes to
// connected dashboard clients, and launches the HTTP listener in a
// background goroutine. The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.cfg.WebSocket, s.logger)
		go s.hub.Run(srvCtx)
	}

	// Dashboard clients render a connection indicator from transport
	// state transitions.
	if s.mqtt != nil {
		s.unsubConn = s.mqtt.OnConnectionChange(func(state mqtt.State) {
			s.hub.Broadcast(ChannelTransportStatus, map[string]string{
				"state": state.String(),
			})
		})
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.API.Host, s.cfg.API.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.unsubConn != nil {
		s.unsubConn()
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// Hub returns the server's WebSocket hub. Available after Start()
// unless an external hub was injected.
func (s *Server) Hub() *Hub {
	return s.hub
}
