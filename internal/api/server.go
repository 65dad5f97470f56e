package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/robot-relay/internal/audit"
	"github.com/nerrad567/robot-relay/internal/infrastructure/config"
	"github.com/nerrad567/robot-relay/internal/infrastructure/database"
	"github.com/nerrad567/robot-relay/internal/infrastructure/influxdb"
	"github.com/nerrad567/robot-relay/internal/infrastructure/logging"
	"github.com/nerrad567/robot-relay/internal/infrastructure/mqtt"
	"github.com/nerrad567/robot-relay/internal/relay"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the server.
//
// Config, Logger and Router are required. The remaining dependencies are
// optional and only feed the metrics and events endpoints.
type Deps struct {
	Config  *config.Config
	Logger  *logging.Logger
	Router  *relay.Router
	Events  *relay.EventBus
	Audit   audit.Repository
	MQTT    *mqtt.Client
	Influx  *influxdb.Client
	DB      *database.DB
	Version string
}

// Server accepts WebSocket connections for the relay and serves the HTTP API
// on the same listener.
//
// It is created with New and started with Start:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Server struct {
	cfg       config.RelayConfig
	cors      corsPolicy
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	router    *relay.Router
	registry  *relay.Registry
	events    *relay.EventBus
	audit     audit.Repository
	mqtt      *mqtt.Client
	influx    *influxdb.Client
	db        *database.DB
	version   string
	startTime time.Time
	hub       *Hub

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// New creates a server with the given dependencies.
// The server does not listen until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Router == nil {
		return nil, fmt.Errorf("relay router is required")
	}

	return &Server{
		cfg:       deps.Config.Relay,
		cors:      newCORSPolicy(deps.Config.Relay.CORS),
		wsCfg:     deps.Config.WebSocket,
		logger:    deps.Logger,
		router:    deps.Router,
		registry:  deps.Router.Registry(),
		events:    deps.Events,
		audit:     deps.Audit,
		mqtt:      deps.MQTT,
		influx:    deps.Influx,
		db:        deps.DB,
		version:   deps.Version,
		startTime: time.Now(),
		hub:       NewHub(deps.Logger),
	}, nil
}

// Handler returns the HTTP handler serving the WebSocket endpoints and the API.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listener and serves in a background goroutine.
// It returns an error when the address cannot be bound. Cancelling ctx
// disconnects every WebSocket client; Close also stops the listener.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srvCtx, cancel := context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	srv := &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info("relay listening",
		"address", ln.Addr().String(),
		"websocket_path", s.wsCfg.Path,
	)

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("relay server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close disconnects WebSocket clients and gracefully shuts down the HTTP
// server. It waits up to 10 seconds for in-flight requests and for every
// WebSocket close path to finish, so disconnect handling is complete when
// Close returns.
func (s *Server) Close() error {
	s.mu.Lock()
	srv, cancel := s.server, s.cancel
	s.server, s.cancel = nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	cancel()
	s.hub.closeAll()

	ctx, done := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer done()

	s.logger.Info("relay server shutting down")
	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down relay server: %w", err))
	}
	// Shutdown does not track hijacked connections.
	if err := s.hub.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("waiting for websocket clients: %w", err))
	}
	return errors.Join(errs...)
}

// HealthCheck verifies the server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("relay server not started")
	}
	return nil
}
