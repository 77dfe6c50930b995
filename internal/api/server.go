package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmcavoy/inventory-core/internal/infrastructure/config"
	"github.com/jmcavoy/inventory-core/internal/infrastructure/logging"
	"github.com/jmcavoy/inventory-core/internal/infrastructure/mqtt"
	"github.com/jmcavoy/inventory-core/internal/inventory"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Registry *inventory.Registry
	MQTT     *mqtt.Client // optional: event publication is skipped when nil
	Hub      *Hub         // If set, the server uses this hub instead of creating its own
	Version  string
}

// Server is the HTTP API server for Inventory Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	logger      *logging.Logger
	registry    *inventory.Registry
	mqtt        *mqtt.Client
	version     string
	server      *http.Server
	hub         *Hub
	externalHub bool // true if hub was injected externally

	// collection is the server-side view of the device fleet. It is
	// populated at startup and kept current by registry change
	// notifications; list reads are served from it without touching
	// the repository.
	collection *inventory.Controller

	cancel context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, registry)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}

	s := &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		registry: deps.Registry,
		mqtt:     deps.MQTT,
		version:  deps.Version,
	}

	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, hooks registry change
// notifications into the hub and MQTT event topics, and launches the
// HTTP listener in a background goroutine. Stop with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		go s.hub.Run(srvCtx)
	}

	// Server-side collection view, fed by change notifications after
	// the initial fetch.
	s.collection = inventory.NewController(s.registry)
	if err := s.collection.Refetch(ctx); err != nil {
		return fmt.Errorf("loading device collection: %w", err)
	}
	s.registry.OnChange(s.collection.ApplyChange)

	// Relay registry changes to WebSocket clients and the broker.
	s.registry.OnChange(s.relayChange)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// relayChange fans a registry change notification out to WebSocket
// subscribers and, when a broker is connected, the MQTT event topics.
// Status changes are additionally published retained on the device's
// canonical status topic so late subscribers see the current state.
func (s *Server) relayChange(kind inventory.ChangeKind, device inventory.Device) {
	channel := "device." + string(kind)

	if s.hub != nil {
		s.hub.Broadcast(channel, device)
	}

	if s.mqtt == nil {
		return
	}

	payload, err := json.Marshal(device)
	if err != nil {
		s.logger.Error("failed to encode change event", "kind", string(kind), "error", err)
		return
	}

	topics := mqtt.Topics{}
	if pubErr := s.mqtt.Publish(topics.CoreEvent(channel), payload, 1, false); pubErr != nil {
		s.logger.Debug("MQTT event publish failed", "kind", string(kind), "error", pubErr)
	}

	if kind == inventory.ChangeStatusFlipped {
		statusPayload, marshalErr := json.Marshal(map[string]any{
			"device_id": device.ID,
			"status":    device.Status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		if marshalErr != nil {
			return
		}
		if pubErr := s.mqtt.PublishRetained(topics.DeviceStatus(device.ID), statusPayload); pubErr != nil {
			s.logger.Debug("MQTT status publish failed", "device_id", device.ID, "error", pubErr)
		}
	}
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub)
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

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
