// Inventory Core - Device Fleet Management Service
//
// This is the main entry point for the Inventory Core application.
// Inventory Core tracks a fleet of field devices:
//   - Authoritative device records in SQLite
//   - Liveness tracking from MQTT heartbeats
//   - REST + WebSocket API for dashboards and tooling
//   - Optional time-series telemetry in InfluxDB
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jmcavoy/inventory-core/migrations"

	"github.com/jmcavoy/inventory-core/internal/api"
	"github.com/jmcavoy/inventory-core/internal/infrastructure/config"
	"github.com/jmcavoy/inventory-core/internal/infrastructure/database"
	"github.com/jmcavoy/inventory-core/internal/infrastructure/influxdb"
	"github.com/jmcavoy/inventory-core/internal/infrastructure/logging"
	"github.com/jmcavoy/inventory-core/internal/infrastructure/mqtt"
	"github.com/jmcavoy/inventory-core/internal/inventory"
	"github.com/jmcavoy/inventory-core/internal/presence"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// fleetStatsInterval is how often fleet-wide counts are written to InfluxDB.
const fleetStatsInterval = 60 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Inventory Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise device registry
	repo := inventory.NewSQLiteRepository(db.DB)
	registry := inventory.NewRegistry(repo)
	registry.SetLogger(log.With("component", "registry"))

	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", registry.DeviceCount())

	// Connect to MQTT broker (optional: the API still serves without it,
	// but presence tracking and event publication are unavailable)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start presence monitor (requires MQTT)
	if cfg.Presence.Enabled && mqttClient != nil {
		// A typed-nil influx client must not become a non-nil Recorder.
		var recorder presence.Recorder
		if influxClient != nil {
			recorder = influxClient
		}

		monitor := presence.NewMonitor(mqttClient, registry, recorder, presence.Config{
			OfflineAfter:  cfg.OfflineAfter(),
			SweepInterval: cfg.SweepInterval(),
			QoS:           byte(cfg.MQTT.QoS),
		})
		monitor.SetLogger(log.With("component", "presence"))

		if startErr := monitor.Start(ctx); startErr != nil {
			return fmt.Errorf("starting presence monitor: %w", startErr)
		}
		defer func() {
			log.Info("stopping presence monitor")
			monitor.Stop()
		}()
		log.Info("presence monitor started",
			"offline_after", cfg.OfflineAfter(),
			"sweep_interval", cfg.SweepInterval(),
		)
	} else if cfg.Presence.Enabled {
		log.Warn("presence monitor disabled: MQTT is not enabled")
	} else {
		log.Info("presence monitor disabled")
	}

	// Start the HTTP API server
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log,
		Registry: registry,
		MQTT:     mqttClient,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started",
		"addr", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	// Periodic fleet snapshots for dashboards
	if influxClient != nil {
		go fleetStatsLoop(ctx, registry, influxClient, log)
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Presence monitor
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)
	// 5. Database

	log.Info("Inventory Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses INVENTORY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("INVENTORY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// fleetStatsLoop periodically writes fleet-wide device counts to InfluxDB.
// Runs until the context is cancelled.
func fleetStatsLoop(ctx context.Context, registry *inventory.Registry, influxClient *influxdb.Client, log *logging.Logger) {
	ticker := time.NewTicker(fleetStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := registry.GetStats()
			influxClient.WriteFleetStats(
				stats.TotalDevices,
				stats.ByStatus[inventory.StatusOnline],
				stats.NeedsAttention,
			)
			log.Debug("fleet stats written",
				"total", stats.TotalDevices,
				"online", stats.ByStatus[inventory.StatusOnline],
			)
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
// The MQTT and InfluxDB clients may be nil when those subsystems are disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
