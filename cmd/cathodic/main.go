// Cathodic Core - cathodic protection fleet server
//
// This is the main entry point for the Cathodic Core application. It
// manages a fleet of cathodic-protection field devices over MQTT:
// full-frame settings dispatch with acknowledgment tracking, canonical
// settings caching, activity-based connectivity, and an HTTP API for
// operator tooling.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/fieldwatch/cathodic-core/migrations"

	"github.com/fieldwatch/cathodic-core/internal/api"
	"github.com/fieldwatch/cathodic-core/internal/audit"
	"github.com/fieldwatch/cathodic-core/internal/command"
	"github.com/fieldwatch/cathodic-core/internal/infrastructure/config"
	"github.com/fieldwatch/cathodic-core/internal/infrastructure/database"
	"github.com/fieldwatch/cathodic-core/internal/infrastructure/influxdb"
	"github.com/fieldwatch/cathodic-core/internal/infrastructure/logging"
	"github.com/fieldwatch/cathodic-core/internal/infrastructure/mqtt"
	"github.com/fieldwatch/cathodic-core/internal/liveness"
	"github.com/fieldwatch/cathodic-core/internal/notify"
	"github.com/fieldwatch/cathodic-core/internal/settings"
	"github.com/fieldwatch/cathodic-core/internal/telemetry"
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

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Cathodic Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Settings cache, seeded from persisted snapshots
	settingsRepo := settings.NewSQLiteRepository(db.DB)
	settingsCache := settings.NewCache(settingsRepo)
	settingsCache.SetLogger(log)
	if refreshErr := settingsCache.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading settings cache: %w", refreshErr)
	}
	log.Info("settings cache initialised", "devices", len(settingsCache.Devices()))

	// Liveness tracker
	livenessTracker := liveness.NewTracker(cfg.GetLivenessDefaultTimeout())

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Command dispatcher with audit trail and push notifications
	auditRepo := audit.NewSQLiteRepository(db.DB)

	dispatcher := command.NewDispatcher(settingsCache, mqttClient,
		cfg.GetAckTimeout(), cfg.Command.HistoryCapacity)
	dispatcher.SetLogger(log)
	dispatcher.SetAuditor(auditRepo)
	if influxClient != nil {
		dispatcher.SetResultSink(influxClient)
	}
	defer dispatcher.Close()

	notifySink := notify.NewSink(mqttClient, mqtt.Topics{}.CoreNotification)
	notifySink.SetLogger(log)
	dispatcher.SetNotifier(notifySink)

	// Telemetry router fans inbound device traffic out to liveness,
	// ack resolution, settings reconciliation, and time series.
	var readings telemetry.ReadingSink
	if influxClient != nil {
		readings = influxClient
	}
	router := telemetry.NewRouter(dispatcher, livenessTracker, settingsCache, readings)
	router.SetLogger(log)
	if startErr := router.Start(mqttClient); startErr != nil {
		return fmt.Errorf("starting telemetry router: %w", startErr)
	}

	// HTTP API
	apiServer, err := api.New(api.Deps{
		Config:     cfg.API,
		Logger:     log,
		Settings:   settingsCache,
		Dispatcher: dispatcher,
		Liveness:   livenessTracker,
		Audit:      auditRepo,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, dispatcher timers, InfluxDB (if enabled), MQTT, database.

	log.Info("Cathodic Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses CATHODIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CATHODIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
