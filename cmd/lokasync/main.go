// LokaSync Core - Firmware Distribution Backend
//
// This is the main entry point for the LokaSync Core application.
// LokaSync correlates over-the-air firmware update sessions for fleets
// of IoT nodes:
//   - Devices report update progress over MQTT
//   - Progress fragments are reconciled into per-session records
//   - Dashboards consume the result over REST and WebSocket
//
// The process degrades gracefully: without a reachable broker the REST
// API still serves the device registry and persisted update history.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lokasync/lokasync-core/migrations"

	"github.com/lokasync/lokasync-core/internal/api"
	"github.com/lokasync/lokasync-core/internal/audit"
	"github.com/lokasync/lokasync-core/internal/device"
	"github.com/lokasync/lokasync-core/internal/dispatch"
	"github.com/lokasync/lokasync-core/internal/infrastructure/config"
	"github.com/lokasync/lokasync-core/internal/infrastructure/database"
	"github.com/lokasync/lokasync-core/internal/infrastructure/influxdb"
	"github.com/lokasync/lokasync-core/internal/infrastructure/logging"
	"github.com/lokasync/lokasync-core/internal/infrastructure/mqtt"
	"github.com/lokasync/lokasync-core/internal/telemetry"
	"github.com/lokasync/lokasync-core/internal/updatelog"
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

// persistTimeout bounds database writes triggered by broker messages.
const persistTimeout = 5 * time.Second

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
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting LokaSync Core",
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

	// Repositories and caches
	deviceRepo := device.NewSQLiteRepository(db.DB)
	scope := device.NewScopeResolver(deviceRepo)
	logRepo := updatelog.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	// Seed the reconciler with persisted update history so restarts do
	// not orphan in-flight sessions.
	reconciler := updatelog.NewReconciler()
	records, err := logRepo.All(ctx)
	if err != nil {
		return fmt.Errorf("loading update history: %w", err)
	}
	total, err := logRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting update history: %w", err)
	}
	reconciler.Seed(records, total)
	log.Info("update-log reconciler seeded", "records", len(records), "total", total)

	store := telemetry.NewStore(cfg.Telemetry.HistorySize)

	// Connect to MQTT broker. A dead broker must not keep the dashboard
	// down, so connection failure is tolerated: push commands return 503
	// until the broker comes back and the process is restarted.
	var mqttClient *mqtt.Manager
	mqttClient, err = mqtt.Connect(cfg.MQTT, log)
	if err != nil {
		log.Warn("MQTT unavailable, starting without transport",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"error", err,
		)
		mqttClient = nil
	} else {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", mqttClient.ClientID(),
		)
	}

	// Connect to InfluxDB (optional)
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		influxClient = nil
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(writeErr error) {
			log.Error("InfluxDB write error", "error", writeErr)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	// WebSocket hub is created here rather than inside the API server so
	// broker-driven events can broadcast to dashboard clients.
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// Route inbound broker messages to the domain
	dispatcher := dispatch.NewDispatcher(cfg.MQTT.Topics, log)
	if mqttClient != nil {
		dispatcher.Attach(mqttClient)
	}

	dispatcher.OnUpdateLog(func(env updatelog.Envelope) {
		rec, created := reconciler.Apply(env)

		persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if upsertErr := logRepo.Upsert(persistCtx, &rec); upsertErr != nil {
			log.Error("persisting update-log record failed",
				"session_id", rec.SessionID,
				"error", upsertErr,
			)
		}

		hub.Broadcast(api.ChannelUpdateLog, rec)
		if influxClient != nil {
			influxClient.WriteUpdateEvent(rec.DeviceCodename, rec.FirmwareVersion, rec.FlashStatus)
		}

		log.Debug("update-log record reconciled",
			"session_id", rec.SessionID,
			"device_codename", rec.DeviceCodename,
			"flash_status", rec.FlashStatus,
			"created", created,
		)
	})

	dispatcher.OnTelemetry(func(r telemetry.Reading) {
		store.Add(r)
		hub.Broadcast(api.ChannelTelemetry, r)
		if influxClient != nil {
			influxClient.WriteReading(r)
		}
	})

	// Start the API server
	apiServer, err := api.New(api.Deps{
		Config:      cfg,
		Logger:      log,
		Devices:     deviceRepo,
		Scope:       scope,
		Logs:        logRepo,
		Reconciler:  reconciler,
		Telemetry:   store,
		MQTT:        mqttClient,
		Audit:       auditRepo,
		ExternalHub: hub,
		Version:     version,
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

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if connected)
	// 4. Database

	log.Info("LokaSync Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LOKASYNC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LOKASYNC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
//
// MQTT is deliberately excluded: the process is expected to keep serving
// REST traffic while the broker is down.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
