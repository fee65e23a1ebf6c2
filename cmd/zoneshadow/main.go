// zoneshadow keeps GPIO-driven zones in step with their device shadows.
//
// Each configured zone is bound to one shadow. On start and after every
// broker reconnect the full shadow is requested; desired-state deltas are
// applied as they arrive and the applied state is reported back.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "github.com/nerrad567/zoneshadow/migrations"

	"github.com/nerrad567/zoneshadow/internal/api"
	"github.com/nerrad567/zoneshadow/internal/controller"
	"github.com/nerrad567/zoneshadow/internal/hardware/gpio"
	"github.com/nerrad567/zoneshadow/internal/infrastructure/config"
	"github.com/nerrad567/zoneshadow/internal/infrastructure/database"
	"github.com/nerrad567/zoneshadow/internal/infrastructure/influxdb"
	"github.com/nerrad567/zoneshadow/internal/infrastructure/logging"
	"github.com/nerrad567/zoneshadow/internal/infrastructure/mqtt"
	"github.com/nerrad567/zoneshadow/internal/journal"
	"github.com/nerrad567/zoneshadow/internal/process"
	"github.com/nerrad567/zoneshadow/internal/shadow"
	"github.com/nerrad567/zoneshadow/internal/zone"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// pruneInterval is how often expired journal entries are deleted.
const pruneInterval = time.Hour

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting zoneshadow",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"zones", len(cfg.Zones),
		"gpio_driver", cfg.GPIO.Driver,
	)

	deps := controllerDeps{cfg: cfg, log: log}

	// Actuation journal (optional)
	if cfg.Journal.Enabled {
		db, openErr := database.Open(cfg.Journal)
		if openErr != nil {
			return fmt.Errorf("opening journal database: %w", openErr)
		}
		defer func() {
			log.Info("closing journal database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		if healthErr := db.HealthCheck(ctx); healthErr != nil {
			return fmt.Errorf("journal database: %w", healthErr)
		}
		log.Info("journal database ready", "path", db.Path())

		deps.journal = journal.NewSQLiteRepository(db.DB)
		if retention := cfg.GetJournalRetention(); retention > 0 {
			go pruneJournal(ctx, deps.journal, retention, log)
		}
	} else {
		log.Info("actuation journal disabled")
	}

	// InfluxDB telemetry (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
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
		deps.telemetry = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Metrics are registered once; every controller build shares them.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.metrics = controller.NewMetrics(registry)

	supervisor := process.NewSupervisor(process.Config{
		Name:               "controller",
		RestartDelay:       cfg.GetRestartDelay(),
		MaxRestartAttempts: cfg.Supervisor.MaxRestartAttempts,
		OnRestart: func(attempt int, cause error) {
			log.Warn("rebuilding controller", "attempt", attempt, "cause", cause)
		},
	}, log.With("component", "supervisor"))

	// Status API (optional)
	if cfg.API.Enabled {
		apiDeps := api.Deps{
			Config:     cfg.API,
			Logger:     log.With("component", "api"),
			Zones:      &deps.current,
			Supervisor: supervisor,
			Gatherer:   registry,
			Connected:  deps.session.connected,
			Version:    version,
		}
		if deps.journal != nil {
			apiDeps.History = deps.journal
		}

		server, apiErr := api.New(apiDeps)
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete")

	if err := supervisor.Run(ctx, deps.runController); err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	log.Info("zoneshadow stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ZONESHADOW_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ZONESHADOW_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// controllerDeps holds what survives across controller rebuilds.
type controllerDeps struct {
	cfg       *config.Config
	log       *logging.Logger
	journal   *journal.SQLiteRepository
	telemetry *influxdb.Client
	metrics   *controller.Metrics

	current controller.Ref
	session session
}

// runController builds hardware, broker session, shadow client and
// controller from scratch, runs until failure or shutdown, and releases
// everything on return.
func (d *controllerDeps) runController(ctx context.Context) error {
	log := d.log

	driver, err := gpio.NewDriver(d.cfg.GPIO)
	if err != nil {
		return fmt.Errorf("creating GPIO driver: %w", err)
	}

	zones := make([]*zone.Zone, 0, len(d.cfg.Zones))
	for _, zc := range d.cfg.Zones {
		zones = append(zones, zone.New(zc, driver, log.With("component", "zone", "zone", zc.Name)))
	}
	releaseZones := func() {
		for _, z := range zones {
			if closeErr := z.Close(); closeErr != nil {
				log.Error("error releasing zone", "zone", z.Name(), "error", closeErr)
			}
		}
	}

	mqttClient, err := mqtt.NewClient(d.cfg.IoT)
	if err != nil {
		releaseZones()
		return fmt.Errorf("connecting to broker: %w", err)
	}

	client := shadow.NewClient(mqttClient, shadow.WithLogger(log.With("component", "shadow")))
	defer client.Close()

	// Registered before the first dial so no connection event is missed.
	mqttClient.SetLogger(log.With("component", "mqtt"))
	mqttClient.SetOnConnect(client.HandleConnected)
	mqttClient.SetOnDisconnect(client.HandleConnectionLost)

	if err := mqttClient.Connect(); err != nil {
		releaseZones()
		return fmt.Errorf("connecting to broker: %w", err)
	}
	d.session.set(mqttClient)
	defer func() {
		d.session.set(nil)
		log.Info("disconnecting from broker")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("broker connected",
		"broker", fmt.Sprintf("%s:%d", d.cfg.IoT.Host, d.cfg.IoT.Port),
		"client_id", d.cfg.IoT.ClientID,
	)

	opts := controller.Options{
		Client:  client,
		Zones:   zones,
		Logger:  log.With("component", "controller"),
		Metrics: d.metrics,
	}
	if d.journal != nil {
		opts.Journal = d.journal
	}
	if d.telemetry != nil {
		opts.Telemetry = d.telemetry
	}

	ctrl, err := controller.New(opts)
	if err != nil {
		releaseZones()
		return fmt.Errorf("creating controller: %w", err)
	}
	d.current.Set(ctrl)
	defer func() {
		d.current.Set(nil)
		if closeErr := ctrl.Close(); closeErr != nil {
			log.Error("error releasing zones", "error", closeErr)
		}
	}()

	err = ctrl.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// session tracks the broker client of the running build for health reporting.
type session struct {
	client atomic.Pointer[mqtt.Client]
}

func (s *session) set(c *mqtt.Client) {
	s.client.Store(c)
}

func (s *session) connected() bool {
	c := s.client.Load()
	return c != nil && c.IsConnected()
}

// pruneJournal deletes journal entries older than retention every pruneInterval.
func pruneJournal(ctx context.Context, repo journal.Repository, retention time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		if n, err := repo.Prune(ctx, time.Now().Add(-retention)); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("journal prune failed", "error", err)
		} else if n > 0 {
			log.Info("journal pruned", "deleted", n, "retention", retention)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
