package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/robot-relay/internal/api"
	"github.com/nerrad567/robot-relay/internal/audit"
	"github.com/nerrad567/robot-relay/internal/infrastructure/config"
	"github.com/nerrad567/robot-relay/internal/infrastructure/database"
	"github.com/nerrad567/robot-relay/internal/infrastructure/influxdb"
	"github.com/nerrad567/robot-relay/internal/infrastructure/logging"
	"github.com/nerrad567/robot-relay/internal/infrastructure/mqtt"
	"github.com/nerrad567/robot-relay/internal/relay"
	"github.com/nerrad567/robot-relay/migrations"
)

// healthCheckTimeout bounds the startup health checks.
const healthCheckTimeout = 5 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func serve(ctx context.Context, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	return runServe(ctx, cfg, nil)
}

// runServe wires the relay and its optional backends and runs until ctx is
// cancelled. If started is non-nil, the bound listen address is sent on it
// once the relay accepts connections.
func runServe(ctx context.Context, cfg *config.Config, started chan<- string) error {
	log := logging.New(cfg.Logging, version)
	log.Info("starting robot relay",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	registry := relay.NewRegistry()
	registry.SetLogger(log)
	router := relay.NewRouter(registry)
	router.SetLogger(log)
	events := relay.NewEventBus(cfg.Relay.EventBuffer)
	router.SetEventBus(events)

	deps := api.Deps{
		Config:  cfg,
		Logger:  log,
		Router:  router,
		Events:  events,
		Version: version,
	}

	if cfg.Database.Enabled {
		db, err := openDatabase(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("session audit enabled", "path", cfg.Database.Path)

		repo := audit.NewSQLiteRepository(db.DB)
		events.Subscribe(audit.NewRecorder(repo, log))
		deps.DB = db
		deps.Audit = repo
	}

	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := client.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		client.SetLogger(log)
		client.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		bridge := mqtt.NewBridge(client, client.Topics(), client.QoS(), router, log)
		if err := bridge.Start(); err != nil {
			return fmt.Errorf("starting MQTT bridge: %w", err)
		}
		defer func() {
			if stopErr := bridge.Stop(); stopErr != nil {
				log.Warn("error stopping MQTT bridge", "error", stopErr)
			}
		}()
		events.Subscribe(bridge)
		deps.MQTT = client
		log.Info("MQTT bridge started",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"commands", client.Topics().AllCommands(),
		)
	}

	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := client.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		client.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		events.Subscribe(client)
		deps.Influx = client
		log.Info("InfluxDB telemetry enabled", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	if err := healthCheck(ctx, deps); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	srv, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating relay server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting relay server: %w", err)
	}
	if started != nil {
		started <- srv.Addr()
	}

	// The event bus outlives the server so disconnect events emitted during
	// shutdown still reach the observers.
	busCtx, stopBus := context.WithCancel(context.Background())
	busDone := make(chan struct{})
	go func() {
		defer close(busDone)
		events.Run(busCtx)
	}()

	g, gctx := errgroup.WithContext(ctx)
	if deps.Influx != nil {
		g.Go(func() error {
			writeStatsLoop(gctx, deps.Influx, router, time.Duration(cfg.InfluxDB.FlushInterval)*time.Second)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, cleaning up")
		return srv.Close()
	})

	err = g.Wait()
	stopBus()
	<-busDone

	if dropped := events.Dropped(); dropped > 0 {
		log.Warn("relay events dropped", "count", dropped)
	}
	log.Info("robot relay stopped")
	return err
}

// openDatabase opens the audit database and applies the embedded migrations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Open(databaseConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS, migrations.Dir); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// healthCheck verifies every enabled backend before the relay accepts
// connections.
func healthCheck(ctx context.Context, deps api.Deps) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var errs []error
	if deps.DB != nil {
		if err := deps.DB.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if deps.MQTT != nil {
		if err := deps.MQTT.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mqtt: %w", err))
		}
	}
	if deps.Influx != nil {
		if err := deps.Influx.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("influxdb: %w", err))
		}
	}
	return errors.Join(errs...)
}

// statsWriter is the part of the InfluxDB client used for periodic stats.
type statsWriter interface {
	WriteStats(stats relay.Stats, devices int)
}

// writeStatsLoop records router counters every interval until ctx is done.
func writeStatsLoop(ctx context.Context, w statsWriter, router *relay.Router, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.WriteStats(router.Stats(), router.Registry().Len())
		}
	}
}
