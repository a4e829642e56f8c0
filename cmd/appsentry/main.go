// appsentry - single-child process supervisor
//
// appsentry launches one application process, waits for it to terminate,
// reports every termination to Telegram, and relaunches the process after a
// crash. A clean exit (code 0) ends supervision; anything else restarts the
// child after a fixed delay, forever.
//
// Optional subsystems (SQLite run history, MQTT status bus, InfluxDB
// metrics, HTTP status API) observe the loop but never influence it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nwalker85/appsentry/migrations"

	"github.com/nwalker85/appsentry/internal/api"
	"github.com/nwalker85/appsentry/internal/history"
	"github.com/nwalker85/appsentry/internal/infrastructure/config"
	"github.com/nwalker85/appsentry/internal/infrastructure/database"
	"github.com/nwalker85/appsentry/internal/infrastructure/influxdb"
	"github.com/nwalker85/appsentry/internal/infrastructure/logging"
	"github.com/nwalker85/appsentry/internal/infrastructure/mqtt"
	"github.com/nwalker85/appsentry/internal/notify"
	"github.com/nwalker85/appsentry/internal/supervisor"
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
	// Cancel on interrupt signals for graceful shutdown. Cancellation also
	// terminates the child via the run context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting appsentry",
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

	// Telegram credentials are validated at load time; a supervisor that
	// cannot notify must not start.
	telegram, err := notify.NewTelegram(cfg.Telegram)
	if err != nil {
		return fmt.Errorf("creating telegram notifier: %w", err)
	}

	runner, err := supervisor.NewExecRunner(supervisor.RunnerConfig{
		Command: cfg.Child.Command,
		Args:    cfg.Child.Args,
		WorkDir: cfg.Child.WorkDir,
		LogPath: cfg.Child.LogPath,
		Env:     cfg.Child.Env,
	})
	if err != nil {
		return fmt.Errorf("creating child runner: %w", err)
	}
	runner.SetLogger(log)
	log.Info("child configured",
		"command", cfg.Child.Command,
		"log_path", runner.LogPath(),
	)

	childName := cfg.SupervisorName()

	// Run history (optional)
	var runs history.Repository
	var db *database.DB
	if cfg.Database.Enabled {
		var dbErr error
		db, dbErr = database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if dbErr != nil {
			return fmt.Errorf("opening database: %w", dbErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		runs = history.NewSQLiteRepository(db.DB)
		log.Info("run history enabled", "path", cfg.Database.Path)
	}

	// Status bus (optional)
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

		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	}

	// Run metrics (optional)
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
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	sup := supervisor.New(supervisor.Config{
		Name:         childName,
		RestartDelay: cfg.RestartDelay(),
		OnChildExit: func(res supervisor.Result, restartCount int) {
			observeExit(ctx, log, res, restartCount, childName, cfg.Child.Command, runs, mqttClient, influxClient)
		},
		OnRestart: func(attempt int) {
			publishState(log, mqttClient, "restarting", attempt)
		},
	}, runner, &telegramNotifier{client: telegram, child: childName})
	sup.SetLogger(log)

	// Status API (optional)
	if cfg.API.Enabled {
		healths := map[string]api.HealthChecker{}
		if db != nil {
			healths["database"] = db
		}
		if mqttClient != nil {
			healths["mqtt"] = mqttClient
		}
		if influxClient != nil {
			healths["influxdb"] = influxClient
		}
		server, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			Stats:   sup,
			History: runs,
			Health:  healths,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating status API: %w", apiErr)
		}
		if startErr := server.Start(); startErr != nil {
			return fmt.Errorf("starting status API: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing status API", "error", closeErr)
			}
		}()
	}

	publishState(log, mqttClient, "running", 0)

	err = sup.Run(ctx)
	if err != nil && errors.Is(err, context.Canceled) {
		// Shutdown signal, not a failure.
		log.Info("appsentry stopped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("supervision loop: %w", err)
	}

	publishState(log, mqttClient, "stopped", sup.RestartCount())
	log.Info("child exited cleanly, appsentry stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses the APPSENTRY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("APPSENTRY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// telegramNotifier adapts the notify package to the supervisor's Notifier
// interface, keeping message wording out of the supervision loop.
type telegramNotifier struct {
	client *notify.Telegram
	child  string
}

func (n *telegramNotifier) ChildStopped(ctx context.Context, res supervisor.Result) error {
	return n.client.SendMessage(ctx, notify.CleanExitMessage(n.child, res.ObservedAt, res.Uptime()))
}

func (n *telegramNotifier) ChildCrashed(ctx context.Context, res supervisor.Result, restartCount int, restartDelay time.Duration) error {
	return n.client.SendMessage(ctx,
		notify.CrashMessage(n.child, res.ObservedAt, res.ExitCode, res.LaunchErr, restartCount, restartDelay))
}

// observeExit fans one observed termination out to the optional subsystems.
// All of it is best-effort: failures are logged and never reach the loop.
func observeExit(
	ctx context.Context,
	log *logging.Logger,
	res supervisor.Result,
	restartCount int,
	childName, command string,
	runs history.Repository,
	mqttClient *mqtt.Client,
	influxClient *influxdb.Client,
) {
	if runs != nil {
		launchError := ""
		if res.LaunchErr != nil {
			launchError = res.LaunchErr.Error()
		}
		err := runs.Record(ctx, &history.Run{
			ID:           res.RunID,
			Command:      command,
			PID:          res.PID,
			StartedAt:    res.StartedAt,
			EndedAt:      res.ObservedAt,
			ExitCode:     res.ExitCode,
			Clean:        res.Clean(),
			RestartCount: restartCount,
			LaunchError:  launchError,
		})
		if err != nil {
			log.Error("recording run failed", "run_id", res.RunID, "error", err)
		}
	}

	if mqttClient != nil {
		payload, err := json.Marshal(map[string]any{
			"child":         childName,
			"run_id":        res.RunID,
			"exit_code":     res.ExitCode,
			"clean":         res.Clean(),
			"restart_count": restartCount,
			"observed_at":   res.ObservedAt.Format(time.RFC3339),
		})
		if err == nil {
			if pubErr := mqttClient.PublishEvent(mqtt.Topics{}.ChildEvent(), payload); pubErr != nil {
				log.Warn("publishing child event failed", "error", pubErr)
			}
		}
	}

	if influxClient != nil {
		influxClient.WriteRunMetric(command, res.ExitCode, res.Uptime(), restartCount)
	}
}

// publishState publishes the retained child state topic.
func publishState(log *logging.Logger, mqttClient *mqtt.Client, state string, restartCount int) {
	if mqttClient == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"state":         state,
		"restart_count": restartCount,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if pubErr := mqttClient.PublishRetained(mqtt.Topics{}.ChildState(), payload); pubErr != nil {
		log.Warn("publishing child state failed", "error", pubErr)
	}
}
