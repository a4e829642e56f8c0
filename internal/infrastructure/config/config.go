package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultRestartDelaySeconds is the fixed delay between a crash and the next
// launch attempt. It is read once at startup and never changes at runtime.
const DefaultRestartDelaySeconds = 5

// Config is the root configuration structure for appsentry.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Child      ChildConfig      `yaml:"child"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	API        APIConfig        `yaml:"api"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ChildConfig describes the supervised child process.
type ChildConfig struct {
	// Command is the executable to supervise. Resolved relative to WorkDir
	// when not absolute.
	Command string `yaml:"command"`

	// Args are command-line arguments passed to the child.
	Args []string `yaml:"args"`

	// WorkDir is the working directory for the child. When empty, the
	// directory containing the supervisor binary is used.
	WorkDir string `yaml:"work_dir"`

	// LogPath is the append-mode sink receiving the child's combined
	// stdout and stderr across all restarts. Relative paths are resolved
	// against WorkDir.
	LogPath string `yaml:"log_path"`

	// Env are additional environment variables (KEY=VALUE format) appended
	// to the supervisor's own environment.
	Env []string `yaml:"env"`
}

// SupervisorConfig contains restart policy settings.
type SupervisorConfig struct {
	// Name identifies this supervisor in logs, MQTT topics and metrics.
	// Empty means the base name of the child command; use SupervisorName.
	Name string `yaml:"name"`

	// RestartDelaySeconds is the fixed wait between a crash and the next
	// launch attempt. Loaded once at startup.
	RestartDelaySeconds int `yaml:"restart_delay_seconds"`
}

// TelegramConfig contains the notification endpoint credentials.
type TelegramConfig struct {
	// APIBaseURL is the Telegram Bot API base. Overridable for testing.
	APIBaseURL string `yaml:"api_base_url"`

	// BotToken authenticates against the Bot API. Required.
	BotToken string `yaml:"bot_token"`

	// ChatID is the recipient chat identifier. Required.
	ChatID string `yaml:"chat_id"`
}

// DatabaseConfig contains the optional SQLite run-history settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains the optional status bus connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains the optional metrics sink settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the optional local status API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains supervisor logging settings.
// This governs the supervisor's own output, not the child's app.log sink.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: APPSENTRY_SECTION_KEY
// For example: APPSENTRY_TELEGRAM_BOT_TOKEN, APPSENTRY_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Child: ChildConfig{
			Command: "main",
			LogPath: "app.log",
		},
		Supervisor: SupervisorConfig{
			Name:                "appsentry",
			RestartDelaySeconds: DefaultRestartDelaySeconds,
		},
		Telegram: TelegramConfig{
			APIBaseURL: "https://api.telegram.org",
		},
		Database: DatabaseConfig{
			Path:        "./data/appsentry.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "appsentry",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     20,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: APPSENTRY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Telegram credentials are the usual deployment secrets
	if v := os.Getenv("APPSENTRY_TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("APPSENTRY_TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}

	// Database
	if v := os.Getenv("APPSENTRY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("APPSENTRY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("APPSENTRY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("APPSENTRY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("APPSENTRY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// The notifier credentials are required unconditionally: every loop iteration
// depends on the notifier being callable, so the supervisor must not start
// without them.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Child.Command == "" {
		errs = append(errs, "child.command is required")
	}
	if c.Child.LogPath == "" {
		errs = append(errs, "child.log_path is required")
	}

	if c.Supervisor.RestartDelaySeconds <= 0 {
		errs = append(errs, "supervisor.restart_delay_seconds must be positive")
	}

	if c.Telegram.APIBaseURL == "" {
		errs = append(errs, "telegram.api_base_url is required")
	}
	if c.Telegram.BotToken == "" {
		errs = append(errs, "telegram.bot_token is required (set APPSENTRY_TELEGRAM_BOT_TOKEN environment variable)")
	}
	if c.Telegram.ChatID == "" {
		errs = append(errs, "telegram.chat_id is required (set APPSENTRY_TELEGRAM_CHAT_ID environment variable)")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database.enabled is true")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt.enabled is true")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb.enabled is true")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb.enabled is true")
		}
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// RestartDelay returns the crash-restart delay as a Duration.
func (c *Config) RestartDelay() time.Duration {
	return time.Duration(c.Supervisor.RestartDelaySeconds) * time.Second
}

// SupervisorName returns the configured supervisor name, falling back to
// the base name of the child command when unset.
func (c *Config) SupervisorName() string {
	if c.Supervisor.Name != "" {
		return c.Supervisor.Name
	}
	return filepath.Base(c.Child.Command)
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
