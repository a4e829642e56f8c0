package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
child:
  command: "./main"
  work_dir: "/opt/app"
  log_path: "app.log"
supervisor:
  name: "app"
  restart_delay_seconds: 5
telegram:
  bot_token: "123456:test-token"
  chat_id: "-100200300"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Child.Command != "./main" {
		t.Errorf("Child.Command = %q, want %q", cfg.Child.Command, "./main")
	}
	if cfg.Child.WorkDir != "/opt/app" {
		t.Errorf("Child.WorkDir = %q, want %q", cfg.Child.WorkDir, "/opt/app")
	}
	if cfg.Telegram.BotToken != "123456:test-token" {
		t.Errorf("Telegram.BotToken = %q, want %q", cfg.Telegram.BotToken, "123456:test-token")
	}
	if cfg.Telegram.ChatID != "-100200300" {
		t.Errorf("Telegram.ChatID = %q, want %q", cfg.Telegram.ChatID, "-100200300")
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
telegram:
  bot_token: "tok"
  chat_id: "42"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Child.Command != "main" {
		t.Errorf("default Child.Command = %q, want %q", cfg.Child.Command, "main")
	}
	if cfg.Child.LogPath != "app.log" {
		t.Errorf("default Child.LogPath = %q, want %q", cfg.Child.LogPath, "app.log")
	}
	if cfg.Supervisor.RestartDelaySeconds != DefaultRestartDelaySeconds {
		t.Errorf("default RestartDelaySeconds = %d, want %d",
			cfg.Supervisor.RestartDelaySeconds, DefaultRestartDelaySeconds)
	}
	if cfg.Telegram.APIBaseURL != "https://api.telegram.org" {
		t.Errorf("default Telegram.APIBaseURL = %q, want %q",
			cfg.Telegram.APIBaseURL, "https://api.telegram.org")
	}
	if cfg.Database.Enabled || cfg.MQTT.Enabled || cfg.InfluxDB.Enabled || cfg.API.Enabled {
		t.Error("optional subsystems should default to disabled")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("default Logging = %+v, want info/json", cfg.Logging)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingCredentialsIsFatal(t *testing.T) {
	content := `
child:
  command: "./main"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected error for missing telegram credentials, got nil")
	}
	if !strings.Contains(err.Error(), "telegram.bot_token") {
		t.Errorf("error %q should mention telegram.bot_token", err)
	}
	if !strings.Contains(err.Error(), "telegram.chat_id") {
		t.Errorf("error %q should mention telegram.chat_id", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
telegram:
  bot_token: "file-token"
  chat_id: "file-chat"
`
	t.Setenv("APPSENTRY_TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("APPSENTRY_TELEGRAM_CHAT_ID", "env-chat")
	t.Setenv("APPSENTRY_DATABASE_PATH", "/tmp/env.db")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("BotToken = %q, want env override %q", cfg.Telegram.BotToken, "env-token")
	}
	if cfg.Telegram.ChatID != "env-chat" {
		t.Errorf("ChatID = %q, want env override %q", cfg.Telegram.ChatID, "env-chat")
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("Database.Path = %q, want env override %q", cfg.Database.Path, "/tmp/env.db")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Telegram.BotToken = "tok"
		cfg.Telegram.ChatID = "42"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "missing child command",
			mutate:  func(c *Config) { c.Child.Command = "" },
			wantErr: "child.command",
		},
		{
			name:    "zero restart delay",
			mutate:  func(c *Config) { c.Supervisor.RestartDelaySeconds = 0 },
			wantErr: "restart_delay_seconds",
		},
		{
			name:    "negative restart delay",
			mutate:  func(c *Config) { c.Supervisor.RestartDelaySeconds = -1 },
			wantErr: "restart_delay_seconds",
		},
		{
			name:    "database enabled without path",
			mutate:  func(c *Config) { c.Database.Enabled = true; c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "mqtt enabled with bad qos",
			mutate:  func(c *Config) { c.MQTT.Enabled = true; c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.Bucket = "b" },
			wantErr: "influxdb.url",
		},
		{
			name:    "api enabled with bad port",
			mutate:  func(c *Config) { c.API.Enabled = true; c.API.Port = 0 },
			wantErr: "api.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.RestartDelay(); got != 5*time.Second {
		t.Errorf("RestartDelay() = %v, want %v", got, 5*time.Second)
	}
	if got := cfg.GetReadTimeout(); got != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v, want %v", got, 30*time.Second)
	}
	if got := cfg.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want %v", got, 60*time.Second)
	}
}

func TestSupervisorName(t *testing.T) {
	cfg := defaultConfig()
	cfg.Child.Command = "/opt/app/worker"

	cfg.Supervisor.Name = "billing"
	if got := cfg.SupervisorName(); got != "billing" {
		t.Errorf("SupervisorName() = %q, want %q", got, "billing")
	}

	cfg.Supervisor.Name = ""
	if got := cfg.SupervisorName(); got != "worker" {
		t.Errorf("SupervisorName() = %q, want child base name %q", got, "worker")
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	// The shipped example must work as its header instructs: copy it and
	// supply the credentials through the environment.
	t.Setenv("APPSENTRY_TELEGRAM_BOT_TOKEN", "123456:test-token")
	t.Setenv("APPSENTRY_TELEGRAM_CHAT_ID", "-100200300")

	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "config.example.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.SupervisorName(); got != "main" {
		t.Errorf("SupervisorName() = %q, want fallback to child command %q", got, "main")
	}
	if cfg.Database.Enabled || cfg.MQTT.Enabled || cfg.InfluxDB.Enabled || cfg.API.Enabled {
		t.Error("example config should leave optional subsystems disabled")
	}
}
