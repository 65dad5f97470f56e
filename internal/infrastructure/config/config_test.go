package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
relay:
  host: "127.0.0.1"
  port: 9090
websocket:
  path: "/robots"
  send_buffer: 8
database:
  enabled: true
  path: "/tmp/relay.db"
mqtt:
  enabled: true
  broker:
    host: "broker.local"
    port: 1883
  topic_prefix: "lab"
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q, want %q", cfg.Addr(), "127.0.0.1:9090")
	}
	if cfg.WebSocket.Path != "/robots" {
		t.Errorf("WebSocket.Path = %q, want %q", cfg.WebSocket.Path, "/robots")
	}
	if cfg.WebSocket.SendBuffer != 8 {
		t.Errorf("WebSocket.SendBuffer = %d, want 8", cfg.WebSocket.SendBuffer)
	}
	// Unset keys keep their defaults.
	if cfg.WebSocket.PingInterval != 30 {
		t.Errorf("WebSocket.PingInterval = %d, want 30", cfg.WebSocket.PingInterval)
	}
	if !cfg.Database.Enabled || cfg.Database.Path != "/tmp/relay.db" {
		t.Errorf("Database = %+v, want enabled at /tmp/relay.db", cfg.Database)
	}
	if cfg.MQTT.TopicPrefix != "lab" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "lab")
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q, want %q", cfg.Addr(), "0.0.0.0:8080")
	}
	if cfg.Database.Enabled || cfg.MQTT.Enabled || cfg.InfluxDB.Enabled {
		t.Error("optional backends should be disabled by default")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
relay:
  port: 0
logging:
  format: "xml"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	// Every problem is reported, not just the first.
	for _, want := range []string{"relay.port", "logging.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoad_BadPortEnv(t *testing.T) {
	t.Setenv("ROBOTRELAY_RELAY_PORT", "eighty")

	if _, err := Load(""); err == nil {
		t.Error("Load() expected error for non-numeric port, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.Relay.Port = 0 },
			wantErr: true,
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Relay.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "relative websocket path",
			mutate:  func(c *Config) { c.WebSocket.Path = "ws" },
			wantErr: true,
		},
		{
			name:   "empty websocket path",
			mutate: func(c *Config) { c.WebSocket.Path = "" },
		},
		{
			name:    "zero send buffer",
			mutate:  func(c *Config) { c.WebSocket.SendBuffer = 0 },
			wantErr: true,
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
		{
			name: "database enabled without path",
			mutate: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Path = ""
			},
			wantErr: true,
		},
		{
			name:   "database disabled without path",
			mutate: func(c *Config) { c.Database.Path = "" },
		},
		{
			name: "mqtt enabled without prefix",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.TopicPrefix = ""
			},
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		Relay: RelayConfig{
			Timeouts: RelayTimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("ROBOTRELAY_RELAY_HOST", "192.168.1.1")
	t.Setenv("ROBOTRELAY_RELAY_PORT", "9000")
	t.Setenv("ROBOTRELAY_LOG_LEVEL", "debug")
	t.Setenv("ROBOTRELAY_DATABASE_PATH", "/custom/path.db")
	t.Setenv("ROBOTRELAY_MQTT_HOST", "mqtt.example.com")
	t.Setenv("ROBOTRELAY_MQTT_USERNAME", "testuser")
	t.Setenv("ROBOTRELAY_MQTT_PASSWORD", "testpass")
	t.Setenv("ROBOTRELAY_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("ROBOTRELAY_ROBOT_ID", "robot42")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.Relay.Host != "192.168.1.1" {
		t.Errorf("Relay.Host = %q, want %q", cfg.Relay.Host, "192.168.1.1")
	}
	if cfg.Relay.Port != 9000 {
		t.Errorf("Relay.Port = %d, want 9000", cfg.Relay.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Database.Path != "/custom/path.db" || !cfg.Database.Enabled {
		t.Errorf("Database = %+v, want enabled at /custom/path.db", cfg.Database)
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" || !cfg.MQTT.Enabled {
		t.Errorf("MQTT.Broker.Host = %q enabled=%v", cfg.MQTT.Broker.Host, cfg.MQTT.Enabled)
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.InfluxDB.Enabled {
		t.Error("a token alone should not enable InfluxDB")
	}
	if cfg.Robot.DeviceID != "robot42" {
		t.Errorf("Robot.DeviceID = %q, want %q", cfg.Robot.DeviceID, "robot42")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Relay.Port != 8080 {
		t.Errorf("Relay.Port = %d, want 8080", cfg.Relay.Port)
	}
	if cfg.Relay.Host != "0.0.0.0" {
		t.Errorf("Relay.Host = %q, want 0.0.0.0", cfg.Relay.Host)
	}
	if cfg.Robot.ReconnectDelay != 5 {
		t.Errorf("Robot.ReconnectDelay = %d, want 5", cfg.Robot.ReconnectDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}
