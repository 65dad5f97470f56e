package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the robot relay.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Relay     RelayConfig     `yaml:"relay"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Robot     RobotConfig     `yaml:"robot"`
}

// RelayConfig contains the listener settings shared by the WebSocket
// endpoint and the HTTP API.
type RelayConfig struct {
	Host     string             `yaml:"host"`
	Port     int                `yaml:"port"`
	Timeouts RelayTimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig         `yaml:"cors"`

	// EventBuffer is the length of the relay event queue.
	EventBuffer int `yaml:"event_buffer"`
}

// RelayTimeoutConfig contains HTTP timeout settings in seconds.
// Write applies to HTTP responses only; WebSocket writes use their own deadline.
type RelayTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket transport settings.
type WebSocketConfig struct {
	// Path is served in addition to "/".
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
	WriteTimeout   int    `yaml:"write_timeout"`
	SendBuffer     int    `yaml:"send_buffer"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text or auto
	Output string `yaml:"output"` // stdout or stderr
}

// DatabaseConfig contains SQLite settings for the session audit log.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`
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

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// RobotConfig contains settings for the device simulator.
type RobotConfig struct {
	URL            string `yaml:"url"`
	DeviceID       string `yaml:"device_id"`
	ReconnectDelay int    `yaml:"reconnect_delay"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults), skipped when path is empty
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ROBOTRELAY_SECTION_KEY
// For example: ROBOTRELAY_RELAY_PORT, ROBOTRELAY_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Relay: RelayConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: RelayTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  120,
			},
			EventBuffer: 1024,
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
			WriteTimeout:   10,
			SendBuffer:     64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
			Output: "stdout",
		},
		Database: DatabaseConfig{
			Enabled:     false,
			Path:        "./data/robotrelay.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "robotrelay",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			TopicPrefix: "robotrelay",
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			URL:           "http://localhost:8086",
			Org:           "robotrelay",
			Bucket:        "relay",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Robot: RobotConfig{
			URL:            "ws://localhost:8080/",
			DeviceID:       "robot1",
			ReconnectDelay: 5,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ROBOTRELAY_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Relay
	if v := os.Getenv("ROBOTRELAY_RELAY_HOST"); v != "" {
		cfg.Relay.Host = v
	}
	if v := os.Getenv("ROBOTRELAY_RELAY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ROBOTRELAY_RELAY_PORT: %w", err)
		}
		cfg.Relay.Port = port
	}

	// Logging
	if v := os.Getenv("ROBOTRELAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ROBOTRELAY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Database
	if v := os.Getenv("ROBOTRELAY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
		cfg.Database.Enabled = true
	}

	// MQTT
	if v := os.Getenv("ROBOTRELAY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
		cfg.MQTT.Enabled = true
	}
	if v := os.Getenv("ROBOTRELAY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ROBOTRELAY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("ROBOTRELAY_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
		cfg.InfluxDB.Enabled = true
	}
	if v := os.Getenv("ROBOTRELAY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Robot simulator
	if v := os.Getenv("ROBOTRELAY_ROBOT_URL"); v != "" {
		cfg.Robot.URL = v
	}
	if v := os.Getenv("ROBOTRELAY_ROBOT_ID"); v != "" {
		cfg.Robot.DeviceID = v
	}

	return nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Relay.Port < 1 || c.Relay.Port > 65535 {
		errs = append(errs, "relay.port must be between 1 and 65535")
	}
	if c.WebSocket.Path != "" && !strings.HasPrefix(c.WebSocket.Path, "/") {
		errs = append(errs, "websocket.path must start with /")
	}
	if c.WebSocket.MaxMessageSize <= 0 {
		errs = append(errs, "websocket.max_message_size must be positive")
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.PongTimeout <= 0 {
		errs = append(errs, "websocket.ping_interval and websocket.pong_timeout must be positive")
	}
	if c.WebSocket.SendBuffer <= 0 {
		errs = append(errs, "websocket.send_buffer must be positive")
	}

	switch c.Logging.Format {
	case "json", "text", "auto":
	default:
		errs = append(errs, "logging.format must be json, text, or auto")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the database is enabled")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.TopicPrefix == "" {
			errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
		}
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Addr returns the host:port the relay listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Relay.Host, c.Relay.Port)
}

// GetReadTimeout returns the HTTP read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Relay.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Relay.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the HTTP idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Relay.Timeouts.Idle) * time.Second
}
