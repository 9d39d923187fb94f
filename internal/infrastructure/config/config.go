package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the xmlruntime tool.
// All configuration is loaded from YAML (or TOML) and can be overridden by
// environment variables.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Loader   LoaderConfig   `yaml:"loader" toml:"loader"`
	History  HistoryConfig  `yaml:"history" toml:"history"`
	MQTT     MQTTConfig     `yaml:"mqtt" toml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb" toml:"influxdb"`
	Output   OutputConfig   `yaml:"output" toml:"output"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	Output string `yaml:"output" toml:"output"`
}

// LoaderConfig contains document loader settings.
type LoaderConfig struct {
	// SchemaFile replaces the embedded schema description when set.
	SchemaFile string `yaml:"schema_file" toml:"schema_file"`

	// MaxIncludeDepth limits xi:include nesting. 0 uses the loader default,
	// negative disables the limit.
	MaxIncludeDepth int `yaml:"max_include_depth" toml:"max_include_depth"`

	// MaxFileSize limits each document in bytes. 0 uses the loader default.
	MaxFileSize int64 `yaml:"max_file_size" toml:"max_file_size"`

	// Entities supplies replacement text for entity references.
	Entities map[string]string `yaml:"entities" toml:"entities"`
}

// HistoryConfig contains the SQLite load-history settings.
type HistoryConfig struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	Path        string `yaml:"path" toml:"path"`
	WALMode     bool   `yaml:"wal_mode" toml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout" toml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled" toml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker" toml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth" toml:"auth"`
	QoS         int                 `yaml:"qos" toml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix" toml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect" toml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	TLS      bool   `yaml:"tls" toml:"tls"`
	ClientID string `yaml:"client_id" toml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay" toml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay" toml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled" toml:"enabled"`
	URL           string `yaml:"url" toml:"url"`
	Token         string `yaml:"token" toml:"token"`
	Org           string `yaml:"org" toml:"org"`
	Bucket        string `yaml:"bucket" toml:"bucket"`
	BatchSize     int    `yaml:"batch_size" toml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval" toml:"flush_interval"`
}

// OutputConfig controls how a loaded configuration is printed.
type OutputConfig struct {
	// Format is one of "summary", "yaml" or "json".
	Format string `yaml:"format" toml:"format"`
}

// Output formats.
const (
	FormatSummary = "summary"
	FormatYAML    = "yaml"
	FormatJSON    = "json"
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: XMLRUNTIME_SECTION_KEY
// For example: XMLRUNTIME_HISTORY_PATH, XMLRUNTIME_LOG_LEVEL
//
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := unmarshal(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// unmarshal decodes data as TOML for .toml files and as YAML otherwise.
func unmarshal(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		History: HistoryConfig{
			Enabled:     false,
			Path:        "./data/xmlruntime.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "xmlruntime",
			},
			QoS:         1,
			TopicPrefix: "xmlruntime",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "xmlruntime",
			BatchSize:     100,
			FlushInterval: 1,
		},
		Output: OutputConfig{
			Format: FormatSummary,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: XMLRUNTIME_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Logging
	if v := os.Getenv("XMLRUNTIME_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("XMLRUNTIME_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Loader
	if v := os.Getenv("XMLRUNTIME_LOADER_SCHEMA_FILE"); v != "" {
		cfg.Loader.SchemaFile = v
	}
	if v := os.Getenv("XMLRUNTIME_LOADER_MAX_INCLUDE_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("XMLRUNTIME_LOADER_MAX_INCLUDE_DEPTH: %w", err)
		}
		cfg.Loader.MaxIncludeDepth = n
	}

	// History
	if v := os.Getenv("XMLRUNTIME_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("XMLRUNTIME_HISTORY_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("XMLRUNTIME_HISTORY_ENABLED: %w", err)
		}
		cfg.History.Enabled = b
	}

	// MQTT
	if v := os.Getenv("XMLRUNTIME_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("XMLRUNTIME_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("XMLRUNTIME_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("XMLRUNTIME_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Output
	if v := os.Getenv("XMLRUNTIME_OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = v
	}

	return nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q must be json or text", c.Logging.Format))
	}

	if c.Loader.MaxFileSize < 0 {
		errs = append(errs, "loader.max_file_size must not be negative")
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	switch c.Output.Format {
	case FormatSummary, FormatYAML, FormatJSON:
	default:
		errs = append(errs, fmt.Sprintf("output.format %q must be summary, yaml or json", c.Output.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetBusyTimeout returns the history database busy timeout as a Duration.
func (c *Config) GetBusyTimeout() time.Duration {
	return time.Duration(c.History.BusyTimeout) * time.Second
}
