// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvEndpointURL is the fallback base URL of a connection with no url.
const EnvEndpointURL = "REST_ENDPOINT_URL"

// Model backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendYAML   = "yaml"
	BackendREST   = "rest"
)

// DefaultConnectionName is given to a connection configured without a name.
const DefaultConnectionName = "default"

// Config is the root configuration structure.
type Config struct {
	Connections []ConnectionConfig `yaml:"connections"`
	Models      []ModelConfig      `yaml:"models"`
	Logging     LoggingConfig      `yaml:"logging"`
	Metrics     MetricsConfig      `yaml:"metrics"`
}

// ConnectionConfig configures a named REST connection.
type ConnectionConfig struct {
	Name        string            `yaml:"name"`
	URL         string            `yaml:"url"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Timeout     time.Duration     `yaml:"timeout"`
	MaxAttempts int               `yaml:"max_attempts"` // total attempts, first included
}

// ModelConfig binds a model name to a backend.
type ModelConfig struct {
	Name       string   `yaml:"name"`
	Backend    string   `yaml:"backend"`   // "memory", "file", "yaml" or "rest"
	Source     string   `yaml:"source"`    // directory (file, yaml) or collection path (rest, defaults to /<plural name>)
	Extension  string   `yaml:"extension"` // file and yaml only
	Columns    []string `yaml:"columns"`
	PrimaryKey string   `yaml:"primary_key"`
	Connection string   `yaml:"connection"` // rest only; empty uses the default connection

	// Rows seed a memory backend.
	Rows []map[string]any `yaml:"rows,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics for REST calls.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Connection returns the connection named name.
func (c *Config) Connection(name string) (ConnectionConfig, bool) {
	for _, conn := range c.Connections {
		if conn.Name == name {
			return conn, true
		}
	}
	return ConnectionConfig{}, false
}

// Model returns the model named name.
func (c *Config) Model(name string) (ModelConfig, bool) {
	for _, m := range c.Models {
		if m.Name == name {
			return m, true
		}
	}
	return ModelConfig{}, false
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// It yields a single default connection and no models.
//
// Environment variables:
//
//	REST_ENDPOINT_URL           - Default connection URL (required)
//	BASEMODEL_TIMEOUT           - Request timeout (default: 30s)
//	BASEMODEL_MAX_ATTEMPTS      - Attempts per call, first included (default: 2)
//	BASEMODEL_LOG_LEVEL         - Log level: debug, info, warn, error (default: info)
//	BASEMODEL_LOG_FORMAT        - Log format: json or console (default: json)
//	BASEMODEL_METRICS_ENABLED   - Collect REST call metrics (default: false)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if HasEnvConfig() {
		return LoadFromEnv()
	}

	return nil, fmt.Errorf("no configuration found: provide config file or set %s", EnvEndpointURL)
}

// HasEnvConfig returns true if essential environment variables are set.
func HasEnvConfig() bool {
	return os.Getenv(EnvEndpointURL) != ""
}

// applyEnvOverrides applies BASEMODEL_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// A bare environment gets the connection REST_ENDPOINT_URL points at.
	if v := os.Getenv(EnvEndpointURL); v != "" && len(cfg.Connections) == 0 {
		cfg.Connections = []ConnectionConfig{{Name: DefaultConnectionName, URL: v}}
	}

	// Connection settings apply to every connection
	if v := os.Getenv("BASEMODEL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			for i := range cfg.Connections {
				cfg.Connections[i].Timeout = d
			}
		}
	}
	if v := os.Getenv("BASEMODEL_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			for i := range cfg.Connections {
				cfg.Connections[i].MaxAttempts = n
			}
		}
	}

	// Logging configuration
	if v := os.Getenv("BASEMODEL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BASEMODEL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("BASEMODEL_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	for i := range cfg.Connections {
		c := &cfg.Connections[i]
		if c.Name == "" {
			c.Name = DefaultConnectionName
		}
		if c.URL == "" {
			c.URL = os.Getenv(EnvEndpointURL)
		}
		if c.Timeout == 0 {
			c.Timeout = 30 * time.Second
		}
		if c.MaxAttempts == 0 {
			c.MaxAttempts = 2
		}
	}

	for i := range cfg.Models {
		m := &cfg.Models[i]
		if m.Backend == "" {
			m.Backend = BackendMemory
		}
		m.Backend = strings.ToLower(m.Backend)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	names := make(map[string]bool, len(cfg.Connections))
	for i, c := range cfg.Connections {
		if c.URL == "" {
			return fmt.Errorf("connections[%d].url is required (or set %s)", i, EnvEndpointURL)
		}
		if names[c.Name] {
			return fmt.Errorf("connections[%d]: duplicate name %q", i, c.Name)
		}
		names[c.Name] = true
		if c.MaxAttempts < 1 {
			return fmt.Errorf("connections[%d].max_attempts must be at least 1", i)
		}
	}

	validBackends := map[string]bool{
		BackendMemory: true, BackendFile: true, BackendYAML: true, BackendREST: true,
	}
	models := make(map[string]bool, len(cfg.Models))
	for i, m := range cfg.Models {
		if m.Name == "" {
			return fmt.Errorf("models[%d].name is required", i)
		}
		if models[m.Name] {
			return fmt.Errorf("models[%d]: duplicate name %q", i, m.Name)
		}
		models[m.Name] = true

		if !validBackends[m.Backend] {
			return fmt.Errorf("models[%d].backend must be one of: memory, file, yaml, rest", i)
		}
		if m.Backend != BackendMemory && len(m.Rows) > 0 {
			return fmt.Errorf("models[%d].rows is only supported for backend \"memory\"", i)
		}
		if (m.Backend == BackendFile || m.Backend == BackendYAML) && m.Source == "" {
			return fmt.Errorf("models[%d].source is required for backend %q", i, m.Backend)
		}
		if m.Backend == BackendREST {
			if len(m.Columns) == 0 {
				return fmt.Errorf("models[%d].columns is required for backend \"rest\"", i)
			}
			if m.Connection != "" && !names[m.Connection] {
				return fmt.Errorf("models[%d].connection %q is not configured", i, m.Connection)
			}
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}
