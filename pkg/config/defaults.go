package config

import (
	"os"
	"time"
)

// Default values for configuration.
const (
	DefaultStoragePath    = "bugs.json"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultWebhookTimeout = 10 * time.Second
)

// DefaultExcludeDirs are skipped when walking directories.
var DefaultExcludeDirs = []string{".git", "node_modules", "vendor", "__pycache__"}

// Environment variable names.
const (
	EnvStorage   = "BUGINSPECTOR_STORAGE"
	EnvLogLevel  = "BUGINSPECTOR_LOG_LEVEL"
	EnvLogFormat = "BUGINSPECTOR_LOG_FORMAT"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		StoragePath: DefaultStoragePath,
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		ExcludeDirs: append([]string(nil), DefaultExcludeDirs...),
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv(EnvStorage); v != "" {
		c.StoragePath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
}
