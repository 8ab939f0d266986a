// Package config provides configuration management for FusionCore.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all FusionCore configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Geo       GeoConfig       `yaml:"geo"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RedisConfig holds result-cache connection settings. The cache is
// optional: an empty addr disables it and every fuse request is computed
// fresh.
type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	PasswordEnv string        `yaml:"password_env"`
	DB          int           `yaml:"db"`
	PoolSize    int           `yaml:"pool_size"`
	ResultTTL   time.Duration `yaml:"result_ttl"`
}

// GeoConfig holds coordinate-normalization settings.
type GeoConfig struct {
	// TruncationRepair preserves the theatre-specific latitude repair
	// (lat+40 for 0<=lat<10 with 30<lng<41). Disable only when upstream
	// reporting has been fixed; results change for the affected window.
	TruncationRepair bool `yaml:"truncation_repair"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// TelemetryConfig holds metrics and tracing settings.
type TelemetryConfig struct {
	MetricsEnabled bool    `yaml:"metrics_enabled"`
	TracingEnabled bool    `yaml:"tracing_enabled"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint"`
	SamplingRate   float64 `yaml:"sampling_rate"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			PasswordEnv: "FUSIONCORE_REDIS_PASSWORD",
			DB:          0,
			PoolSize:    10,
			ResultTTL:   5 * time.Minute,
		},
		Geo: GeoConfig{
			TruncationRepair: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled: true,
			TracingEnabled: false,
			SamplingRate:   0.1,
		},
	}
}

// Validate checks settings that would fail at runtime in confusing ways.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Telemetry.TracingEnabled && c.Telemetry.OTLPEndpoint == "" {
		return fmt.Errorf("tracing enabled but otlp_endpoint is empty")
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return fmt.Errorf("sampling_rate must be in [0,1]: %f", c.Telemetry.SamplingRate)
	}
	return nil
}
