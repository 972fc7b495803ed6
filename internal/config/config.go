// Package config loads process configuration from the environment and model
// definitions from a YAML file.
package config

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/kelseyhightower/envconfig"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is read from the environment.
type Config struct {
	Port     string `envconfig:"APP_PORT" default:"8080"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"memory"`
	DatabaseURL   string `envconfig:"DATABASE_URL" json:"-"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"tombstone.db"`
	DBMaxConns    int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns    int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// ModelsFile is a YAML file with model definitions; empty serves the built-in demo model.
	ModelsFile  string `envconfig:"MODELS_FILE"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// Load reads and validates the configuration.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks driver-specific settings.
func (cfg *Config) Validate() error {
	switch cfg.StorageDriver {
	case DriverMemory:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", DriverPostgres)
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the %s driver", DriverSQLite)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	return nil
}

// Development reports whether the process runs in development mode.
func (cfg *Config) Development() bool {
	return cfg.Env == "development"
}

// Addr returns the HTTP listen address.
func (cfg *Config) Addr() string {
	return ":" + cfg.Port
}

// String renders the configuration without secrets.
func (cfg *Config) String() string {
	data, err := jsoniter.Marshal(cfg)
	if err != nil {
		return "{}"
	}
	return string(data)
}
