package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port" env:"ITS_SERVER_PORT"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" env:"ITS_RATE_LIMIT_PER_SEC"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" env:"ITS_RATE_LIMIT_BURST"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" env:"ITS_CACHE_TTL_SECONDS"`
	AllowedOrigin   string  `yaml:"allowed_origin" env:"ITS_ALLOWED_ORIGIN"`
	ShutdownSeconds int     `yaml:"shutdown_seconds" env:"ITS_SHUTDOWN_SECONDS"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver" env:"ITS_DB_DRIVER"`
	DSN                    string `yaml:"dsn" env:"ITS_DB_DSN"`
	TablePrefix            string `yaml:"table_prefix" env:"ITS_DB_TABLE_PREFIX"`
	MaxOpenConns           int    `yaml:"max_open_conns" env:"ITS_DB_MAX_OPEN_CONNS"`
	MaxIdleConns           int    `yaml:"max_idle_conns" env:"ITS_DB_MAX_IDLE_CONNS"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes" env:"ITS_DB_CONN_MAX_LIFETIME_MINUTES"`
	LogLevel               string `yaml:"log_level" env:"ITS_DB_LOG_LEVEL"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"ITS_LOG_LEVEL"`
	Format string `yaml:"format" env:"ITS_LOG_FORMAT"` // json or console
}

// Load reads the configuration from the given path, then applies ITS_*
// environment overrides and defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 20
	}
	if cfg.Server.CacheTTLSeconds < 0 {
		cfg.Server.CacheTTLSeconds = 0
	}
	if cfg.Server.AllowedOrigin == "" {
		cfg.Server.AllowedOrigin = "*"
	}
	if cfg.Server.ShutdownSeconds <= 0 {
		cfg.Server.ShutdownSeconds = 5
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		log.Warn().Msg("database.dsn is not set; defaulting to ./inventory.db")
		cfg.Database.DSN = "file:inventory.db?_foreign_keys=on"
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetimeMinutes <= 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}
