// Package config loads runtime settings from the environment, an optional
// .env file and an optional config.yml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends selectable with STORAGE.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageBadger   = "badger"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env         string        `mapstructure:"APP_ENV"`
	Port        string        `mapstructure:"PORT"`
	Storage     string        `mapstructure:"STORAGE"`
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	SQLitePath  string        `mapstructure:"SQLITE_PATH"`
	BadgerPath  string        `mapstructure:"BADGER_PATH"`
	RedisURL    string        `mapstructure:"REDIS_URL"`
	CacheTTL    time.Duration `mapstructure:"CACHE_TTL"`
	Seed        bool          `mapstructure:"SEED"`
}

// Load reads configuration. Values already in the environment win over the
// .env file, which wins over config.yml, which wins over defaults. dir is
// where .env and config.yml are looked up.
func Load(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config.yml: %w", err)
		}
	}

	// Every key needs a default so AutomaticEnv values reach Unmarshal.
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("PORT", "5000")
	v.SetDefault("STORAGE", StorageMemory)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SQLITE_PATH", "hobbyhub.db")
	v.SetDefault("BADGER_PATH", "data/badger")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("SEED", true)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE=postgres")
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE=sqlite")
		}
	case StorageBadger:
		if c.BadgerPath == "" {
			return errors.New("BADGER_PATH is required when STORAGE=badger")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	if c.RedisURL != "" && c.CacheTTL <= 0 {
		return errors.New("CACHE_TTL must be positive when REDIS_URL is set")
	}
	return nil
}

// Development reports whether APP_ENV selects development mode.
func (c *Config) Development() bool {
	return c.Env == "development" || c.Env == "dev"
}

// Addr is the listen address derived from PORT.
func (c *Config) Addr() string {
	return ":" + c.Port
}
