// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port     string
	Env      string // "development" or "production"
	LogLevel string

	// Storage
	DBPath       string
	SnapshotPath string // optional assignment snapshot loaded at startup

	// Catalogs
	CatalogDir string // optional override directory for the embedded catalogs

	// Engagement
	LegacyTiers bool // use the 30/70 tier boundaries instead of 25/80

	// Journey sessions
	SessionTTLMinutes int
}

const (
	DefaultPort       = "8080"
	DefaultEnv        = "development"
	DefaultLogLevel   = "info"
	DefaultDBPath     = "growth-engine.db"
	DefaultSessionTTL = 30
)

// Load reads configuration from environment variables. A .env file is
// loaded first when present, for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("GE_PORT", DefaultPort),
		Env:               getEnv("GE_ENV", DefaultEnv),
		LogLevel:          getEnv("GE_LOG_LEVEL", DefaultLogLevel),
		DBPath:            getEnv("GE_DB_PATH", DefaultDBPath),
		SnapshotPath:      os.Getenv("GE_SNAPSHOT_PATH"),
		CatalogDir:        os.Getenv("GE_CATALOG_DIR"),
		LegacyTiers:       getEnvBool("GE_LEGACY_TIERS", false),
		SessionTTLMinutes: getEnvInt("GE_SESSION_TTL_MINUTES", DefaultSessionTTL),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("GE_PORT must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("GE_DB_PATH must not be empty")
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("GE_SESSION_TTL_MINUTES must be positive")
	}
	if c.CatalogDir != "" {
		info, err := os.Stat(c.CatalogDir)
		if err != nil {
			return fmt.Errorf("GE_CATALOG_DIR: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("GE_CATALOG_DIR %q is not a directory", c.CatalogDir)
		}
	}
	return nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
