package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath string
	LogLevel     string
	Port         int
	DevMode      bool

	// SnapshotCron is the cron schedule for the recurring health score
	// snapshot job. SnapshotOrgs lists the organizations the job covers.
	SnapshotCron string
	SnapshotOrgs []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8002),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		DatabasePath: getEnv("DATABASE_PATH", "./data/finpulse.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		SnapshotCron: getEnv("SNAPSHOT_CRON", "0 0 6 * * *"), // 06:00 daily
		SnapshotOrgs: getEnvAsList("SNAPSHOT_ORGS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be a valid port number, got %d", c.Port)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
