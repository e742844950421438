package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Database
	DatabaseURL string

	// Auth
	JWTSecret string

	// Cron
	CronSecret string

	// Sync
	SessionTimeoutMinutes int
	EventRetentionDays    int

	// Server
	Port        string
	Environment string
}

func Load() *Config {
	return &Config{
		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Auth
		JWTSecret: getEnv("JWT_SECRET", ""),

		// Cron
		CronSecret: getEnv("CRON_SECRET", ""),

		// Sync
		SessionTimeoutMinutes: getEnvInt("SYNC_SESSION_TIMEOUT_MINUTES", 30),
		EventRetentionDays:    getEnvInt("SYNC_EVENT_RETENTION_DAYS", 90),

		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
