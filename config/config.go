// Package config loads server settings from the environment.
package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	DatabaseURL string
	FrontendURL string
	LogLevel    string

	// AuthSecret enables signed identify tokens when non-empty.
	AuthSecret string

	// SnapshotInterval is the number of patches between eager snapshots.
	SnapshotInterval int

	// RateLimitPerSecond caps messages per connection per second; zero
	// disables limiting and keeps sends purely fire-and-forget.
	RateLimitPerSecond int
	RateLimitBurst     int
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		AuthSecret:         getEnv("LIVEDOCS_AUTH_SECRET", ""),
		SnapshotInterval:   getEnvInt("SNAPSHOT_INTERVAL", 20),
		RateLimitPerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 0),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 0),
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
