package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv       string
	Port         string
	DatabaseURL  string
	LogLevel     string
	LogFormat    string
	FetchTimeout int // seconds, default per-source unless overridden in plugin config
}

func Load() (*Config, error) {
	// A missing .env file is fine, the environment takes over
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	timeout := getEnv("FETCH_TIMEOUT_SECONDS", "10")
	parsed, err := strconv.Atoi(timeout)
	if err != nil || parsed <= 0 {
		return nil, fmt.Errorf("FETCH_TIMEOUT_SECONDS must be a positive integer, got %q", timeout)
	}
	cfg.FetchTimeout = parsed

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
