package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort    int
	DatabasePath  string
	JWTSecret     string
	TokenTTL      time.Duration // lifetime of issued bearer tokens
	StoreTimeout  time.Duration // upper bound for a single store operation
	ScanSchedule  string        // cron expression for the due-task scanner
	AllowedOrigin string
	AppEnv        string
	LogLevel      string
}

// Production reports whether the app runs in production mode.
func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

// Load loads configuration from a local .env file (if present) and the
// environment, falling back to defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	tokenTTL, err := getDuration("TOKEN_TTL", 168*time.Hour)
	if err != nil {
		return nil, err
	}
	storeTimeout, err := getDuration("STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:    port,
		DatabasePath:  getEnv("DATABASE_PATH", "./taskdeck.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      tokenTTL,
		StoreTimeout:  storeTimeout,
		ScanSchedule:  getEnv("SCAN_SCHEDULE", "*/15 * * * *"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		AppEnv:        getEnv("APP_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	if cfg.JWTSecret == "" {
		if cfg.Production() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "insecure-dev-secret"
	}

	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
