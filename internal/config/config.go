package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds API server configuration
type Config struct {
	// Server
	Env        string
	Port       string
	CORSOrigin string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Trading
	StartingCash decimal.Decimal

	// Pipeline & jobs
	PipelineAPIKey   string
	SnapshotSchedule string
	StockCacheTTL    time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	loadDotEnv()

	config := &Config{
		Env:        getEnv("ENV", "development"),
		Port:       getEnv("PORT", "8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "tradedesk"),
		DBPassword: getEnv("DB_PASSWORD", "tradedesk"),
		DBName:     getEnv("DB_NAME", "tradedesk"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "tradedesk.db"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		PipelineAPIKey:   os.Getenv("PIPELINE_API_KEY"),
		SnapshotSchedule: getEnv("SNAPSHOT_SCHEDULE", "0 30 16 * * MON-FRI"),
	}

	switch config.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: must be postgres or sqlite", config.DBDriver)
	}

	config.JWTExpirationDur = getDuration("JWT_EXPIRES_IN", 24*time.Hour)
	config.StockCacheTTL = getDuration("STOCK_CACHE_TTL", 5*time.Second)

	cash, err := decimal.NewFromString(getEnv("STARTING_CASH", "100000"))
	if err != nil || cash.IsNegative() {
		return nil, fmt.Errorf("invalid STARTING_CASH %q", os.Getenv("STARTING_CASH"))
	}
	config.StartingCash = cash

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the process-wide configuration. Tests use it to pin values
// such as the JWT secret without touching the environment.
func Set(cfg *Config) {
	appConfig = cfg
}

var dotEnvLoaded bool

// loadDotEnv loads a .env file once if one exists
func loadDotEnv() {
	if dotEnvLoaded {
		return
	}
	dotEnvLoaded = true
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration variable, falling back to the default on bad input
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func parseBool(s string, defaultVal bool) (bool, error) {
	if s == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return false, fmt.Errorf("must be true, false, 1, or 0, got %q", s)
	}
	return b, nil
}
