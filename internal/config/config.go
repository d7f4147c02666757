package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port    int
	APIURL  string
	DevMode bool

	// Cache
	RedisURL string

	// Provider API keys: any of these may be empty, in which case the
	// owning bot degrades to an empty result with an explanatory error.
	GNewsKey        string
	FMPKey          string
	AlphaVantageKey string
	PolygonKey      string
	FREDKey         string

	// Sweep tuning
	MaxConcurrentSweeps int
	InterAssetPause     time.Duration
	ResultTTL           time.Duration

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnvAsInt("PORT", 8002),
		APIURL:              getEnv("MB_API_URL", "http://localhost:8002"),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		GNewsKey:            getEnv("GNEWS_KEY", ""),
		FMPKey:              getEnv("FMP_KEY", ""),
		AlphaVantageKey:     getEnv("ALPHA_VANTAGE_KEY", ""),
		PolygonKey:          getEnv("POLYGON_KEY", ""),
		FREDKey:             getEnv("FRED_KEY", ""),
		MaxConcurrentSweeps: getEnvAsInt("MAX_CONCURRENT_SWEEPS", 3),
		InterAssetPause:     time.Duration(getEnvAsInt("SWEEP_INTER_ASSET_PAUSE_MS", 300)) * time.Millisecond,
		ResultTTL:           time.Duration(getEnvAsInt("RESULT_TTL_S", 7200)) * time.Second,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.MaxConcurrentSweeps < 1 {
		return fmt.Errorf("MAX_CONCURRENT_SWEEPS must be >= 1")
	}
	if c.ResultTTL <= 0 {
		return fmt.Errorf("RESULT_TTL_S must be positive")
	}

	// Provider API keys are optional: a missing key degrades the owning
	// bot to an empty result rather than failing startup.
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
