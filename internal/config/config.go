// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the holdings database
	LogLevel string
	Port     int
	DevMode  bool

	// Quote provider
	FinnhubAPIKey  string
	FinnhubBaseURL string

	// Market calendar
	MarketTimezone string   // IANA zone of the exchange (default America/New_York)
	MarketOpen     string   // local open time, HH:MM
	MarketClose    string   // local close time, HH:MM
	Holidays       []string // extra holidays as YYYY-MM-DD, merged with the built-in list

	// Cache and fetch behavior
	OpenMarketTTL   time.Duration // freshness window while the market is open
	CacheHorizon    time.Duration // entries older than this are purged lazily
	RateLimitCalls  int           // provider calls allowed per RateLimitWindow
	RateLimitWindow time.Duration
	FetchAttempts   int           // attempts per symbol within one request
	RetryBase       time.Duration // first backoff delay, doubled per attempt
	ResolveTimeout  time.Duration // deadline for one full Resolve call
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		FinnhubAPIKey:  getEnv("FINNHUB_API_KEY", ""),
		FinnhubBaseURL: getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),

		MarketTimezone: getEnv("MARKET_TIMEZONE", "America/New_York"),
		MarketOpen:     getEnv("MARKET_OPEN", "09:30"),
		MarketClose:    getEnv("MARKET_CLOSE", "16:00"),
		Holidays:       getEnvAsList("MARKET_HOLIDAYS"),

		OpenMarketTTL:   getEnvAsDuration("QUOTE_TTL_OPEN", 60*time.Second),
		CacheHorizon:    getEnvAsDuration("QUOTE_CACHE_HORIZON", 7*24*time.Hour),
		RateLimitCalls:  getEnvAsInt("PROVIDER_RATE_LIMIT_CALLS", 60),
		RateLimitWindow: getEnvAsDuration("PROVIDER_RATE_LIMIT_WINDOW", time.Minute),
		FetchAttempts:   getEnvAsInt("PROVIDER_FETCH_ATTEMPTS", 3),
		RetryBase:       getEnvAsDuration("PROVIDER_RETRY_BASE", 500*time.Millisecond),
		ResolveTimeout:  getEnvAsDuration("RESOLVE_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.MarketTimezone); err != nil {
		return fmt.Errorf("invalid MARKET_TIMEZONE %q: %w", c.MarketTimezone, err)
	}
	if c.FetchAttempts < 1 {
		return fmt.Errorf("PROVIDER_FETCH_ATTEMPTS must be at least 1, got %d", c.FetchAttempts)
	}
	if c.RateLimitCalls < 1 {
		return fmt.Errorf("PROVIDER_RATE_LIMIT_CALLS must be at least 1, got %d", c.RateLimitCalls)
	}

	// Note: Finnhub API key optional; without it the provider returns
	// permanent auth errors and the portfolio degrades to cached data.
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
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
