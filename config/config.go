package config

import (
	"os"
	"strconv"
	"time"

	"hotelintel/pricewatcher/pkg/errors"
)

// Backend names accepted by PRICEWATCHER_BACKEND
const (
	BackendChrome = "chrome"
	BackendStatic = "static"
)

// Config represents the application configuration
type Config struct {
	// Postgres configuration
	DatabaseURL string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Scraper configuration
	Backend           string
	BookingBaseURL    string
	PricingEndpoint   string
	DefaultCurrency   string
	NavigationTimeout time.Duration
	SettleWait        time.Duration
	BatchDelay        time.Duration
	BlockTime         time.Duration
	UserAgent         string
	ProxyURL          string
	ChromeHeadless    bool

	// Monitor configuration
	MonitorInterval time.Duration

	// Batch run bookkeeping
	RunTTL time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	redisStreamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	navTimeout, _ := strconv.Atoi(getEnv("NAVIGATION_TIMEOUT_SECONDS", "30"))
	settleWait, _ := strconv.Atoi(getEnv("SETTLE_WAIT_SECONDS", "8"))
	batchDelay, _ := strconv.Atoi(getEnv("BATCH_DELAY_SECONDS", "2"))
	blockTime, _ := strconv.Atoi(getEnv("BLOCK_TIME_SECONDS", "300"))
	monitorInterval, _ := strconv.Atoi(getEnv("MONITOR_INTERVAL_SECONDS", "86400"))
	runTTL, _ := strconv.Atoi(getEnv("RUN_TTL_SECONDS", "3600"))
	headless, _ := strconv.ParseBool(getEnv("CHROME_HEADLESS", "true"))

	return Config{
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "pricechanges"),
		RedisStreamCount:     redisStreamCount,
		RedisStreamMaxLength: redisStreamMaxLength,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		Backend:              getEnv("PRICEWATCHER_BACKEND", BackendChrome),
		BookingBaseURL:       getEnv("BOOKING_BASE_URL", "https://www.booking.com"),
		PricingEndpoint:      getEnv("PRICING_ENDPOINT", "/dml/graphql"),
		DefaultCurrency:      getEnv("DEFAULT_CURRENCY", "EUR"),
		NavigationTimeout:    time.Duration(navTimeout) * time.Second,
		SettleWait:           time.Duration(settleWait) * time.Second,
		BatchDelay:           time.Duration(batchDelay) * time.Second,
		BlockTime:            time.Duration(blockTime) * time.Second,
		UserAgent:            getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		ProxyURL:             getEnv("PROXY_URL", ""),
		ChromeHeadless:       headless,
		MonitorInterval:      time.Duration(monitorInterval) * time.Second,
		RunTTL:               time.Duration(runTTL) * time.Second,
		Environment:          getEnv("PRICEWATCHER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Backend != BackendChrome && c.Backend != BackendStatic {
		return errors.NewConfiguration("unknown backend: "+c.Backend, nil)
	}
	if c.DefaultCurrency == "" {
		return errors.NewConfiguration("default currency must not be empty", nil)
	}
	if c.PricingEndpoint == "" {
		return errors.NewConfiguration("pricing endpoint pattern must not be empty", nil)
	}
	if c.NavigationTimeout <= 0 {
		return errors.NewConfiguration("navigation timeout must be positive", nil)
	}
	if c.SettleWait < 0 || c.BatchDelay < 0 {
		return errors.NewConfiguration("wait durations must not be negative", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
