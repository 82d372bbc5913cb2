package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.Equal(t, 0, config.RedisDB)
	assert.Equal(t, "localhost:11211", config.MemcacheAddr)
	assert.Equal(t, BackendChrome, config.Backend)
	assert.Equal(t, "EUR", config.DefaultCurrency)
	assert.Equal(t, "/dml/graphql", config.PricingEndpoint)
	assert.Equal(t, 30*time.Second, config.NavigationTimeout)
	assert.Equal(t, 8*time.Second, config.SettleWait)
	assert.Equal(t, 2*time.Second, config.BatchDelay)
	assert.True(t, config.ChromeHeadless)

	// Test with environment variables
	os.Setenv("REDIS_ADDR", "redis.example.com:6379")
	os.Setenv("REDIS_DB", "1")
	os.Setenv("PRICEWATCHER_BACKEND", "static")
	os.Setenv("DEFAULT_CURRENCY", "USD")
	os.Setenv("BATCH_DELAY_SECONDS", "5")
	os.Setenv("SETTLE_WAIT_SECONDS", "3")

	config = LoadConfig()
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 1, config.RedisDB)
	assert.Equal(t, BackendStatic, config.Backend)
	assert.Equal(t, "USD", config.DefaultCurrency)
	assert.Equal(t, 5*time.Second, config.BatchDelay)
	assert.Equal(t, 3*time.Second, config.SettleWait)

	// Clean up
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("REDIS_DB")
	os.Unsetenv("PRICEWATCHER_BACKEND")
	os.Unsetenv("DEFAULT_CURRENCY")
	os.Unsetenv("BATCH_DELAY_SECONDS")
	os.Unsetenv("SETTLE_WAIT_SECONDS")
}

func TestValidate(t *testing.T) {
	config := LoadConfig()
	assert.NoError(t, config.Validate())

	bad := config
	bad.Backend = "selenium"
	assert.Error(t, bad.Validate())

	bad = config
	bad.DefaultCurrency = ""
	assert.Error(t, bad.Validate())

	bad = config
	bad.PricingEndpoint = ""
	assert.Error(t, bad.Validate())

	bad = config
	bad.NavigationTimeout = 0
	assert.Error(t, bad.Validate())
}
