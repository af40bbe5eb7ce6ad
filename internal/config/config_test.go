package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("RAZORPAY_START_DELAY", "")
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "INR", cfg.Razorpay.Currency)
	assert.Equal(t, 2*time.Minute, cfg.Razorpay.StartDelay)
	assert.Equal(t, 15*time.Second, cfg.Razorpay.Timeout)
	assert.Empty(t, cfg.Razorpay.WebhookSecret)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("RAZORPAY_TIMEOUT", "3s")
	t.Setenv("QUOTA_RESET_INTERVAL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr())
	assert.Equal(t, 3*time.Second, cfg.Razorpay.Timeout)
	assert.Equal(t, time.Hour, cfg.Quota.ResetInterval)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Environment: "production"},
		Database: DatabaseConfig{Driver: "postgres", DSN: "x"},
		Razorpay: RazorpayConfig{Timeout: time.Second},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.Database.Driver = "sqlite"
	cfg.JWT.Secret = "s3cret"
	assert.NoError(t, cfg.Validate())
}
