package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"BOOKING_CONFIG_FILE",
	"BOOKING_API_BASE_URL",
	"BOOKING_STORE_SECRET",
	"BOOKING_HTTP_PORT",
	"BOOKING_STORE_DRIVER",
	"BOOKING_TIMEZONE",
	"BOOKING_EMPTY_DAYS",
	"BOOKING_START_INTERVAL_MINUTES",
	"BOOKING_END_INTERVAL_MINUTES",
	"BOOKING_STRIPE_KEY",
	"BOOKING_CHECKOUT_SUCCESS_URL",
	"BOOKING_CHECKOUT_CANCEL_URL",
	"BOOKING_CORS_ORIGINS",
	"BOOKING_FLOW_TTL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		// Register a restore through Setenv before unsetting.
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when optional variables are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKING_API_BASE_URL", "https://api.example.com/v1/")
		t.Setenv("BOOKING_STORE_SECRET", "super-secret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.HTTPPort)
		assert.Equal(t, "https://api.example.com/v1", cfg.APIBaseURL)
		assert.Equal(t, "super-secret", cfg.StoreSecret)
		assert.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
		assert.Equal(t, "file:booking.db", cfg.SQLiteDSN)
		assert.Equal(t, 30, cfg.StartIntervalMinutes)
		assert.Equal(t, 15, cfg.EndIntervalMinutes)
		assert.True(t, cfg.EmptyDaysOpen)
		assert.Equal(t, 30*time.Minute, cfg.FlowTTL)
		assert.Equal(t, 10*time.Second, cfg.APITimeout)
		assert.Equal(t, time.UTC, cfg.Location)
		assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
		assert.False(t, cfg.CheckoutEnabled())
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearEnv(t)

		_, err := Load()
		require.Error(t, err)
		assert.Equal(t, "required configuration is missing: BOOKING_API_BASE_URL, BOOKING_STORE_SECRET", err.Error())
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKING_API_BASE_URL", "https://api.example.com")
		t.Setenv("BOOKING_STORE_SECRET", "secret")
		t.Setenv("BOOKING_HTTP_PORT", "abc")
		t.Setenv("BOOKING_STORE_DRIVER", "postgres")
		t.Setenv("BOOKING_TIMEZONE", "Mars/Olympus")
		t.Setenv("BOOKING_EMPTY_DAYS", "sometimes")

		_, err := Load()
		require.Error(t, err)
		for _, key := range []string{"BOOKING_HTTP_PORT", "BOOKING_STORE_DRIVER", "BOOKING_TIMEZONE", "BOOKING_EMPTY_DAYS"} {
			assert.Contains(t, err.Error(), key)
		}
	})

	t.Run("rejects a base url without scheme", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKING_API_BASE_URL", "api.example.com")
		t.Setenv("BOOKING_STORE_SECRET", "secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BOOKING_API_BASE_URL")
	})

	t.Run("requires redirect urls when checkout is enabled", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKING_API_BASE_URL", "https://api.example.com")
		t.Setenv("BOOKING_STORE_SECRET", "secret")
		t.Setenv("BOOKING_STRIPE_KEY", "sk_test_123")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BOOKING_CHECKOUT_SUCCESS_URL")
		assert.Contains(t, err.Error(), "BOOKING_CHECKOUT_CANCEL_URL")
	})

	t.Run("environment overrides config file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "booking.yaml")
		contents := "api_base_url: https://file.example.com\nstore_secret: from-file\nhttp_port: 9090\nempty_days: closed\ncors_origins: https://a.example.com, https://b.example.com\n"
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
		t.Setenv("BOOKING_CONFIG_FILE", path)
		t.Setenv("BOOKING_HTTP_PORT", "7070")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "https://file.example.com", cfg.APIBaseURL)
		assert.Equal(t, "from-file", cfg.StoreSecret)
		assert.Equal(t, 7070, cfg.HTTPPort)
		assert.False(t, cfg.EmptyDaysOpen)
		assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	})
}
