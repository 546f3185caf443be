package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted by BOOKING_STORE_DRIVER.
const (
	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"
)

// Config captures environment driven configuration values for the booking gateway.
type Config struct {
	Env      string
	LogLevel string
	HTTPPort int

	APIBaseURL string
	APITimeout time.Duration

	StoreDriver   string
	StoreSecret   string
	SQLiteDSN     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Profile       string

	Location             *time.Location
	StartIntervalMinutes int
	EndIntervalMinutes   int
	EmptyDaysOpen        bool
	FlowTTL              time.Duration
	MaxFlows             int

	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string

	StripeKey          string
	CheckoutSuccessURL string
	CheckoutCancelURL  string
	Currency           string
}

// CheckoutEnabled reports whether a payment processor key was configured.
func (c Config) CheckoutEnabled() bool {
	return c.StripeKey != ""
}

var defaults = map[string]string{
	"ENV":                    "development",
	"LOG_LEVEL":              "info",
	"HTTP_PORT":              "8080",
	"API_TIMEOUT":            "10s",
	"STORE_DRIVER":           StoreDriverSQLite,
	"SQLITE_DSN":             "file:booking.db",
	"REDIS_ADDR":             "localhost:6379",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               "0",
	"PROFILE":                "default",
	"TIMEZONE":               "UTC",
	"START_INTERVAL_MINUTES": "30",
	"END_INTERVAL_MINUTES":   "15",
	"EMPTY_DAYS":             "open",
	"FLOW_TTL":               "30m",
	"MAX_FLOWS":              "1000",
	"RATE_LIMIT_RPS":         "10",
	"RATE_LIMIT_BURST":       "20",
	"CORS_ORIGINS":           "*",
	"STRIPE_KEY":             "",
	"CHECKOUT_SUCCESS_URL":   "",
	"CHECKOUT_CANCEL_URL":    "",
	"CURRENCY":               "usd",
	"API_BASE_URL":           "",
	"STORE_SECRET":           "",
}

// Load parses configuration values from the process environment (prefix
// BOOKING_) and, when BOOKING_CONFIG_FILE names one, a YAML file. Environment
// values win over file values.
//
// Missing required values and unparsable values are each reported in a single
// error listing every offending key.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKING")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetDefault("CONFIG_FILE", "")
	if path := strings.TrimSpace(v.GetString("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Env:                strings.TrimSpace(v.GetString("ENV")),
		LogLevel:           strings.TrimSpace(v.GetString("LOG_LEVEL")),
		StoreDriver:        strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		SQLiteDSN:          strings.TrimSpace(v.GetString("SQLITE_DSN")),
		RedisAddr:          strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		Profile:            strings.TrimSpace(v.GetString("PROFILE")),
		StripeKey:          strings.TrimSpace(v.GetString("STRIPE_KEY")),
		CheckoutSuccessURL: strings.TrimSpace(v.GetString("CHECKOUT_SUCCESS_URL")),
		CheckoutCancelURL:  strings.TrimSpace(v.GetString("CHECKOUT_CANCEL_URL")),
		Currency:           strings.ToLower(strings.TrimSpace(v.GetString("CURRENCY"))),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if base := strings.TrimSpace(v.GetString("API_BASE_URL")); base == "" {
		missing = append(missing, "BOOKING_API_BASE_URL")
	} else if parsed, err := url.Parse(base); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		invalid = append(invalid, "BOOKING_API_BASE_URL")
	} else {
		cfg.APIBaseURL = strings.TrimRight(base, "/")
	}

	if secret := strings.TrimSpace(v.GetString("STORE_SECRET")); secret == "" {
		missing = append(missing, "BOOKING_STORE_SECRET")
	} else {
		cfg.StoreSecret = secret
	}

	intField := func(key string, min int, dst *int) {
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil || n < min {
			invalid = append(invalid, "BOOKING_"+key)
			return
		}
		*dst = n
	}
	durationField := func(key string, dst *time.Duration) {
		d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
		if err != nil || d <= 0 {
			invalid = append(invalid, "BOOKING_"+key)
			return
		}
		*dst = d
	}

	intField("HTTP_PORT", 1, &cfg.HTTPPort)
	intField("REDIS_DB", 0, &cfg.RedisDB)
	intField("START_INTERVAL_MINUTES", 1, &cfg.StartIntervalMinutes)
	intField("END_INTERVAL_MINUTES", 1, &cfg.EndIntervalMinutes)
	intField("MAX_FLOWS", 1, &cfg.MaxFlows)
	intField("RATE_LIMIT_BURST", 1, &cfg.RateLimitBurst)
	durationField("API_TIMEOUT", &cfg.APITimeout)
	durationField("FLOW_TTL", &cfg.FlowTTL)

	if rps, err := strconv.ParseFloat(strings.TrimSpace(v.GetString("RATE_LIMIT_RPS")), 64); err != nil || rps <= 0 {
		invalid = append(invalid, "BOOKING_RATE_LIMIT_RPS")
	} else {
		cfg.RateLimitRPS = rps
	}

	switch cfg.StoreDriver {
	case StoreDriverSQLite, StoreDriverRedis:
	default:
		invalid = append(invalid, "BOOKING_STORE_DRIVER")
	}

	if loc, err := time.LoadLocation(strings.TrimSpace(v.GetString("TIMEZONE"))); err != nil {
		invalid = append(invalid, "BOOKING_TIMEZONE")
	} else {
		cfg.Location = loc
	}

	switch strings.ToLower(strings.TrimSpace(v.GetString("EMPTY_DAYS"))) {
	case "open":
		cfg.EmptyDaysOpen = true
	case "closed":
		cfg.EmptyDaysOpen = false
	default:
		invalid = append(invalid, "BOOKING_EMPTY_DAYS")
	}

	if cfg.Profile == "" {
		invalid = append(invalid, "BOOKING_PROFILE")
	}

	if cfg.StripeKey != "" {
		if cfg.CheckoutSuccessURL == "" {
			missing = append(missing, "BOOKING_CHECKOUT_SUCCESS_URL")
		}
		if cfg.CheckoutCancelURL == "" {
			missing = append(missing, "BOOKING_CHECKOUT_CANCEL_URL")
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required configuration is missing: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("configuration values are invalid: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
