package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrConfiguration is returned by Validate and New for settings the service
// cannot start with.
var ErrConfiguration = errors.New("configuration error")

// minSecretBytes is the shortest JWT secret accepted without a warning.
const minSecretBytes = 32

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 3000)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Reset marker purge interval (default: 1h)

	AppURL    string // Public origin used in reset links (default: http://localhost:3000)
	JWTSecret string // Required: HS256 signing secret
	StaticDir string // Optional: built frontend served at /

	StoreDriver  string // sqlite or mongo (default: sqlite)
	DatabaseFile string // SQLite database path (default: launchpad.db)
	MailDriver   string // log or postmark (default: log)
	ResetGuard   string // store or redis (default: store)

	ZapierSecret   string   // Optional: enables the inbound Zapier webhook
	RelayURLs      []string // Optional: outbound webhook targets
	RelaySecret    string   // Optional: signs outbound deliveries
	RelayQueueSize int      // Outbound event buffer (default: 100)

	TrustedProxyHops int // Reverse proxies appending X-Forwarded-For (default: 0)
}

func LoadConfig() Config {
	return Config{
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 3000),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		AppURL:    strings.TrimRight(getEnvOrDefault("APP_URL", "http://localhost:3000"), "/"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		StaticDir: os.Getenv("STATIC_DIR"),

		StoreDriver:  strings.ToLower(getEnvOrDefault("STORE_DRIVER", "sqlite")),
		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "launchpad.db"),
		MailDriver:   strings.ToLower(getEnvOrDefault("MAIL_DRIVER", "log")),
		ResetGuard:   strings.ToLower(getEnvOrDefault("RESET_GUARD", "store")),

		ZapierSecret:   os.Getenv("ZAPIER_WEBHOOK_SECRET"),
		RelayURLs:      getEnvList("WEBHOOK_RELAY_URLS"),
		RelaySecret:    os.Getenv("WEBHOOK_RELAY_SECRET"),
		RelayQueueSize: getEnvIntOrDefault("WEBHOOK_RELAY_QUEUE_SIZE", 100),

		TrustedProxyHops: getEnvIntOrDefault("TRUSTED_PROXY_HOPS", 0),
	}
}

// Validate rejects settings New cannot work with.
func (c Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("%w: JWT_SECRET is required", ErrConfiguration))
	}

	switch c.StoreDriver {
	case "sqlite", "mongo":
	default:
		errs = append(errs, fmt.Errorf("%w: unknown STORE_DRIVER %q", ErrConfiguration, c.StoreDriver))
	}

	switch c.MailDriver {
	case "log", "postmark":
	default:
		errs = append(errs, fmt.Errorf("%w: unknown MAIL_DRIVER %q", ErrConfiguration, c.MailDriver))
	}

	switch c.ResetGuard {
	case "store", "redis":
	default:
		errs = append(errs, fmt.Errorf("%w: unknown RESET_GUARD %q", ErrConfiguration, c.ResetGuard))
	}

	if c.TrustedProxyHops < 0 {
		errs = append(errs, fmt.Errorf("%w: TRUSTED_PROXY_HOPS must not be negative", ErrConfiguration))
	}

	return errors.Join(errs...)
}

// Production reports whether ENV names a production deployment.
func (c Config) Production() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
