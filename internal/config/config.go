package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/log"
	toml "github.com/pelletier/go-toml/v2"
)

// ConfigFileEnv names the optional TOML file read before the environment.
const ConfigFileEnv = "FINTRACK_CONFIG_FILE"

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Database
	SQLiteDBPath string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	AlertSweepInterval time.Duration

	// Sessions
	SessionLifetime     time.Duration
	SessionCookieSecure bool

	// Google sign-in, disabled when GoogleClientID is empty
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	LogLevel string
}

// fileConfig mirrors Config in the TOML file. Durations are Go duration
// strings ("90m", "168h").
type fileConfig struct {
	Port                int    `toml:"port"`
	RateLimitPerMinute  int    `toml:"rate_limit_per_minute"`
	SQLiteDBPath        string `toml:"sqlite_db_path"`
	AMQPURL             string `toml:"amqp_url"`
	AMQPExchange        string `toml:"amqp_exchange"`
	AMQPQueue           string `toml:"amqp_queue"`
	AlertSweepInterval  string `toml:"alert_sweep_interval"`
	SessionLifetime     string `toml:"session_lifetime"`
	SessionCookieSecure *bool  `toml:"session_cookie_secure"`
	GoogleClientID      string `toml:"google_client_id"`
	GoogleClientSecret  string `toml:"google_client_secret"`
	GoogleRedirectURL   string `toml:"google_redirect_url"`
	LogLevel            string `toml:"log_level"`
}

func Defaults() *Config {
	return &Config{
		Port:               "8081",
		RateLimitPerMinute: 100,
		SQLiteDBPath:       "./data/fintrack.db",
		AMQPExchange:       "fintrack",
		AMQPQueue:          "budget_checks",
		AlertSweepInterval: time.Hour,
		SessionLifetime:    7 * 24 * time.Hour,
		LogLevel:           "info",
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// FINTRACK_CONFIG_FILE if set, then environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Port != 0 {
		c.Port = strconv.Itoa(fc.Port)
	}
	if fc.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = fc.RateLimitPerMinute
	}
	setString(&c.SQLiteDBPath, fc.SQLiteDBPath)
	setString(&c.AMQPURL, fc.AMQPURL)
	setString(&c.AMQPExchange, fc.AMQPExchange)
	setString(&c.AMQPQueue, fc.AMQPQueue)
	setString(&c.GoogleClientID, fc.GoogleClientID)
	setString(&c.GoogleClientSecret, fc.GoogleClientSecret)
	setString(&c.GoogleRedirectURL, fc.GoogleRedirectURL)
	setString(&c.LogLevel, fc.LogLevel)
	if fc.SessionCookieSecure != nil {
		c.SessionCookieSecure = *fc.SessionCookieSecure
	}

	if fc.AlertSweepInterval != "" {
		d, err := time.ParseDuration(fc.AlertSweepInterval)
		if err != nil {
			return fmt.Errorf("config file %s: alert_sweep_interval: %w", path, err)
		}
		c.AlertSweepInterval = d
	}
	if fc.SessionLifetime != "" {
		d, err := time.ParseDuration(fc.SessionLifetime)
		if err != nil {
			return fmt.Errorf("config file %s: session_lifetime: %w", path, err)
		}
		c.SessionLifetime = d
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.AlertSweepInterval = getEnvDuration("ALERT_SWEEP_INTERVAL", c.AlertSweepInterval)
	c.SessionLifetime = getEnvDuration("SESSION_LIFETIME", c.SessionLifetime)
	c.SessionCookieSecure = getEnvBool("SESSION_COOKIE_SECURE", c.SessionCookieSecure)

	c.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", c.GoogleClientID)
	c.GoogleClientSecret = getEnv("GOOGLE_CLIENT_SECRET", c.GoogleClientSecret)
	c.GoogleRedirectURL = getEnv("GOOGLE_REDIRECT_URL", c.GoogleRedirectURL)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.AlertSweepInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid alert sweep interval %v: must be at least 1 minute", c.AlertSweepInterval))
	} else if c.AlertSweepInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid alert sweep interval %v: must be at most 24 hours", c.AlertSweepInterval))
	}

	if c.SessionLifetime < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session lifetime %v: must be at least 1 minute", c.SessionLifetime))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.GoogleEnabled() {
		if c.GoogleClientSecret == "" {
			errors = append(errors, "GOOGLE_CLIENT_SECRET is required when GOOGLE_CLIENT_ID is set")
		}
		if u, err := url.Parse(c.GoogleRedirectURL); err != nil || !u.IsAbs() {
			errors = append(errors, fmt.Sprintf("invalid GOOGLE_REDIRECT_URL '%s': must be an absolute URL", c.GoogleRedirectURL))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
