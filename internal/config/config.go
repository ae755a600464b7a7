// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"

	devJWTSecret = "dev-secret-change-me"
)

type Config struct {
	// HTTP server
	Port      string
	StaticDir string

	// Storage
	DataBackend    string
	DBConn         string
	SQLiteDBPath   string
	MigrateOnStart bool

	// Sessions
	JWTSecret     string
	SessionTTL    time.Duration
	SessionCookie string
	CookieSecure  bool
	DevLogin      bool

	// Logging
	LogLevel  string
	LogFormat string

	// Telegram
	TelegramToken         string
	TelegramWebhookURL    string
	TelegramWebhookSecret string
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env", "error", err)
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		StaticDir: getEnv("STATIC_DIR", ""),

		DataBackend:    strings.ToLower(getEnv("DATA_BACKEND", BackendPostgres)),
		DBConn:         getEnv("DATABASE_URL", ""),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/expenses.db"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		JWTSecret:     getEnv("JWT_SECRET", devJWTSecret),
		SessionTTL:    getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		SessionCookie: getEnv("SESSION_COOKIE", "session"),
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),
		DevLogin:      getEnvBool("AUTH_DEV_LOGIN", false),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		TelegramToken:         getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramWebhookURL:    getEnv("TELEGRAM_WEBHOOK_URL", ""),
		TelegramWebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
	}
}

// MustLoad loads and validates the configuration, exiting the process on failure.
func MustLoad() *Config {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendPostgres:
		if c.DBConn == "" {
			problems = append(problems, "DATABASE_URL is required when using postgres backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLITE_DB_PATH cannot be empty when using sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]",
			c.DataBackend, BackendPostgres, BackendSQLite))
	}

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET cannot be empty")
	} else if c.UsesDevSecret() && !c.DevLogin {
		problems = append(problems, "JWT_SECRET must be set unless AUTH_DEV_LOGIN is enabled")
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid session ttl %v: must be positive", c.SessionTTL))
	}
	if c.SessionCookie == "" {
		problems = append(problems, "SESSION_COOKIE cannot be empty")
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.TelegramWebhookURL != "" {
		if c.TelegramToken == "" {
			problems = append(problems, "TELEGRAM_BOT_TOKEN is required when TELEGRAM_WEBHOOK_URL is set")
		}
		if c.TelegramWebhookSecret == "" {
			problems = append(problems, "TELEGRAM_WEBHOOK_SECRET is required when TELEGRAM_WEBHOOK_URL is set")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// UsesDevSecret tells whether the built-in signing secret is in use.
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

// TelegramWebhookPath is where Telegram pushes updates; the secret keeps it unguessable.
func (c *Config) TelegramWebhookPath() string {
	return "/telegram/" + c.TelegramWebhookSecret
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be debug, info, warn or error", s)
}

// NewLogger builds the process logger for the configured level and format.
func (c *Config) NewLogger() *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
