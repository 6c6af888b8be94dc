package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// devJWTSecret is only accepted outside production.
const devJWTSecret = "development-secret-change-me"

type Config struct {
	// Application
	AppEnv string
	Port   int

	Database Database

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Observability (optional)
	SentryDSN string
	LogFile   string

	// Warnings collects problems found while loading. They are logged by the
	// caller once the configured logger is installed.
	Warnings []string
}

// Database selects and addresses the primary goal store. The BLUEPRINT_DB_*
// variable names are kept for compatibility with existing deployments.
type Database struct {
	Driver         string
	Host           string
	Port           string
	Username       string
	Password       string
	Name           string
	Schema         string
	SQLitePath     string
	ConnectTimeout time.Duration
	LogQueries     bool
}

// Load reads configuration from the environment, after loading a .env file
// when one exists.
func Load() (*Config, error) {
	// A missing .env file is normal; the environment is used as is.
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		AppEnv: env.text("APP_ENV", "development"),
		Port:   env.integer("PORT", 8080),

		Database: Database{
			Driver:         env.text("DB_DRIVER", DriverPostgres),
			Host:           env.text("BLUEPRINT_DB_HOST", "localhost"),
			Port:           env.text("BLUEPRINT_DB_PORT", "5432"),
			Username:       env.text("BLUEPRINT_DB_USERNAME", ""),
			Password:       env.text("BLUEPRINT_DB_PASSWORD", ""),
			Name:           env.text("BLUEPRINT_DB_DATABASE", ""),
			Schema:         env.text("BLUEPRINT_DB_SCHEMA", ""),
			SQLitePath:     env.text("SQLITE_PATH", "./data/goals.db"),
			ConnectTimeout: env.duration("DB_CONNECT_TIMEOUT", 5*time.Second),
			LogQueries:     env.boolean("DB_LOG_QUERIES", false),
		},

		JWTSecret: env.text("JWT_SECRET", ""),
		JWTExpiry: env.duration("JWT_EXPIRY", 30*24*time.Hour),

		SentryDSN: env.text("SENTRY_DSN", ""),
		LogFile:   env.text("LOG_FILE", ""),
	}
	cfg.Warnings = env.warnings

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("config: JWT_SECRET is required in production")
		}
		c.Warnings = append(c.Warnings, "JWT_SECRET not set, using development secret")
		c.JWTSecret = devJWTSecret
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid PORT %d", c.Port)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// envReader reads typed values and records every value it had to replace
// with a default.
type envReader struct {
	warnings []string
}

func (e *envReader) warn(key, value, kind string, def any) {
	e.warnings = append(e.warnings, fmt.Sprintf("config: invalid %s %s=%q, using default %v", kind, key, value, def))
}

func (e *envReader) text(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func (e *envReader) integer(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.warn(key, v, "int", def)
		return def
	}
	return n
}

func (e *envReader) boolean(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.warn(key, v, "bool", def)
		return def
	}
	return b
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.warn(key, v, "duration", def)
		return def
	}
	return d
}
