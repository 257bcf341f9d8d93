package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/artpar/catalog/internal/shell/api/middleware"
	"github.com/artpar/catalog/internal/shell/store"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Locks    LocksConfig    `mapstructure:"locks"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	// Driver is "sqlite3" or "mysql".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, logfmt or text
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// Mode is one of header, jwt, dev or none.
	Mode string `mapstructure:"mode"`

	// SharedSecret, when set, must match the X-Gateway-Secret header.
	SharedSecret string `mapstructure:"shared_secret"`

	// JWTSecret verifies bearer tokens in jwt mode.
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LocksConfig selects where per-name creation locks live.
type LocksConfig struct {
	// Backend is "memory" for a single replica or "redis" for several.
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds the lock backend's Redis connection.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from defaults, an optional file, a .env
// file in the working directory and CATALOG_* environment variables, in
// increasing order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env is normal; existing variables are never overridden.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("database.driver", store.DriverSQLite)
	v.SetDefault("database.dsn", "./data/catalog.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("auth.mode", middleware.ModeHeader)
	v.SetDefault("auth.shared_secret", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("locks.backend", "memory")
	v.SetDefault("locks.ttl", "10s")
	v.SetDefault("locks.redis.addr", "localhost:6379")
	v.SetDefault("locks.redis.password", "")
	v.SetDefault("locks.redis.db", 0)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	switch c.Database.Driver {
	case store.DriverSQLite, store.DriverMySQL:
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %s or %s, got %q", store.DriverSQLite, store.DriverMySQL, c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if !slices.Contains(middleware.Modes(), c.Auth.Mode) {
		errs = append(errs, fmt.Errorf("auth.mode must be one of %s, got %q", strings.Join(middleware.Modes(), ", "), c.Auth.Mode))
	}
	if c.Auth.Mode == middleware.ModeJWT && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required in jwt mode"))
	}
	switch c.Locks.Backend {
	case "memory":
	case "redis":
		if c.Locks.Redis.Addr == "" {
			errs = append(errs, errors.New("locks.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("locks.backend must be memory or redis, got %q", c.Locks.Backend))
	}

	return errors.Join(errs...)
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	return newLogger(cfg.Log, os.Stdout)
}

func newLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	level, err := charmlog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = charmlog.InfoLevel
	}
	if strings.EqualFold(cfg.Level, "warning") {
		level = charmlog.WarnLevel
	}

	var formatter charmlog.Formatter
	switch strings.ToLower(cfg.Format) {
	case "text":
		formatter = charmlog.TextFormatter
	case "logfmt":
		formatter = charmlog.LogfmtFormatter
	default:
		formatter = charmlog.JSONFormatter
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "catalog",
		Formatter:       formatter,
		Level:           level,
	})

	return slog.New(handler)
}
