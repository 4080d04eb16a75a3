// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverBolt     = "bolt"
	DriverMongo    = "mongo"
)

const devSessionSecret = "dev-only-session-secret"

// Config holds all runtime settings.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`

	DatabaseURL string   `env:"DATABASE_URL"`
	DB          Postgres `envPrefix:"DB_"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/planner.db"`
	BoltPath   string `env:"BOLT_PATH" envDefault:"data/planner.bolt"`

	MongoURI      string `env:"MONGODB_URI"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"planner"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	PasswordHash string `env:"PASSWORD_HASH" envDefault:"checksum"`

	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT" envDefault:"5"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST" envDefault:"10"`

	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`
}

// Postgres holds discrete connection settings, used when DATABASE_URL is
// empty.
type Postgres struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	Name     string `env:"NAME" envDefault:"planner"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from
// the DB_* settings.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode,
	)
}

// IsProduction reports whether the process runs outside development.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether development defaults may be used.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.PasswordHash = strings.ToLower(strings.TrimSpace(c.PasswordHash))

	switch c.StoreDriver {
	case DriverMemory, DriverPostgres, DriverSQLite, DriverBolt:
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.PasswordHash {
	case "checksum", "bcrypt":
	default:
		return fmt.Errorf("unknown PASSWORD_HASH %q", c.PasswordHash)
	}

	if c.SessionSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("SESSION_SECRET is required outside development")
		}
		c.SessionSecret = devSessionSecret
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		return errors.New("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	return nil
}
