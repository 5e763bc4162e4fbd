package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Port string `envconfig:"SERVER_PORT" default:"8080"`
	Env  string `envconfig:"ENVIRONMENT" default:"development"`

	StoreBackend string `envconfig:"STORE_BACKEND" default:"memory"`
	StoreKey     string `envconfig:"STORE_KEY" default:"stayledger-bookings"`
	DBSource     string `envconfig:"DB_SOURCE"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	CatalogBackend string `envconfig:"CATALOG_BACKEND" default:"memory"`

	RabbitURL       string `envconfig:"RABBIT_URL"`
	BookingExchange string `envconfig:"BOOKING_EXCHANGE" default:"booking.exchange"`

	AllowEarlyReviews bool    `envconfig:"ALLOW_EARLY_REVIEWS" default:"true"`
	FriendbotAmount   float64 `envconfig:"FRIENDBOT_AMOUNT" default:"10000"`
}

// Load reads the environment, after an optional .env file in the working
// directory.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("STORE_BACKEND %q: want memory, postgres or redis", c.StoreBackend)
	}
	switch c.CatalogBackend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("CATALOG_BACKEND %q: want memory or postgres", c.CatalogBackend)
	}
	if c.NeedsPostgres() && c.DBSource == "" {
		return fmt.Errorf("DB_SOURCE environment variable is required for the postgres backend")
	}
	if c.StoreKey == "" {
		return fmt.Errorf("STORE_KEY must not be empty")
	}
	if c.FriendbotAmount < 0 {
		return fmt.Errorf("FRIENDBOT_AMOUNT must not be negative")
	}
	return nil
}

// NeedsPostgres reports whether any configured backend uses DB_SOURCE.
func (c *Config) NeedsPostgres() bool {
	return c.StoreBackend == BackendPostgres || c.CatalogBackend == BackendPostgres
}
