package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Storage drivers accepted by StorageConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Catalog sources accepted by CatalogConfig.Source.
const (
	SourceUpstream = "upstream"
	SourceDump     = "dump"
	SourcePostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix) or YAML config files.
type Config struct {
	Addr             string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Key              string `default:"cart" usage:"Slot key holding the cart snapshot"`
	FetchConcurrency int    `default:"8" usage:"Parallel catalog requests during restore and search" flag:"fetch-concurrency"`
	Catalog          CatalogConfig
	Storage          StorageConfig
	RateLimit        RateLimitConfig
	CORS             CORSConfig
	Graceful         GracefulConfig
}

// CatalogConfig selects where products come from.
type CatalogConfig struct {
	Source  string        `default:"upstream" usage:"Catalog source: upstream, dump or postgres"`
	URL     string        `default:"https://fakestoreapi.com" usage:"Upstream catalog base URL"`
	Timeout time.Duration `default:"0s" usage:"Per-request catalog timeout, 0 for none"`
	// Dump is a JSON or .gz product dump used by the dump source.
	Dump string `usage:"Path to a catalog dump"`
	// DatabaseURL is used by the postgres source.
	DatabaseURL string `usage:"PostgreSQL URL of the catalog mirror" flag:"catalog-database-url"`
}

// StorageConfig selects the cart snapshot slot.
type StorageConfig struct {
	Driver      string `default:"sqlite" usage:"Slot driver: memory, file, sqlite, postgres or redis"`
	Dir         string `default:"." usage:"Directory for the file driver"`
	Path        string `default:"storefront.db" usage:"Database file for the sqlite driver"`
	DatabaseURL string `usage:"PostgreSQL URL for the postgres driver (or DATABASE_URL)" flag:"database-url"`
	Redis       RedisConfig
}

// RedisConfig configures the redis driver.
type RedisConfig struct {
	Addr     string `default:"localhost:6379" usage:"Redis address"`
	Password string `usage:"Redis password"`
	DB       int    `default:"0" usage:"Redis database"`
	Prefix   string `default:"storefront:" usage:"Prefix for slot keys"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files and command-line flags, then applies platform defaults. Commands
// that parse their own flags set skipFlags.
func LoadConfig(skipFlags bool) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		SkipFlags: skipFlags,
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverSQLite, DriverRedis:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("postgres storage needs a database URL: set STOREFRONT_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Catalog.Source {
	case SourceUpstream:
	case SourceDump:
		if c.Catalog.Dump == "" {
			return errors.New("dump catalog needs STOREFRONT_CATALOG_DUMP")
		}
	case SourcePostgres:
		if c.Catalog.DatabaseURL == "" {
			return errors.New("postgres catalog needs a database URL")
		}
	default:
		return errors.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (DATABASE_URL, PORT) to the STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		if c.Storage.DatabaseURL == "" {
			c.Storage.DatabaseURL = v
		}
		if c.Catalog.DatabaseURL == "" {
			c.Catalog.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
