package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the client reads.
const EnvPrefix = "BLOSSOM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App     AppConfig
	Profile ProfileConfig
	Gateway GatewayConfig
	Redis   RedisConfig
	Catalog CatalogConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Gateway.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BLOSSOM_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"BLOSSOM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BLOSSOM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ProfileConfig locates the per-device profile database that stands in for
// the browser's local storage.
type ProfileConfig struct {
	Path        string `envconfig:"BLOSSOM_PROFILE_PATH" default:"blossom-profile.db"`
	AutoMigrate bool   `envconfig:"BLOSSOM_PROFILE_AUTO_MIGRATE" default:"true"`
}

type GatewayConfig struct {
	BaseURL   string        `envconfig:"BLOSSOM_GATEWAY_BASE_URL" required:"true"`
	Timeout   time.Duration `envconfig:"BLOSSOM_GATEWAY_TIMEOUT" default:"10s"`
	UserAgent string        `envconfig:"BLOSSOM_GATEWAY_USER_AGENT" default:"blossom-cart-client"`
}

func (g GatewayConfig) validate() error {
	parsed, err := url.Parse(g.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing gateway base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("gateway base url must be http(s), got %q", g.BaseURL)
	}
	if g.Timeout <= 0 {
		return fmt.Errorf("gateway timeout must be positive")
	}
	return nil
}

// RedisConfig is optional: without a URL or address the stock cache falls
// back to the in-memory implementation.
type RedisConfig struct {
	URL          string        `envconfig:"BLOSSOM_REDIS_URL"`
	Address      string        `envconfig:"BLOSSOM_REDIS_ADDR"`
	Password     string        `envconfig:"BLOSSOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"BLOSSOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BLOSSOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BLOSSOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BLOSSOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BLOSSOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BLOSSOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type CatalogConfig struct {
	StockTTL          time.Duration `envconfig:"BLOSSOM_CATALOG_STOCK_TTL" default:"2m"`
	ListingWindow     time.Duration `envconfig:"BLOSSOM_CATALOG_LISTING_WINDOW" default:"72h"`
	ListingZoneOffset time.Duration `envconfig:"BLOSSOM_CATALOG_LISTING_ZONE_OFFSET" default:"7h"`
}
