package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "evride"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Pricing  PricingConfig
	Redis    RedisConfig
	Session  SessionConfig
	Checkout CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"EVRIDE_APP_ENV" default:"development"`
	Port         string   `envconfig:"EVRIDE_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"EVRIDE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"EVRIDE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"EVRIDE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// UpstreamConfig points the gateway at the remote commerce backend.
type UpstreamConfig struct {
	BaseURL string        `envconfig:"EVRIDE_UPSTREAM_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"EVRIDE_UPSTREAM_TIMEOUT" default:"30s"`
}

func (u UpstreamConfig) validate() error {
	parsed, err := url.Parse(u.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing upstream base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("upstream base url must be absolute, got %q", u.BaseURL)
	}
	return nil
}

// PricingConfig carries the peso pricing rules used by the cart summary.
type PricingConfig struct {
	TaxRate               float64 `envconfig:"EVRIDE_PRICING_TAX_RATE" default:"0.08"`
	ShippingFee           float64 `envconfig:"EVRIDE_PRICING_SHIPPING_FEE" default:"500"`
	FreeShippingThreshold float64 `envconfig:"EVRIDE_PRICING_FREE_SHIPPING_THRESHOLD" default:"50000"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EVRIDE_REDIS_URL"`
	Address      string        `envconfig:"EVRIDE_REDIS_ADDR"`
	Password     string        `envconfig:"EVRIDE_REDIS_PASSWORD"`
	DB           int           `envconfig:"EVRIDE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EVRIDE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EVRIDE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EVRIDE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EVRIDE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EVRIDE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured at all. The
// gateway runs without one; sessions then live only in request headers.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type SessionConfig struct {
	JWTSecret string        `envconfig:"EVRIDE_SESSION_JWT_SECRET"`
	TTL       time.Duration `envconfig:"EVRIDE_SESSION_TTL" default:"720h"`
}

// CheckoutConfig tunes the post-order cart cleanup retry loop.
type CheckoutConfig struct {
	ClearAttempts int           `envconfig:"EVRIDE_CHECKOUT_CLEAR_ATTEMPTS" default:"3"`
	ClearBackoff  time.Duration `envconfig:"EVRIDE_CHECKOUT_CLEAR_BACKOFF" default:"1s"`
}
