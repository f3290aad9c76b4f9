package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn warning error"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json text"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8020"`

	// Shop API
	ShopAPIURL     string  `env:"SHOP_API_URL" envDefault:"http://localhost:8000" validate:"required,url"`
	ShopAssetURL   string  `env:"SHOP_ASSET_URL" envDefault:"http://localhost:8000" validate:"required,url"`
	ShopAPITimeout int     `env:"SHOP_API_TIMEOUT_SECONDS" envDefault:"10" validate:"gte=1"`
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Sessions
	SessionStore    string `env:"SESSION_STORE" envDefault:"memory" validate:"oneof=memory redis"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"24" validate:"gte=1"`
	CookieSecure    bool   `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Home page
	Slides []string `env:"STOREFRONT_SLIDES" envDefault:"/images/slide1.jpg,/images/slide2.jpg,/images/slide3.jpg" envSeparator:","`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Wishlist toggle rate limiting, per session
	ToggleRateLimitRPS   float64 `env:"TOGGLE_RATE_LIMIT_RPS" envDefault:"5"`
	ToggleRateLimitBurst int     `env:"TOGGLE_RATE_LIMIT_BURST" envDefault:"10"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	CORSAllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`

	// pprof
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SessionTTL returns the session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if u, err := url.Parse(c.ShopAPIURL); err != nil || u.Host == "" {
		return fmt.Errorf("SHOP_API_URL must be an absolute URL, got %q", c.ShopAPIURL)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0, 1], got %v", c.CBFailureRatio)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	if c.ToggleRateLimitRPS <= 0 || c.ToggleRateLimitBurst < 1 {
		return fmt.Errorf("toggle rate limit must be positive, got rps=%v burst=%d", c.ToggleRateLimitRPS, c.ToggleRateLimitBurst)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if c.CORSAllowCredentials && c.Environment != "development" && slices.Contains(c.CORSAllowedOrigins, "*") {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS requires an explicit CORS_ALLOWED_ORIGINS list outside development")
	}
	if c.SessionStore == SessionStoreRedis && c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required when SESSION_STORE is redis")
	}
	return nil
}
