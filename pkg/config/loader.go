package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"

	"github.com/utafrali/storefront/pkg/validator"
)

// Option adjusts how Load reads the environment.
type Option func(*env.Options)

// WithPrefix reads every variable as prefix+name, so STOREFRONT_ with
// `env:"HTTP_PORT"` reads STOREFRONT_HTTP_PORT.
func WithPrefix(prefix string) Option {
	return func(o *env.Options) { o.Prefix = prefix }
}

// WithEnvironment reads from vars instead of the process environment.
func WithEnvironment(vars map[string]string) Option {
	return func(o *env.Options) { o.Environment = vars }
}

// Load fills cfg from its `env` tags and then checks its `validate` tags.
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8020" validate:"gte=1,lte=65535"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any, opts ...Option) error {
	var o env.Options
	for _, opt := range opts {
		opt(&o)
	}

	if err := env.ParseWithOptions(cfg, o); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := validator.Validate(cfg); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}
