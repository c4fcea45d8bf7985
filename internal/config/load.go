package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for environment variable overrides, e.g.
// GATEWAY_SERVER_PORT overrides server.port.
const envPrefix = "GATEWAY"

// Load reads configuration from an optional config file and environment
// variables. Environment variables take precedence over values from the
// config file, which takes precedence over defaults.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config.yaml in the working directory or /etc/edge-gateway.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/edge-gateway")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything can come from env vars.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface env-only keys through Unmarshal,
	// so bind the scalar keys explicitly.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"rate_limit.requests",
		"rate_limit.window_seconds",
		"rate_limit.store",
		"rate_limit.redis_addr",
		"auth.jwt_secret",
		"auth.api_key",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the default value for every setting that has one.
// The rate-limit defaults (300 requests per 60 seconds) and the exempt path
// list match what the gateway is expected to do out of the box.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("rate_limit.requests", 300)
	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("rate_limit.store", "memory")
	v.SetDefault("rate_limit.exempt_paths", []string{
		"/actuator/health",
		"/health",
		"/metrics",
		"/swagger",
		"/api-docs",
		"/static/",
		"/favicon.ico",
	})
}
