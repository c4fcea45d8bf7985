package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	Proxy     ProxyConfig     `mapstructure:"proxy"`
	Policy    PolicyConfig    `mapstructure:"policy"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// RateLimitConfig controls the fixed-window request limiter.
//
// Requests is the number of requests a single client identity may make within
// one window. The window is fixed, not sliding: a client that exhausts its
// quota at the end of one window may make a full quota of requests again as
// soon as the next window starts, so up to 2x Requests can land around a
// window boundary. That is a known characteristic of fixed-window limiting.
type RateLimitConfig struct {
	Requests      int      `mapstructure:"requests"       validate:"required,gt=0"`
	WindowSeconds int      `mapstructure:"window_seconds" validate:"required,gt=0"`
	Store         string   `mapstructure:"store"          validate:"required,oneof=memory redis"`
	RedisAddr     string   `mapstructure:"redis_addr"     validate:"required_if=Store redis"`
	ExemptPaths   []string `mapstructure:"exempt_paths"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	APIKey    string `mapstructure:"api_key"`
}

// ProxyConfig lists the backend services the gateway fronts.
type ProxyConfig struct {
	Routes []ProxyRoute `mapstructure:"routes" validate:"dive"`
}

// ProxyRoute maps a path prefix to a backend base URL.
type ProxyRoute struct {
	Prefix string `mapstructure:"prefix" validate:"required,startswith=/"`
	Target string `mapstructure:"target" validate:"required,url"`
}

// PolicyConfig declares the per-route authorization policies.
// Routes are evaluated most-specific-path first; registration order breaks
// ties. A request matching no route is denied.
type PolicyConfig struct {
	Routes []PolicyRoute `mapstructure:"routes" validate:"dive"`
}

// PolicyRoute binds a path pattern and method to an authorization requirement.
//
// Require is one of: public, gateway_origin, api_key,
// api_key_or_gateway_origin, all_authorities. Authorities is only meaningful
// (and then required) for all_authorities.
type PolicyRoute struct {
	Path        string   `mapstructure:"path"        validate:"required,startswith=/"`
	Method      string   `mapstructure:"method"`
	Require     string   `mapstructure:"require"     validate:"required"`
	Authorities []string `mapstructure:"authorities"`
}
