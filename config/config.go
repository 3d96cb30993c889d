// Package config defines client configuration structures and loading.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and environment variables.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"
)

// Default configuration constants.
const (
	defaultDomain    = "http://localhost:8080"
	defaultTimeoutMS = 30_000
	defaultLogLevel  = "info"
)

// Config contains the settings a tether App is built from.
type Config struct {
	// Domain is the base URL for all routes.
	Domain string `koanf:"domain"`

	// DomainEnv names an environment variable that overrides Domain when set.
	DomainEnv string `koanf:"domain_env"`

	// UserAgent overrides the app-name User-Agent when non-empty.
	UserAgent string `koanf:"user_agent"`

	// TimeoutMS bounds each HTTP exchange.
	TimeoutMS int `koanf:"timeout_ms"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Testing relaxes validation so requests go out exactly as built.
	Testing bool `koanf:"testing"`

	// APIKeyHeader and APIKey configure static header authentication.
	APIKeyHeader string `koanf:"api_key_header"`
	APIKey       string `koanf:"api_key"`

	// Username and Password configure static basic authentication.
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// Headers are sent with every request.
	Headers map[string]string `koanf:"headers"`
}

// New creates a Config with defaults. Context is accepted first per the
// project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		Domain:       defaultDomain,
		TimeoutMS:    defaultTimeoutMS,
		LogLevel:     defaultLogLevel,
		APIKeyHeader: "X-Api-Key",
	}
}

// ResolveDomain returns the effective base URL, preferring the DomainEnv
// variable when it is set and non-empty. The result must be an absolute URL;
// a value that is not one comes back alongside the error so callers can
// surface it instead of masking it with a default.
func (c *Config) ResolveDomain() (string, error) {
	domain := c.Domain
	if c.DomainEnv != "" {
		if v := os.Getenv(c.DomainEnv); v != "" {
			domain = v
		}
	}
	u, err := url.Parse(domain)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return domain, fmt.Errorf("%w: domain %q is not an absolute URL", ErrInvalidConfig, domain)
	}
	return domain, nil
}

// Timeout returns TimeoutMS as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
