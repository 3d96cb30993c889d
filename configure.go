package tether

import (
	"github.com/okian/tether/config"
)

// FromConfig applies a loaded configuration: domain (including indirect
// resolution through the configured environment variable), timeout, default
// headers, user agent, the testing escape hatch, and static credentials.
// Credentials install a built-in authenticator only when no authenticator is
// configured otherwise; an API key wins over basic auth when both are set.
func FromConfig(cfg *config.Config) Option {
	return func(a *App) {
		if cfg == nil {
			return
		}
		// An invalid domain is applied as is; the first dispatch surfaces
		// it as a transport failure instead of quietly using the default.
		if domain, _ := cfg.ResolveDomain(); domain != "" {
			a.domain = domain
		}
		if cfg.Timeout() > 0 {
			a.timeout = cfg.Timeout()
		}
		for k, v := range cfg.Headers {
			a.headers.Set(k, v)
		}
		if cfg.UserAgent != "" {
			a.headers.Set("User-Agent", cfg.UserAgent)
		}
		if cfg.Testing {
			a.disableValidation = true
		}
		if a.auth == nil {
			switch {
			case cfg.APIKey != "":
				a.auth = APIKey(cfg.APIKeyHeader, cfg.APIKey)
			case cfg.Username != "":
				a.auth = BasicAuth(cfg.Username, cfg.Password)
			}
		}
	}
}
