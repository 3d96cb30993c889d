package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var prefixSanitizer = regexp.MustCompile(`[^A-Z0-9]+`)

// Prefix derives the environment prefix for an app name, e.g.
// "tether/myapp" -> "TETHER_MYAPP".
func Prefix(name string) string {
	p := prefixSanitizer.ReplaceAllString(strings.ToUpper(name), "_")
	return strings.Trim(p, "_")
}

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if <PREFIX>_CONFIG is set
//  3. env (prefix <PREFIX>_)
func Load(ctx context.Context, prefix string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(prefix + "_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: <PREFIX>_DOMAIN, <PREFIX>_TIMEOUT_MS, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	lower := strings.ToLower(prefix) + "_"
	envProvider := env.Provider(prefix+"_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), lower)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if _, err := cfg.ResolveDomain(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
