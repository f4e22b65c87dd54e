package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "CALORANK_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if CALORANK_CONFIG is set
//  3. env (prefix CALORANK_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CALORANK_REDIS_ADDR -> redis_addr. Keys are flat, so underscores stay.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Storage != StorageRedis && c.Storage != StorageMemory:
		return fmt.Errorf("%w: storage must be %q or %q, got %q", ErrInvalidConfig, StorageRedis, StorageMemory, c.Storage)
	case c.Storage == StorageRedis && c.RedisAddr == "":
		return fmt.Errorf("%w: redis_addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.MaxRangeSize < 0:
		return fmt.Errorf("%w: max_range_size must not be negative", ErrInvalidConfig)
	case c.SnapshotSize < 1:
		return fmt.Errorf("%w: snapshot_size must be positive", ErrInvalidConfig)
	case c.FanoutLimit < 0:
		return fmt.Errorf("%w: fanout_limit must not be negative", ErrInvalidConfig)
	case c.OperationTimeoutMS < 1:
		return fmt.Errorf("%w: operation_timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
