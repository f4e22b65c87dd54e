// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and the environment on top of the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"time"
)

// Storage backends.
const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Storage selects the backing store: redis or memory.
	Storage string `koanf:"storage"`

	// Redis connection settings, used when Storage is redis.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// KeyPrefix namespaces every Redis key. Empty keeps bare keys.
	KeyPrefix string `koanf:"key_prefix"`

	// MaxLeaderboardLimit caps how many entries one leaderboard page holds.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxRangeSize caps how many ids one workout range query covers.
	MaxRangeSize int `koanf:"max_range_size"`

	// SnapshotSize is the number of top entries in a leaderboard snapshot.
	SnapshotSize int `koanf:"snapshot_size"`

	// FanoutLimit caps concurrently running change subscribers; 0 is unlimited.
	FanoutLimit int `koanf:"fanout_limit"`

	// OperationTimeoutMS bounds every request-scoped store operation.
	OperationTimeoutMS int `koanf:"operation_timeout_ms"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		Storage:             StorageRedis,
		RedisAddr:           "localhost:6379",
		MaxLeaderboardLimit: 100,
		MaxRangeSize:        1000,
		SnapshotSize:        100,
		FanoutLimit:         0,
		OperationTimeoutMS:  5000,
	}
}

// OperationTimeout returns OperationTimeoutMS as a duration.
func (c *Config) OperationTimeout() time.Duration {
	return time.Duration(c.OperationTimeoutMS) * time.Millisecond
}
