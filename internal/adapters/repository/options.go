package repository

import "strings"

// RedisOption configures the Redis-backed repositories.
type RedisOption func(*keyspace)

// WithKeyPrefix namespaces every key, e.g. "calorank:". A trailing colon is
// added when missing. The empty prefix keeps bare keys.
func WithKeyPrefix(prefix string) RedisOption {
	return func(k *keyspace) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		k.prefix = prefix
	}
}

func newKeyspace(opts []RedisOption) keyspace {
	var k keyspace
	for _, opt := range opts {
		opt(&k)
	}
	return k
}
