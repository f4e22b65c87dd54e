package workouts

import "github.com/okian/calorank/pkg/logger"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxRangeSize caps how many ids a single range query may cover.
// Larger windows are cut down to their first n ids. 0 means no cap.
func WithMaxRangeSize(n int64) Option {
	return func(s *Store) {
		if n >= 0 {
			s.maxRange = n
		}
	}
}
