package leaderboard

import (
	"time"

	"github.com/okian/calorank/pkg/logger"
)

// DefaultSnapshotSize is how many top entries a snapshot carries.
const DefaultSnapshotSize = 100

// Option applies a configuration option to the Index.
type Option func(*Index)

// WithLogger sets the index logger.
func WithLogger(l logger.Logger) Option {
	return func(i *Index) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithSnapshotSize sets how many top entries Snapshot returns.
func WithSnapshotSize(n int) Option {
	return func(i *Index) {
		if n > 0 {
			i.snapshotSize = n
		}
	}
}

// WithMaxPageSize caps how many entries one RangeByRank call returns.
// 0 means no cap.
func WithMaxPageSize(n int) Option {
	return func(i *Index) {
		if n >= 0 {
			i.maxPage = n
		}
	}
}

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(i *Index) {
		if now != nil {
			i.now = now
		}
	}
}
