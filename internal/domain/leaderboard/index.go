// Package leaderboard keeps per-user calorie totals in rank order. It
// follows the record store through change events and applies each change
// as a single additive update, never by rescanning a user's workouts.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/calorank/internal/adapters/repository"
	"github.com/okian/calorank/internal/domain/change"
	"github.com/okian/calorank/internal/domain/model"
	"github.com/okian/calorank/internal/domain/window"
	"github.com/okian/calorank/pkg/logger"
	"github.com/okian/calorank/pkg/metrics"
)

// Snapshot is the top of the leaderboard at a point in time.
type Snapshot struct {
	Entries     []model.Entry `json:"entries"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// Index is the calorie leaderboard. It implements change.Subscriber.
type Index struct {
	board        repository.ScoreBoard
	logger       logger.Logger
	snapshotSize int
	maxPage      int
	now          func() time.Time
}

var _ change.Subscriber = (*Index)(nil)

// NewIndex creates an index over board.
func NewIndex(board repository.ScoreBoard, opts ...Option) *Index {
	i := &Index{
		board:        board,
		snapshotSize: DefaultSnapshotSize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = logger.Get().Named("leaderboard")
	}
	return i
}

// Handle applies one committed change to the owner's total.
func (i *Index) Handle(ctx context.Context, ev change.Event) error {
	var before, after int64
	switch e := ev.(type) {
	case change.Created:
		after = e.New.Calories()
	case change.Updated:
		before, after = e.Old.Calories(), e.New.Calories()
	case change.Deleted:
		before = e.Old.Calories()
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}

	delta := after - before
	if delta == 0 {
		return nil
	}

	start := time.Now()
	total, err := i.board.IncrBy(ctx, ev.Owner(), delta)
	metrics.RecordIndexLatency("incr", elapsedMs(start))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	metrics.RecordLeaderboardUpdate()
	i.logger.Debug(ctx, "total updated",
		logger.String("user_id", ev.Owner()),
		logger.Int64("delta", delta),
		logger.Int64("total", total),
	)
	return nil
}

// RangeByRank returns the entries at zero-based ranks start..stop inclusive,
// best first. A window past the end yields what exists, possibly nothing.
func (i *Index) RangeByRank(ctx context.Context, start, stop int64) ([]model.Entry, error) {
	span, ok := window.Clamp(start, stop, 0, math.MaxInt64)
	if !ok {
		return []model.Entry{}, nil
	}
	if i.maxPage > 0 && span.Len() > int64(i.maxPage) {
		span.To = span.From + int64(i.maxPage) - 1
	}

	begin := time.Now()
	entries, err := i.board.RangeByRank(ctx, span.From, span.To)
	metrics.RecordIndexLatency("range", elapsedMs(begin))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return entries, nil
}

// Score returns the owner's total, or false when the owner is unranked.
func (i *Index) Score(ctx context.Context, ownerID string) (int64, bool, error) {
	total, ok, err := i.board.Score(ctx, ownerID)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return total, ok, nil
}

// Rank returns the owner's entry, or ErrNotFound.
func (i *Index) Rank(ctx context.Context, ownerID string) (model.Entry, error) {
	begin := time.Now()
	entry, err := i.board.Rank(ctx, ownerID)
	metrics.RecordIndexLatency("rank", elapsedMs(begin))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Entry{}, ErrNotFound
	case err != nil:
		return model.Entry{}, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return entry, nil
}

// Snapshot returns the current top entries stamped with the read time.
func (i *Index) Snapshot(ctx context.Context) (Snapshot, error) {
	begin := time.Now()
	entries, err := i.board.RangeByRank(ctx, 0, int64(i.snapshotSize)-1)
	metrics.RecordIndexLatency("snapshot", elapsedMs(begin))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return Snapshot{Entries: entries, GeneratedAt: i.now().UTC()}, nil
}

// Count returns the number of ranked owners.
func (i *Index) Count(ctx context.Context) (int64, error) {
	n, err := i.board.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	metrics.UpdateRankedUsers(int(n))
	return n, nil
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
