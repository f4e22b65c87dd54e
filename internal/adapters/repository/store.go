// Package repository holds the backing stores behind the workout record store
// and the calorie leaderboard: Redis for production and in-memory
// implementations for tests and single-process deployments.
package repository

import (
	"context"

	"github.com/okian/calorank/internal/domain/model"
)

// WorkoutRepository persists workouts keyed by (owner, id).
type WorkoutRepository interface {
	// NextID atomically allocates the next id for userID, starting at 1.
	NextID(ctx context.Context, userID string) (int64, error)
	// LastID returns the highest id ever allocated to userID, or
	// model.NoWorkoutID when none was.
	LastID(ctx context.Context, userID string) (int64, error)
	// Insert stores w under its (UserID, ID).
	Insert(ctx context.Context, w model.Workout) error
	// Get returns the workout or false when absent.
	Get(ctx context.Context, userID string, id int64) (model.Workout, bool, error)
	// GetMany returns the live workouts among ids, in the order of ids.
	GetMany(ctx context.Context, userID string, ids []int64) ([]model.Workout, error)
	// Replace atomically overwrites an existing workout and returns the
	// previous value. It returns false and writes nothing when absent.
	Replace(ctx context.Context, w model.Workout) (model.Workout, bool, error)
	// Remove atomically deletes a workout and returns its last value.
	Remove(ctx context.Context, userID string, id int64) (model.Workout, bool, error)
}

// ScoreBoard is an order-statistics structure over per-user totals.
// Ordering: score DESC, then user id ASC.
type ScoreBoard interface {
	// IncrBy atomically adds delta to userID's total and returns the new
	// total. Users whose total drops to zero or below leave the board.
	IncrBy(ctx context.Context, userID string, delta int64) (int64, error)
	// Score returns userID's total or false when unranked.
	Score(ctx context.Context, userID string) (int64, bool, error)
	// Rank returns userID's entry. Returns ErrNotFound when unranked.
	Rank(ctx context.Context, userID string) (model.Entry, error)
	// RangeByRank returns entries at zero-based positions start..stop
	// inclusive. Callers clamp the window; stop past the end is fine.
	RangeByRank(ctx context.Context, start, stop int64) ([]model.Entry, error)
	// Count returns the number of ranked users.
	Count(ctx context.Context) (int64, error)
}
