// Package workouts is the record store: owner-scoped workouts with dense,
// never-reused ids. Every committed mutation is published as a change event
// so derived views can follow it incrementally.
package workouts

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/calorank/internal/adapters/repository"
	"github.com/okian/calorank/internal/domain/change"
	"github.com/okian/calorank/internal/domain/model"
	"github.com/okian/calorank/internal/domain/window"
	"github.com/okian/calorank/pkg/logger"
	"github.com/okian/calorank/pkg/metrics"
)

// Store owns workouts and publishes their changes.
type Store struct {
	repo     repository.WorkoutRepository
	pub      change.Publisher
	logger   logger.Logger
	maxRange int64
}

// NewStore creates a store over repo that publishes to pub.
func NewStore(repo repository.WorkoutRepository, pub change.Publisher, opts ...Option) *Store {
	s := &Store{repo: repo, pub: pub}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("workouts")
	}
	return s
}

// Create allocates the next id for ownerID and stores the workout under it.
func (s *Store) Create(ctx context.Context, ownerID string, in model.WorkoutInput) (model.Workout, error) {
	defer observe("create", time.Now())

	id, err := s.repo.NextID(ctx, ownerID)
	if err != nil {
		return model.Workout{}, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	w := model.NewWorkout(ownerID, id, in)
	if err := s.repo.Insert(ctx, w); err != nil {
		// The id stays consumed; ids are never reused.
		return model.Workout{}, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	metrics.RecordWorkoutMutation(string(change.KindCreated))
	return w, s.publish(ctx, change.Created{New: w})
}

// Get returns the workout, or false when it does not exist.
func (s *Store) Get(ctx context.Context, ownerID, id string) (model.Workout, bool, error) {
	defer observe("get", time.Now())

	seq, ok := model.ParseID(id)
	if !ok {
		return model.Workout{}, false, nil
	}
	w, ok, err := s.repo.Get(ctx, ownerID, seq)
	if err != nil {
		return model.Workout{}, false, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return w, ok, nil
}

// Update replaces every mutable field of an existing workout. It returns
// false without side effects when the workout does not exist.
func (s *Store) Update(ctx context.Context, ownerID, id string, in model.WorkoutInput) (model.Workout, bool, error) {
	defer observe("update", time.Now())

	seq, ok := model.ParseID(id)
	if !ok {
		return model.Workout{}, false, nil
	}
	w := model.NewWorkout(ownerID, seq, in)
	old, ok, err := s.repo.Replace(ctx, w)
	if err != nil {
		return model.Workout{}, false, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	if !ok {
		return model.Workout{}, false, nil
	}
	metrics.RecordWorkoutMutation(string(change.KindUpdated))
	return w, true, s.publish(ctx, change.Updated{Old: old, New: w})
}

// Delete removes a workout. Of several concurrent deletes of the same
// workout exactly one reports true.
func (s *Store) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	defer observe("delete", time.Now())

	seq, ok := model.ParseID(id)
	if !ok {
		return false, nil
	}
	old, ok, err := s.repo.Remove(ctx, ownerID, seq)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	if !ok {
		return false, nil
	}
	metrics.RecordWorkoutMutation(string(change.KindDeleted))
	return true, s.publish(ctx, change.Deleted{Old: old})
}

// LastID returns the highest id ever allocated to ownerID, or
// model.NoWorkoutID.
func (s *Store) LastID(ctx context.Context, ownerID string) (int64, error) {
	id, err := s.repo.LastID(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return id, nil
}

// RangeQuery returns the live workouts with ids in [from, to], ascending.
// The window is clamped to the ids allocated so far; deleted ids are skipped.
func (s *Store) RangeQuery(ctx context.Context, ownerID string, from, to int64) ([]model.Workout, error) {
	defer observe("range", time.Now())

	last, err := s.LastID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	span, ok := window.Clamp(from, to, 1, last)
	if !ok {
		return []model.Workout{}, nil
	}
	return s.fetch(ctx, ownerID, span)
}

// LastN returns the live workouts among the n most recently allocated ids.
func (s *Store) LastN(ctx context.Context, ownerID string, n int64) ([]model.Workout, error) {
	defer observe("last_n", time.Now())

	last, err := s.LastID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	span, ok := window.Last(n, 1, last)
	if !ok {
		return []model.Workout{}, nil
	}
	return s.fetch(ctx, ownerID, span)
}

func (s *Store) fetch(ctx context.Context, ownerID string, span window.Span) ([]model.Workout, error) {
	if s.maxRange > 0 && span.Len() > s.maxRange {
		span.To = span.From + s.maxRange - 1
	}
	ids := make([]int64, 0, span.Len())
	span.Each(func(id int64) bool {
		ids = append(ids, id)
		return true
	})
	out, err := s.repo.GetMany(ctx, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return out, nil
}

// publish notifies subscribers of a committed change. Failures do not undo
// the write; they surface as ErrStaleIndex alongside the committed result.
func (s *Store) publish(ctx context.Context, ev change.Event) error {
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.logger.Warn(ctx, "change committed but not fully applied",
			logger.String("kind", string(ev.Kind())),
			logger.String("user_id", ev.Owner()),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrStaleIndex, err)
	}
	return nil
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
