package repository

import (
	"context"
	"sync"

	"github.com/okian/calorank/internal/domain/model"
)

type workoutKey struct {
	user string
	id   int64
}

// MemoryWorkouts is an in-memory WorkoutRepository. Workouts are copied on
// the way in and out so callers never share exercise slices with the store.
type MemoryWorkouts struct {
	mu       sync.RWMutex
	counters map[string]int64
	rows     map[workoutKey]model.Workout
}

// NewMemoryWorkouts constructs an empty in-memory workout repository.
func NewMemoryWorkouts() *MemoryWorkouts {
	return &MemoryWorkouts{
		counters: make(map[string]int64),
		rows:     make(map[workoutKey]model.Workout),
	}
}

func cloneWorkout(w model.Workout) model.Workout {
	if w.Exercises != nil {
		w.Exercises = append([]model.Exercise(nil), w.Exercises...)
	}
	return w
}

// NextID implements WorkoutRepository.NextID.
func (m *MemoryWorkouts) NextID(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[userID]++
	return m.counters[userID], nil
}

// LastID implements WorkoutRepository.LastID.
func (m *MemoryWorkouts) LastID(_ context.Context, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.counters[userID]
	if !ok {
		return model.NoWorkoutID, nil
	}
	return id, nil
}

// Insert implements WorkoutRepository.Insert.
func (m *MemoryWorkouts) Insert(_ context.Context, w model.Workout) error {
	id, ok := model.ParseID(w.ID)
	if !ok {
		return backendErr("insert", errInvalidID(w.ID))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[workoutKey{w.UserID, id}] = cloneWorkout(w)
	return nil
}

// Get implements WorkoutRepository.Get.
func (m *MemoryWorkouts) Get(_ context.Context, userID string, id int64) (model.Workout, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.rows[workoutKey{userID, id}]
	if !ok {
		return model.Workout{}, false, nil
	}
	return cloneWorkout(w), true, nil
}

// GetMany implements WorkoutRepository.GetMany.
func (m *MemoryWorkouts) GetMany(_ context.Context, userID string, ids []int64) ([]model.Workout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Workout, 0, len(ids))
	for _, id := range ids {
		if w, ok := m.rows[workoutKey{userID, id}]; ok {
			out = append(out, cloneWorkout(w))
		}
	}
	return out, nil
}

// Replace implements WorkoutRepository.Replace.
func (m *MemoryWorkouts) Replace(_ context.Context, w model.Workout) (model.Workout, bool, error) {
	id, ok := model.ParseID(w.ID)
	if !ok {
		return model.Workout{}, false, nil
	}
	key := workoutKey{w.UserID, id}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[key]
	if !ok {
		return model.Workout{}, false, nil
	}
	m.rows[key] = cloneWorkout(w)
	return old, true, nil
}

// Remove implements WorkoutRepository.Remove.
func (m *MemoryWorkouts) Remove(_ context.Context, userID string, id int64) (model.Workout, bool, error) {
	key := workoutKey{userID, id}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[key]
	if !ok {
		return model.Workout{}, false, nil
	}
	delete(m.rows, key)
	return old, true, nil
}
