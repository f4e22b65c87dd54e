package repository

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/okian/calorank/internal/domain/model"
)

type backend struct {
	name     string
	workouts WorkoutRepository
	board    ScoreBoard
}

func backends(t *testing.T) []backend {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return []backend{
		{name: "memory", workouts: NewMemoryWorkouts(), board: NewTreapStore()},
		{
			name:     "redis",
			workouts: NewRedisWorkouts(client, WithKeyPrefix("test")),
			board:    NewRedisScoreBoard(client, WithKeyPrefix("test")),
		},
	}
}

func sampleWorkout(user string, id int64, calories ...int) model.Workout {
	in := model.WorkoutInput{
		Name:        "leg day",
		Description: "squats",
		StartTime:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
	}
	for _, c := range calories {
		in.Exercises = append(in.Exercises, model.Exercise{Name: "squat", Reps: 10, Sets: 3, Weight: 80, Calories: c})
	}
	return model.NewWorkout(user, id, in)
}

func TestWorkoutRepository_Contract(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			repo := b.workouts

			last, err := repo.LastID(ctx, "alice")
			if err != nil || last != model.NoWorkoutID {
				t.Fatalf("expected no last id, got %d (%v)", last, err)
			}

			id, err := repo.NextID(ctx, "alice")
			if err != nil || id != 1 {
				t.Fatalf("expected first id 1, got %d (%v)", id, err)
			}
			w := sampleWorkout("alice", id, 100, 200)
			if err := repo.Insert(ctx, w); err != nil {
				t.Fatalf("insert: %v", err)
			}

			got, ok, err := repo.Get(ctx, "alice", 1)
			if err != nil || !ok {
				t.Fatalf("get: ok=%v err=%v", ok, err)
			}
			if got.ID != "1" || got.UserID != "alice" || got.Name != "leg day" {
				t.Errorf("unexpected workout: %+v", got)
			}
			if !got.StartTime.Equal(w.StartTime) || !got.EndTime.Equal(w.EndTime) {
				t.Errorf("times did not round-trip: %v %v", got.StartTime, got.EndTime)
			}
			if got.Calories() != 300 || len(got.Exercises) != 2 {
				t.Errorf("exercises did not round-trip: %+v", got.Exercises)
			}

			// Other owners have their own id sequence and namespace.
			if _, ok, _ := repo.Get(ctx, "bob", 1); ok {
				t.Error("bob must not see alice's workout")
			}
			if id, _ := repo.NextID(ctx, "bob"); id != 1 {
				t.Errorf("expected bob's first id 1, got %d", id)
			}

			updated := sampleWorkout("alice", 1, 50)
			updated.Name = "arm day"
			old, ok, err := repo.Replace(ctx, updated)
			if err != nil || !ok {
				t.Fatalf("replace: ok=%v err=%v", ok, err)
			}
			if old.Calories() != 300 {
				t.Errorf("expected previous calories 300, got %d", old.Calories())
			}
			got, _, _ = repo.Get(ctx, "alice", 1)
			if got.Name != "arm day" || got.Calories() != 50 {
				t.Errorf("replace not applied: %+v", got)
			}

			if _, ok, _ := repo.Replace(ctx, sampleWorkout("alice", 9, 10)); ok {
				t.Error("replace of a missing workout must report false")
			}
			if _, ok, _ := repo.Get(ctx, "alice", 9); ok {
				t.Error("replace of a missing workout must not create it")
			}

			for i := 0; i < 3; i++ {
				id, _ := repo.NextID(ctx, "alice")
				if err := repo.Insert(ctx, sampleWorkout("alice", id, int(id))); err != nil {
					t.Fatalf("insert %d: %v", id, err)
				}
			}
			many, err := repo.GetMany(ctx, "alice", []int64{1, 2, 3, 4, 5})
			if err != nil {
				t.Fatalf("get many: %v", err)
			}
			if len(many) != 4 || many[0].ID != "1" || many[3].ID != "4" {
				t.Errorf("unexpected get many result: %+v", many)
			}

			old, ok, err = repo.Remove(ctx, "alice", 2)
			if err != nil || !ok || old.ID != "2" {
				t.Fatalf("remove: %+v ok=%v err=%v", old, ok, err)
			}
			if _, ok, _ := repo.Remove(ctx, "alice", 2); ok {
				t.Error("second remove must report false")
			}
			if last, _ := repo.LastID(ctx, "alice"); last != 4 {
				t.Errorf("deletes must not rewind the counter, got %d", last)
			}
		})
	}
}

func TestWorkoutRepository_ConcurrentRemove(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			if err := b.workouts.Insert(ctx, sampleWorkout("carol", 1, 100)); err != nil {
				t.Fatalf("insert: %v", err)
			}
			var winners atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, ok, err := b.workouts.Remove(ctx, "carol", 1); err == nil && ok {
						winners.Add(1)
					}
				}()
			}
			wg.Wait()
			if winners.Load() != 1 {
				t.Errorf("expected exactly one successful remove, got %d", winners.Load())
			}
		})
	}
}

func TestScoreBoard_Contract(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			board := b.board

			entries, err := board.RangeByRank(ctx, 0, 99)
			if err != nil || len(entries) != 0 {
				t.Fatalf("expected empty board, got %v (%v)", entries, err)
			}

			if total, _ := board.IncrBy(ctx, "A", 600); total != 600 {
				t.Errorf("expected 600, got %d", total)
			}
			_, _ = board.IncrBy(ctx, "B", 600)
			_, _ = board.IncrBy(ctx, "C", 900)

			entries, _ = board.RangeByRank(ctx, 0, 99)
			want := []model.Entry{
				{Rank: 1, UserID: "C", Calories: 900},
				{Rank: 2, UserID: "A", Calories: 600},
				{Rank: 3, UserID: "B", Calories: 600},
			}
			if len(entries) != len(want) {
				t.Fatalf("expected %v, got %v", want, entries)
			}
			for i := range want {
				if entries[i] != want[i] {
					t.Errorf("position %d: expected %+v, got %+v", i, want[i], entries[i])
				}
			}

			page, _ := board.RangeByRank(ctx, 1, 1)
			if len(page) != 1 || page[0] != want[1] {
				t.Errorf("expected single page entry %+v, got %v", want[1], page)
			}

			entry, err := board.Rank(ctx, "B")
			if err != nil || entry != want[2] {
				t.Errorf("expected %+v, got %+v (%v)", want[2], entry, err)
			}
			if _, err := board.Rank(ctx, "Z"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}

			if total, _ := board.IncrBy(ctx, "C", -900); total != 0 {
				t.Errorf("expected 0, got %d", total)
			}
			if _, ok, _ := board.Score(ctx, "C"); ok {
				t.Error("zero total must leave the board")
			}
			if n, _ := board.Count(ctx); n != 2 {
				t.Errorf("expected 2 ranked users, got %d", n)
			}
			if s, ok, _ := board.Score(ctx, "A"); !ok || s != 600 {
				t.Errorf("expected A at 600, got %d (%v)", s, ok)
			}
		})
	}
}

func TestScoreBoard_DeltaOrderIndependence(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			board := b.board
			_, _ = board.IncrBy(ctx, "bob", 100)

			// The removal of a workout overtakes its creation.
			if total, _ := board.IncrBy(ctx, "alice", -200); total != -200 {
				t.Errorf("expected transient total -200, got %d", total)
			}
			if _, ok, _ := board.Score(ctx, "alice"); ok {
				t.Error("negative total must not be ranked")
			}
			if _, err := board.Rank(ctx, "alice"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if n, _ := board.Count(ctx); n != 1 {
				t.Errorf("expected 1 ranked user, got %d", n)
			}
			entries, _ := board.RangeByRank(ctx, 0, math.MaxInt64)
			if len(entries) != 1 || entries[0].UserID != "bob" {
				t.Errorf("expected only bob, got %v", entries)
			}

			if total, _ := board.IncrBy(ctx, "alice", 200); total != 0 {
				t.Errorf("expected 0 once both deltas landed, got %d", total)
			}
			if _, ok, _ := board.Score(ctx, "alice"); ok {
				t.Error("zero total must leave the board")
			}
			if total, _ := board.IncrBy(ctx, "alice", 50); total != 50 {
				t.Errorf("expected fresh total 50, got %d", total)
			}
			if entry, err := board.Rank(ctx, "alice"); err != nil || entry.Rank != 2 {
				t.Errorf("expected alice at rank 2, got %+v (%v)", entry, err)
			}
		})
	}
}

func TestRedisBackend_Unavailable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	if _, err := NewRedisWorkouts(client).NextID(ctx, "alice"); !errors.Is(err, ErrBackend) {
		t.Errorf("expected ErrBackend, got %v", err)
	}
	if _, err := NewRedisScoreBoard(client).IncrBy(ctx, "alice", 10); !errors.Is(err, ErrBackend) {
		t.Errorf("expected ErrBackend, got %v", err)
	}
}

func TestRedisKeyLayout(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewRedisWorkouts(client)
	board := NewRedisScoreBoard(client)
	id, _ := repo.NextID(ctx, "dave")
	if err := repo.Insert(ctx, sampleWorkout("dave", id, 75)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, _ = board.IncrBy(ctx, "dave", 75)

	if v, _ := mr.Get("workouts:dave:id"); v != "1" {
		t.Errorf("expected counter key, got %q", v)
	}
	if v := mr.HGet("workouts:dave:1", fieldUserID); v != "dave" {
		t.Errorf("expected hash field UserId=dave, got %q", v)
	}
	if s, err := mr.ZScore("leaderboards:calories", "dave"); err != nil || s != -75 {
		t.Errorf("expected negated score -75, got %v (%v)", s, err)
	}
}
