// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"time"
)

// NoWorkoutID is reported as the last id of an owner that never logged a workout.
const NoWorkoutID int64 = -1

// Exercise is a single entry of a workout.
type Exercise struct {
	Name     string `json:"name"`
	Reps     int    `json:"reps"`
	Sets     int    `json:"sets"`
	Weight   int    `json:"weight"`
	Calories int    `json:"calories"`
}

// WorkoutInput carries the mutable fields of a workout as submitted by a client.
// Validation happens upstream; the core stores it verbatim.
type WorkoutInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime"`
	Exercises   []Exercise `json:"exercises"`
}

// Workout is a logged workout owned by a single user.
// ID is the decimal form of an owner-scoped sequence number.
type Workout struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime"`
	Exercises   []Exercise `json:"exercises"`
}

// NewWorkout materializes a workout from its identity and input fields.
func NewWorkout(userID string, id int64, in WorkoutInput) Workout {
	exercises := make([]Exercise, len(in.Exercises))
	copy(exercises, in.Exercises)
	return Workout{
		ID:          FormatID(id),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Exercises:   exercises,
	}
}

// Calories returns the workout's contribution to its owner's leaderboard total.
func (w Workout) Calories() int64 {
	var total int64
	for _, e := range w.Exercises {
		total += int64(e.Calories)
	}
	return total
}

// Seq returns the numeric id of the workout, or 0 when ID is malformed.
func (w Workout) Seq() int64 {
	id, ok := ParseID(w.ID)
	if !ok {
		return 0
	}
	return id
}

// FormatID renders an owner-scoped id.
func FormatID(id int64) string { return strconv.FormatInt(id, 10) }

// ParseID parses an owner-scoped id. Only positive integers are valid ids.
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
