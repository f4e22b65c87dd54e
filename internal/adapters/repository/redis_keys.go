package repository

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/calorank/internal/domain/model"
)

// Key layout:
//
//	<prefix>workouts:<user>:id        INCR counter, last allocated id
//	<prefix>workouts:<user>:<id>      hash, one workout
//	<prefix>leaderboards:calories     sorted set, negated totals
type keyspace struct {
	prefix string
}

func (k keyspace) counter(userID string) string {
	return k.prefix + "workouts:" + userID + ":id"
}

func (k keyspace) workout(userID string, id int64) string {
	return k.prefix + "workouts:" + userID + ":" + strconv.FormatInt(id, 10)
}

func (k keyspace) board() string {
	return k.prefix + "leaderboards:calories"
}

// Hash field names.
const (
	fieldUserID      = "UserId"
	fieldName        = "Name"
	fieldDescription = "Description"
	fieldStartTime   = "StartTime"
	fieldEndTime     = "EndTime"
	fieldExercises   = "Exercises"
)

// encodeWorkout flattens w into field/value pairs for HSET.
func encodeWorkout(w model.Workout) ([]any, error) {
	exercises := w.Exercises
	if exercises == nil {
		exercises = []model.Exercise{}
	}
	raw, err := json.Marshal(exercises)
	if err != nil {
		return nil, fmt.Errorf("encode exercises: %w", err)
	}
	return []any{
		fieldUserID, w.UserID,
		fieldName, w.Name,
		fieldDescription, w.Description,
		fieldStartTime, w.StartTime.Format(time.RFC3339Nano),
		fieldEndTime, w.EndTime.Format(time.RFC3339Nano),
		fieldExercises, string(raw),
	}, nil
}

// decodeWorkout rebuilds a workout from its hash.
func decodeWorkout(id int64, h map[string]string) (model.Workout, error) {
	start, err := time.Parse(time.RFC3339Nano, h[fieldStartTime])
	if err != nil {
		return model.Workout{}, fmt.Errorf("decode %s: %w", fieldStartTime, err)
	}
	end, err := time.Parse(time.RFC3339Nano, h[fieldEndTime])
	if err != nil {
		return model.Workout{}, fmt.Errorf("decode %s: %w", fieldEndTime, err)
	}
	var exercises []model.Exercise
	if raw := h[fieldExercises]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &exercises); err != nil {
			return model.Workout{}, fmt.Errorf("decode %s: %w", fieldExercises, err)
		}
	}
	if exercises == nil {
		exercises = []model.Exercise{}
	}
	return model.Workout{
		ID:          model.FormatID(id),
		UserID:      h[fieldUserID],
		Name:        h[fieldName],
		Description: h[fieldDescription],
		StartTime:   start,
		EndTime:     end,
		Exercises:   exercises,
	}, nil
}

// pairsToMap turns a flat HGETALL reply into a map.
func pairsToMap(pairs []string) map[string]string {
	h := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		h[pairs[i]] = pairs[i+1]
	}
	return h
}
