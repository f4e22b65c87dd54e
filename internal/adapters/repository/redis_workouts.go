package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/okian/calorank/internal/domain/model"
)

// replaceScript swaps a workout hash only when it exists and returns the
// previous fields, so a concurrent delete can never be resurrected.
var replaceScript = redis.NewScript(`
local old = redis.call("HGETALL", KEYS[1])
if #old == 0 then
  return false
end
redis.call("DEL", KEYS[1])
redis.call("HSET", KEYS[1], unpack(ARGV))
return old
`)

// removeScript deletes a workout hash and returns its last fields. Only one
// of several concurrent callers sees the fields.
var removeScript = redis.NewScript(`
local old = redis.call("HGETALL", KEYS[1])
if #old == 0 then
  return false
end
redis.call("DEL", KEYS[1])
return old
`)

// RedisWorkouts is a WorkoutRepository backed by Redis hashes.
type RedisWorkouts struct {
	client redis.UniversalClient
	keys   keyspace
}

// NewRedisWorkouts wraps an existing client.
func NewRedisWorkouts(client redis.UniversalClient, opts ...RedisOption) *RedisWorkouts {
	return &RedisWorkouts{client: client, keys: newKeyspace(opts)}
}

// NextID implements WorkoutRepository.NextID.
func (r *RedisWorkouts) NextID(ctx context.Context, userID string) (int64, error) {
	id, err := r.client.Incr(ctx, r.keys.counter(userID)).Result()
	if err != nil {
		return 0, backendErr("next id", err)
	}
	return id, nil
}

// LastID implements WorkoutRepository.LastID.
func (r *RedisWorkouts) LastID(ctx context.Context, userID string) (int64, error) {
	id, err := r.client.Get(ctx, r.keys.counter(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return model.NoWorkoutID, nil
	}
	if err != nil {
		return 0, backendErr("last id", err)
	}
	return id, nil
}

// Insert implements WorkoutRepository.Insert.
func (r *RedisWorkouts) Insert(ctx context.Context, w model.Workout) error {
	id, ok := model.ParseID(w.ID)
	if !ok {
		return backendErr("insert", errInvalidID(w.ID))
	}
	fields, err := encodeWorkout(w)
	if err != nil {
		return backendErr("insert", err)
	}
	if err := r.client.HSet(ctx, r.keys.workout(w.UserID, id), fields...).Err(); err != nil {
		return backendErr("insert", err)
	}
	return nil
}

// Get implements WorkoutRepository.Get.
func (r *RedisWorkouts) Get(ctx context.Context, userID string, id int64) (model.Workout, bool, error) {
	h, err := r.client.HGetAll(ctx, r.keys.workout(userID, id)).Result()
	if err != nil {
		return model.Workout{}, false, backendErr("get", err)
	}
	if len(h) == 0 {
		return model.Workout{}, false, nil
	}
	w, err := decodeWorkout(id, h)
	if err != nil {
		return model.Workout{}, false, backendErr("get", err)
	}
	return w, true, nil
}

// GetMany implements WorkoutRepository.GetMany with a single pipeline.
func (r *RedisWorkouts) GetMany(ctx context.Context, userID string, ids []int64) ([]model.Workout, error) {
	if len(ids) == 0 {
		return []model.Workout{}, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.keys.workout(userID, id))
		}
		return nil
	})
	if err != nil {
		return nil, backendErr("get many", err)
	}
	out := make([]model.Workout, 0, len(ids))
	for i, cmd := range cmds {
		h := cmd.Val()
		if len(h) == 0 {
			continue
		}
		w, err := decodeWorkout(ids[i], h)
		if err != nil {
			return nil, backendErr("get many", err)
		}
		out = append(out, w)
	}
	return out, nil
}

// Replace implements WorkoutRepository.Replace.
func (r *RedisWorkouts) Replace(ctx context.Context, w model.Workout) (model.Workout, bool, error) {
	id, ok := model.ParseID(w.ID)
	if !ok {
		return model.Workout{}, false, nil
	}
	fields, err := encodeWorkout(w)
	if err != nil {
		return model.Workout{}, false, backendErr("replace", err)
	}
	return r.swap(ctx, "replace", replaceScript, w.UserID, id, fields...)
}

// Remove implements WorkoutRepository.Remove.
func (r *RedisWorkouts) Remove(ctx context.Context, userID string, id int64) (model.Workout, bool, error) {
	return r.swap(ctx, "remove", removeScript, userID, id)
}

func (r *RedisWorkouts) swap(ctx context.Context, op string, script *redis.Script, userID string, id int64, args ...any) (model.Workout, bool, error) {
	pairs, err := script.Run(ctx, r.client, []string{r.keys.workout(userID, id)}, args...).StringSlice()
	if errors.Is(err, redis.Nil) {
		return model.Workout{}, false, nil
	}
	if err != nil {
		return model.Workout{}, false, backendErr(op, err)
	}
	old, err := decodeWorkout(id, pairsToMap(pairs))
	if err != nil {
		return model.Workout{}, false, backendErr(op, err)
	}
	return old, true, nil
}
