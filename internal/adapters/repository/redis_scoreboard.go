package repository

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/okian/calorank/internal/domain/model"
)

// Totals are stored negated so that ascending sorted-set order, which breaks
// ties by member bytes, gives score DESC then user id ASC. Only stored
// values below zero (positive totals) are ranked; the rest are transient.

// rankedMax bounds ranked members: stored scores strictly below zero.
const rankedMax = "(0"

// incrScript applies a negated delta and evicts users whose total is
// exactly zero. ARGV[1] is the negated delta, ARGV[2] the user id.
var incrScript = redis.NewScript(`
local stored = redis.call("ZINCRBY", KEYS[1], ARGV[1], ARGV[2])
if tonumber(stored) == 0 then
  redis.call("ZREM", KEYS[1], ARGV[2])
end
return stored
`)

// RedisScoreBoard is a ScoreBoard backed by a Redis sorted set.
type RedisScoreBoard struct {
	client redis.UniversalClient
	keys   keyspace
}

// NewRedisScoreBoard wraps an existing client.
func NewRedisScoreBoard(client redis.UniversalClient, opts ...RedisOption) *RedisScoreBoard {
	return &RedisScoreBoard{client: client, keys: newKeyspace(opts)}
}

// IncrBy implements ScoreBoard.IncrBy.
func (r *RedisScoreBoard) IncrBy(ctx context.Context, userID string, delta int64) (int64, error) {
	raw, err := incrScript.Run(ctx, r.client, []string{r.keys.board()}, -delta, userID).Text()
	if err != nil {
		return 0, backendErr("incr", err)
	}
	stored, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, backendErr("incr", err)
	}
	return -int64(stored), nil
}

// Score implements ScoreBoard.Score.
func (r *RedisScoreBoard) Score(ctx context.Context, userID string) (int64, bool, error) {
	stored, err := r.client.ZScore(ctx, r.keys.board(), userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, backendErr("score", err)
	}
	if stored >= 0 {
		return 0, false, nil
	}
	return -int64(stored), true, nil
}

// Rank implements ScoreBoard.Rank. Position and score are read in one
// transaction so they describe the same state.
func (r *RedisScoreBoard) Rank(ctx context.Context, userID string) (model.Entry, error) {
	var (
		rankCmd  *redis.IntCmd
		scoreCmd *redis.FloatCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		rankCmd = pipe.ZRank(ctx, r.keys.board(), userID)
		scoreCmd = pipe.ZScore(ctx, r.keys.board(), userID)
		return nil
	})
	if errors.Is(rankCmd.Err(), redis.Nil) || errors.Is(scoreCmd.Err(), redis.Nil) {
		return model.Entry{}, ErrNotFound
	}
	if err != nil {
		return model.Entry{}, backendErr("rank", err)
	}
	if scoreCmd.Val() >= 0 {
		return model.Entry{}, ErrNotFound
	}
	return model.Entry{
		Rank:     int(rankCmd.Val()) + 1,
		UserID:   userID,
		Calories: -int64(scoreCmd.Val()),
	}, nil
}

// RangeByRank implements ScoreBoard.RangeByRank.
func (r *RedisScoreBoard) RangeByRank(ctx context.Context, start, stop int64) ([]model.Entry, error) {
	if start < 0 {
		start = 0
	}
	if start > stop {
		return []model.Entry{}, nil
	}
	count := stop - start
	if count < math.MaxInt64 {
		count++
	}
	zs, err := r.client.ZRangeByScoreWithScores(ctx, r.keys.board(), &redis.ZRangeBy{
		Min:    "-inf",
		Max:    rankedMax,
		Offset: start,
		Count:  count,
	}).Result()
	if err != nil {
		return nil, backendErr("range", err)
	}
	out := make([]model.Entry, 0, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		out = append(out, model.Entry{
			Rank:     int(start) + i + 1,
			UserID:   member,
			Calories: -int64(z.Score),
		})
	}
	return out, nil
}

// Count implements ScoreBoard.Count.
func (r *RedisScoreBoard) Count(ctx context.Context) (int64, error) {
	n, err := r.client.ZCount(ctx, r.keys.board(), "-inf", rankedMax).Result()
	if err != nil {
		return 0, backendErr("count", err)
	}
	return n, nil
}
