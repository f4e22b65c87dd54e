// Package service composes the backing store, record store, change bus and
// leaderboard into the single dependency the HTTP API consumes.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/okian/calorank/internal/adapters/repository"
	"github.com/okian/calorank/internal/config"
	"github.com/okian/calorank/internal/domain/change"
	"github.com/okian/calorank/internal/domain/leaderboard"
	"github.com/okian/calorank/internal/domain/model"
	"github.com/okian/calorank/internal/domain/workouts"
	"github.com/okian/calorank/pkg/logger"
)

// Storage backends understood by WithStorage.
const (
	StorageRedis  = config.StorageRedis
	StorageMemory = config.StorageMemory
)

// ErrNotStarted is returned by every operation before Start succeeds.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for workouts and the leaderboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	client   redis.UniversalClient
	bus      *change.Bus
	workouts *workouts.Store
	index    *leaderboard.Index

	// Configuration
	storage       string
	redisAddr     string
	redisPassword string
	redisDB       int
	keyPrefix     string
	ownsClient    bool
	fanoutLimit   int
	snapshotSize  int
	maxPageSize   int
	maxRangeSize  int64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStorage selects the backing store: StorageRedis or StorageMemory.
func WithStorage(storage string) Option {
	return func(s *Service) {
		if storage != "" {
			s.storage = storage
		}
	}
}

// WithRedis sets the Redis connection used when the storage is StorageRedis.
func WithRedis(addr, password string, db int) Option {
	return func(s *Service) {
		s.redisAddr = addr
		s.redisPassword = password
		s.redisDB = db
	}
}

// WithRedisClient injects an existing client instead of dialing one. The
// caller keeps ownership and closes it.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(s *Service) {
		if client != nil {
			s.client = client
			s.storage = StorageRedis
		}
	}
}

// WithKeyPrefix namespaces every Redis key.
func WithKeyPrefix(prefix string) Option {
	return func(s *Service) {
		s.keyPrefix = prefix
	}
}

// WithFanoutLimit caps concurrently running change subscribers.
func WithFanoutLimit(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.fanoutLimit = n
		}
	}
}

// WithSnapshotSize sets how many entries a leaderboard snapshot carries.
func WithSnapshotSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.snapshotSize = n
		}
	}
}

// WithMaxPageSize caps a single leaderboard page.
func WithMaxPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPageSize = n
		}
	}
}

// WithMaxRangeSize caps a single workout range query.
func WithMaxRangeSize(n int64) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRangeSize = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storage:      StorageRedis,
		redisAddr:    "localhost:6379",
		snapshotSize: leaderboard.DefaultSnapshotSize,
		maxPageSize:  100,
		maxRangeSize: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start connects the backing store and wires the components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting calorank service...", logger.String("storage", s.storage))

	repo, board, err := s.backend(ctx)
	if err != nil {
		return err
	}

	s.bus = change.NewBus(
		change.WithFanoutLimit(s.fanoutLimit),
		change.WithLogger(s.logger.Named("change")),
	)
	s.index = leaderboard.NewIndex(board,
		leaderboard.WithSnapshotSize(s.snapshotSize),
		leaderboard.WithMaxPageSize(s.maxPageSize),
		leaderboard.WithLogger(s.logger.Named("leaderboard")),
	)
	s.bus.Subscribe("leaderboard", s.index)
	s.workouts = workouts.NewStore(repo, s.bus,
		workouts.WithMaxRangeSize(s.maxRangeSize),
		workouts.WithLogger(s.logger.Named("workouts")),
	)

	s.started = true
	s.logger.Info(ctx, "calorank service started",
		logger.Int("fanoutLimit", s.fanoutLimit),
		logger.Int("snapshotSize", s.snapshotSize),
		logger.Int("maxPageSize", s.maxPageSize),
	)
	return nil
}

func (s *Service) backend(ctx context.Context) (repository.WorkoutRepository, repository.ScoreBoard, error) {
	switch s.storage {
	case StorageMemory:
		return repository.NewMemoryWorkouts(), repository.NewTreapStore(), nil
	case StorageRedis:
		if s.client == nil {
			s.client = redis.NewClient(&redis.Options{
				Addr:     s.redisAddr,
				Password: s.redisPassword,
				DB:       s.redisDB,
			})
			s.ownsClient = true
		}
		if err := s.client.Ping(ctx).Err(); err != nil {
			s.closeClient()
			return nil, nil, fmt.Errorf("connect redis %s: %w", s.redisAddr, err)
		}
		prefix := repository.WithKeyPrefix(s.keyPrefix)
		return repository.NewRedisWorkouts(s.client, prefix), repository.NewRedisScoreBoard(s.client, prefix), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", s.storage)
	}
}

func (s *Service) closeClient() {
	if s.client != nil && s.ownsClient {
		_ = s.client.Close()
		s.client = nil
		s.ownsClient = false
	}
}

// Stop releases the backing store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping calorank service...")
	s.closeClient()
	s.started = false
	s.logger.Info(context.Background(), "calorank service stopped")
}

func (s *Service) components() (*workouts.Store, *leaderboard.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.workouts, s.index, nil
}

// CreateWorkout logs a workout for ownerID.
func (s *Service) CreateWorkout(ctx context.Context, ownerID string, in model.WorkoutInput) (model.Workout, error) {
	store, _, err := s.components()
	if err != nil {
		return model.Workout{}, err
	}
	return store.Create(ctx, ownerID, in)
}

// GetWorkout returns one of ownerID's workouts.
func (s *Service) GetWorkout(ctx context.Context, ownerID, id string) (model.Workout, bool, error) {
	store, _, err := s.components()
	if err != nil {
		return model.Workout{}, false, err
	}
	return store.Get(ctx, ownerID, id)
}

// UpdateWorkout replaces one of ownerID's workouts.
func (s *Service) UpdateWorkout(ctx context.Context, ownerID, id string, in model.WorkoutInput) (model.Workout, bool, error) {
	store, _, err := s.components()
	if err != nil {
		return model.Workout{}, false, err
	}
	return store.Update(ctx, ownerID, id, in)
}

// DeleteWorkout removes one of ownerID's workouts.
func (s *Service) DeleteWorkout(ctx context.Context, ownerID, id string) (bool, error) {
	store, _, err := s.components()
	if err != nil {
		return false, err
	}
	return store.Delete(ctx, ownerID, id)
}

// LastWorkoutID returns ownerID's highest allocated id.
func (s *Service) LastWorkoutID(ctx context.Context, ownerID string) (int64, error) {
	store, _, err := s.components()
	if err != nil {
		return 0, err
	}
	return store.LastID(ctx, ownerID)
}

// WorkoutRange returns ownerID's live workouts with ids in [from, to].
func (s *Service) WorkoutRange(ctx context.Context, ownerID string, from, to int64) ([]model.Workout, error) {
	store, _, err := s.components()
	if err != nil {
		return nil, err
	}
	return store.RangeQuery(ctx, ownerID, from, to)
}

// LastWorkouts returns ownerID's live workouts among the last n ids.
func (s *Service) LastWorkouts(ctx context.Context, ownerID string, n int64) ([]model.Workout, error) {
	store, _, err := s.components()
	if err != nil {
		return nil, err
	}
	return store.LastN(ctx, ownerID, n)
}

// Leaderboard returns the entries at zero-based ranks start..stop.
func (s *Service) Leaderboard(ctx context.Context, start, stop int64) ([]model.Entry, error) {
	_, index, err := s.components()
	if err != nil {
		return nil, err
	}
	return index.RangeByRank(ctx, start, stop)
}

// Rank returns the leaderboard entry of userID.
func (s *Service) Rank(ctx context.Context, userID string) (model.Entry, error) {
	_, index, err := s.components()
	if err != nil {
		return model.Entry{}, err
	}
	return index.Rank(ctx, userID)
}

// Snapshot returns the top of the leaderboard with its read time.
func (s *Service) Snapshot(ctx context.Context) (leaderboard.Snapshot, error) {
	_, index, err := s.components()
	if err != nil {
		return leaderboard.Snapshot{}, err
	}
	return index.Snapshot(ctx)
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	s.mu.RLock()
	started, client := s.started, s.client
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	if client == nil {
		return nil
	}
	return client.Ping(ctx).Err()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"storage":      s.storage,
		"fanoutLimit":  s.fanoutLimit,
		"snapshotSize": s.snapshotSize,
	}

	if s.started {
		stats["subscribers"] = s.bus.Subscribers()
		if n, err := s.index.Count(context.Background()); err == nil {
			stats["rankedUsers"] = n
		} else {
			stats["rankedUsersError"] = err.Error()
		}
	}

	return stats
}
