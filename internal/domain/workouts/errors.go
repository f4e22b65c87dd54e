package workouts

import "errors"

// Sentinel kinds for record store errors.
var (
	// ErrBackend marks a failure of the backing store. Nothing was published.
	ErrBackend = errors.New("workout store backend failure")
	// ErrStaleIndex marks a committed mutation whose change notification
	// failed for at least one subscriber. The returned result is valid but
	// derived views such as the leaderboard may lag behind it.
	ErrStaleIndex = errors.New("derived index may be stale")
)
