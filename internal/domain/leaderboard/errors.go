package leaderboard

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound     = errors.New("user not ranked")
	ErrBackend      = errors.New("leaderboard backend failure")
	ErrUnknownEvent = errors.New("unknown change event")
)
