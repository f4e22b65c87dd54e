package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/calorank/internal/domain/leaderboard"
	"github.com/okian/calorank/internal/domain/model"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, start, stop int64) ([]model.Entry, error)
	Snapshot(ctx context.Context) (leaderboard.Snapshot, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

func queryInt(r *http.Request, key string, def int64) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// HandleGetLeaderboard handles GET /leaderboard?start=&stop= requests.
// Ranks are zero-based and inclusive; the default page is 0..99.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	start, err := queryInt(r, "start", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	stop, err := queryInt(r, "stop", start+int64(h.maxLimit)-1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if from := max(start, 0); stop >= from && stop-from >= int64(h.maxLimit) {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.Leaderboard(r.Context(), start, stop)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleSnapshot handles GET /leaderboard/snapshot requests.
func (h *LeaderboardHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "api.leaderboard_snapshot"
	snap, err := h.deps.Snapshot(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
