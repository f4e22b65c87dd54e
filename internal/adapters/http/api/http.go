// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/calorank/internal/domain/leaderboard"
	"github.com/okian/calorank/internal/domain/model"
	"github.com/okian/calorank/internal/domain/workouts"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	WorkoutDependencies
	LeaderboardDependencies
	RankDependencies
	HealthDependencies
}

// UserIDHeader carries the authenticated owner id set by the upstream gateway.
const UserIDHeader = "X-User-ID"

// staleIndexHeader flags a committed write whose leaderboard update failed.
const staleIndexHeader = "X-Index-Stale"

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	workoutsHandler    *WorkoutsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(deps),
		statsHandler:       NewStatsHandler(statsProvider),
		workoutsHandler:    NewWorkoutsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /workouts", MetricsMiddleware(s.workoutsHandler.HandleCreate, "workouts_create"))
	mux.HandleFunc("GET /workouts", MetricsMiddleware(s.workoutsHandler.HandleRange, "workouts_range"))
	mux.HandleFunc("GET /workouts/last", MetricsMiddleware(s.workoutsHandler.HandleLastN, "workouts_last"))
	mux.HandleFunc("GET /workouts/last-id", MetricsMiddleware(s.workoutsHandler.HandleLastID, "workouts_last_id"))
	mux.HandleFunc("GET /workouts/{id}", MetricsMiddleware(s.workoutsHandler.HandleGet, "workouts_get"))
	mux.HandleFunc("PUT /workouts/{id}", MetricsMiddleware(s.workoutsHandler.HandleUpdate, "workouts_update"))
	mux.HandleFunc("DELETE /workouts/{id}", MetricsMiddleware(s.workoutsHandler.HandleDelete, "workouts_delete"))

	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /leaderboard/snapshot", MetricsMiddleware(s.leaderboardHandler.HandleSnapshot, "leaderboard_snapshot"))
	mux.HandleFunc("GET /rank/{userId}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

// exerciseRequest mirrors one exercise of a workout payload.
type exerciseRequest struct {
	Name     string `json:"name"`
	Reps     int    `json:"reps"`
	Sets     int    `json:"sets"`
	Weight   int    `json:"weight"`
	Calories int    `json:"calories"`
}

// workoutRequest mirrors the body of POST /workouts and PUT /workouts/{id}.
type workoutRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	StartTime   time.Time         `json:"startTime"`
	EndTime     time.Time         `json:"endTime"`
	Exercises   []exerciseRequest `json:"exercises"`
}

func (req workoutRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return errors.New("missing name")
	case req.StartTime.IsZero():
		return errors.New("missing startTime")
	case req.EndTime.IsZero():
		return errors.New("missing endTime")
	case req.EndTime.Before(req.StartTime):
		return errors.New("endTime must not be before startTime")
	case len(req.Exercises) == 0:
		return errors.New("at least one exercise is required")
	}
	for _, e := range req.Exercises {
		switch {
		case strings.TrimSpace(e.Name) == "":
			return errors.New("exercise name is required")
		case e.Reps < 1:
			return errors.New("exercise reps must be at least 1")
		case e.Sets < 1:
			return errors.New("exercise sets must be at least 1")
		case e.Weight < 0:
			return errors.New("exercise weight must not be negative")
		case e.Calories < 0:
			return errors.New("exercise calories must not be negative")
		}
	}
	return nil
}

func (req workoutRequest) input() model.WorkoutInput {
	in := model.WorkoutInput{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Exercises:   make([]model.Exercise, len(req.Exercises)),
	}
	for i, e := range req.Exercises {
		in.Exercises[i] = model.Exercise(e)
	}
	return in
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// ownerID returns the caller's user id or writes 401.
func ownerID(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if id == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return "", false
	}
	return id, true
}

// writeFailure translates upstream errors into a status code.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, leaderboard.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// committed reports whether a mutation was applied despite err. Writes
// that succeeded while the leaderboard update failed are still successes
// and are flagged with a response header.
func committed(w http.ResponseWriter, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, workouts.ErrStaleIndex) {
		w.Header().Set(staleIndexHeader, "true")
		return true
	}
	return false
}
