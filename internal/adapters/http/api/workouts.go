package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/okian/calorank/internal/domain/model"
)

// defaultLastN is used by GET /workouts/last when n is omitted.
const defaultLastN = 10

// WorkoutDependencies defines the interface for workout operations.
type WorkoutDependencies interface {
	CreateWorkout(ctx context.Context, ownerID string, in model.WorkoutInput) (model.Workout, error)
	GetWorkout(ctx context.Context, ownerID, id string) (model.Workout, bool, error)
	UpdateWorkout(ctx context.Context, ownerID, id string, in model.WorkoutInput) (model.Workout, bool, error)
	DeleteWorkout(ctx context.Context, ownerID, id string) (bool, error)
	LastWorkoutID(ctx context.Context, ownerID string) (int64, error)
	WorkoutRange(ctx context.Context, ownerID string, from, to int64) ([]model.Workout, error)
	LastWorkouts(ctx context.Context, ownerID string, n int64) ([]model.Workout, error)
}

// WorkoutsHandler handles the owner-scoped workout routes.
type WorkoutsHandler struct {
	deps WorkoutDependencies
}

// NewWorkoutsHandler creates a new workouts handler.
func NewWorkoutsHandler(deps WorkoutDependencies) *WorkoutsHandler {
	return &WorkoutsHandler{deps: deps}
}

type lastIDResponse struct {
	LastID int64 `json:"lastId"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

func decodeWorkout(r *http.Request, op string) (model.WorkoutInput, error) {
	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return model.WorkoutInput{}, WrapKind(op, ErrBadRequest, err)
	}
	if err := req.validate(); err != nil {
		return model.WorkoutInput{}, WrapKind(op, ErrBadRequest, err)
	}
	return req.input(), nil
}

// HandleCreate handles POST /workouts.
func (h *WorkoutsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_workout"
	owner, ok := ownerID(w, r, op)
	if !ok {
		return
	}
	in, err := decodeWorkout(r, op)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	created, err := h.deps.CreateWorkout(r.Context(), owner, in)
	if !committed(w, err) {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleGet handles GET /workouts/{id}.
func (h *WorkoutsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_workout"
	owner, ok := ownerID(w, r, op)
	if !ok {
		return
	}
	found, ok, err := h.deps.GetWorkout(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// HandleUpdate handles PUT /workouts/{id}.
func (h *WorkoutsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_workout"
	owner, ok := ownerID(w, r, op)
	if !ok {
		return
	}
	in, err := decodeWorkout(r, op)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	updated, ok, err := h.deps.UpdateWorkout(r.Context(), owner, r.PathValue("id"), in)
	if !committed(w, err) {
		writeFailure(w, op, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /workouts/{id}.
func (h *WorkoutsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_workout"
	owner, ok := ownerID(w, r, op)
	if !ok {
		return
	}
	deleted, err := h.deps.DeleteWorkout(r.Context(), owner, r.PathValue("id"))
	if !committed(w, err) {
		writeFailure(w, op, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: true})
}

// HandleLastID handles GET /workouts/last-id.
func (h *WorkoutsHandler) HandleLastID(w http.ResponseWriter, r *http.Request) {
	const op = "api.last_workout_id"
	owner, ok := ownerID(w, r, op)
	if !ok {
		return
	}
	last, err := h.deps.LastWorkoutID(r.Context(), owner)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, lastIDResponse{LastID: last})
}

// HandleRange handles GET /workouts?from=&to=.
func (h *WorkoutsHandler) HandleRange(w http.ResponseWriter, r *http.Request) {
	const op = "api.workout_range"
	owner, ok := ownerID(w, r, op)
	if !ok {
		return
	}
	from, err := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	to, err := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	list, err := h.deps.WorkoutRange(r.Context(), owner, from, to)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleLastN handles GET /workouts/last?n=.
func (h *WorkoutsHandler) HandleLastN(w http.ResponseWriter, r *http.Request) {
	const op = "api.last_workouts"
	owner, ok := ownerID(w, r, op)
	if !ok {
		return
	}
	n := int64(defaultLastN)
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = parsed
	}
	list, err := h.deps.LastWorkouts(r.Context(), owner, n)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
