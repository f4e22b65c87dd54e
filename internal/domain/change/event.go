// Package change announces committed workout mutations to derived views.
package change

import "github.com/okian/calorank/internal/domain/model"

// Kind names the mutation carried by an Event.
type Kind string

// Mutation kinds, one per Event type.
const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

// Event is a committed mutation of one workout. The concrete types are
// Created, Updated and Deleted; the set is closed.
type Event interface {
	Kind() Kind
	// Owner returns the user the workout belongs to.
	Owner() string
	// Before returns the committed state prior to the mutation, if any.
	Before() (model.Workout, bool)
	// After returns the committed state following the mutation, if any.
	After() (model.Workout, bool)

	sealed()
}

// Created announces a new workout.
type Created struct {
	New model.Workout
}

func (Created) Kind() Kind                     { return KindCreated }
func (e Created) Owner() string                { return e.New.UserID }
func (Created) Before() (model.Workout, bool)  { return model.Workout{}, false }
func (e Created) After() (model.Workout, bool) { return e.New, true }
func (Created) sealed()                        {}

// Updated announces that a workout's fields were overwritten.
type Updated struct {
	Old model.Workout
	New model.Workout
}

func (Updated) Kind() Kind                      { return KindUpdated }
func (e Updated) Owner() string                 { return e.New.UserID }
func (e Updated) Before() (model.Workout, bool) { return e.Old, true }
func (e Updated) After() (model.Workout, bool)  { return e.New, true }
func (Updated) sealed()                         {}

// Deleted announces the removal of a workout.
type Deleted struct {
	Old model.Workout
}

func (Deleted) Kind() Kind                      { return KindDeleted }
func (e Deleted) Owner() string                 { return e.Old.UserID }
func (e Deleted) Before() (model.Workout, bool) { return e.Old, true }
func (Deleted) After() (model.Workout, bool)    { return model.Workout{}, false }
func (Deleted) sealed()                         {}
