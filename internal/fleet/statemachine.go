package fleet

import (
	"fmt"

	"github.com/ukydev/fleet-dispatch/internal/models"
)

// allowedTransitions defines the trip lifecycle as a directed graph.
// scheduled -> in_progress -> completed, both end states terminal for
// forward transitions. Abandon is not a status change: it returns a
// scheduled trip to scheduled with its assignments cleared.
var allowedTransitions = map[models.TripStatus][]models.TripStatus{
	models.TripScheduled:  {models.TripInProgress},
	models.TripInProgress: {models.TripCompleted},
	models.TripCompleted:  {},
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to models.TripStatus) bool {
	if from == to {
		return true
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// EnsureAssignable guards driver/vehicle assignment: legal only while the
// trip is scheduled. Assignment does not change the status itself.
func EnsureAssignable(trip *models.Trip) error {
	if trip.Status != models.TripScheduled {
		return fmt.Errorf("trip %s is %s, assignment requires scheduled: %w",
			trip.ID.Hex(), trip.Status, ErrInvalidTransition)
	}
	return nil
}

// EnsureStartable guards the scheduled -> in_progress transition: the trip
// must be scheduled with both a driver and a vehicle assigned.
func EnsureStartable(trip *models.Trip) error {
	if trip.Status != models.TripScheduled {
		return fmt.Errorf("trip %s is %s, start requires scheduled: %w",
			trip.ID.Hex(), trip.Status, ErrPreconditionFailed)
	}
	if trip.AssignedDriver == nil || trip.AssignedVehicle == nil {
		return fmt.Errorf("trip %s needs both a driver and a vehicle before it can start: %w",
			trip.ID.Hex(), ErrPreconditionFailed)
	}
	return nil
}

// EnsureCompletable guards the in_progress -> completed transition.
func EnsureCompletable(trip *models.Trip) error {
	if trip.Status != models.TripInProgress {
		return fmt.Errorf("trip %s is %s, complete requires in_progress: %w",
			trip.ID.Hex(), trip.Status, ErrInvalidTransition)
	}
	return nil
}

// EnsureAbandonable guards abandon: legal only while the trip is scheduled.
func EnsureAbandonable(trip *models.Trip) error {
	if trip.Status != models.TripScheduled {
		return fmt.Errorf("trip %s is %s, abandon requires scheduled: %w",
			trip.ID.Hex(), trip.Status, ErrInvalidTransition)
	}
	return nil
}
