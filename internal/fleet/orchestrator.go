package fleet

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-dispatch/internal/db"
	"github.com/ukydev/fleet-dispatch/internal/events"
	"github.com/ukydev/fleet-dispatch/internal/models"
)

// Result is the outcome of an orchestrator operation. Message is always
// set, on failure as well as success, so callers can surface it directly.
type Result struct {
	Trip         *models.Trip     `json:"trip,omitempty"`
	Message      string           `json:"message"`
	ReadyToStart bool             `json:"ready_to_start,omitempty"`
	Maintenance  *DispatchOutcome `json:"maintenance,omitempty"`
}

// Orchestrator is the façade wiring dispatch intents to the assignment
// transactor, the trip state machine guards, and the maintenance
// dispatcher. Lifecycle events are published as informational signals;
// a publish failure never fails the operation.
type Orchestrator struct {
	store      db.Store
	transactor *Transactor
	dispatcher *Dispatcher
	events     events.Publisher
	log        *logrus.Entry
}

// NewOrchestrator creates an Orchestrator over its collaborators.
func NewOrchestrator(store db.Store, transactor *Transactor, dispatcher *Dispatcher, publisher events.Publisher) *Orchestrator {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Orchestrator{
		store:      store,
		transactor: transactor,
		dispatcher: dispatcher,
		events:     publisher,
		log:        logrus.WithField("component", "orchestrator"),
	}
}

// AssignDriver claims a driver for a scheduled trip. When the claim leaves
// the trip with both resources assigned, the result carries an
// informational ready-to-start signal.
func (o *Orchestrator) AssignDriver(ctx context.Context, tripID, driverID string) (*Result, error) {
	trip, err := o.transactor.ClaimDriver(ctx, tripID, driverID)
	if err != nil {
		o.log.WithError(err).WithFields(logrus.Fields{"trip_id": tripID, "driver_id": driverID}).Warn("assign driver failed")
		return &Result{Message: "Failed to assign driver: " + err.Error()}, err
	}
	res := &Result{
		Trip:         trip,
		Message:      "Driver assigned successfully!",
		ReadyToStart: trip.ReadyToStart(),
	}
	if res.ReadyToStart {
		res.Message = "Driver assigned successfully! Trip is ready to start."
		o.events.TripReady(trip)
	}
	return res, nil
}

// AssignVehicle claims a vehicle for a scheduled trip. Symmetric to
// AssignDriver.
func (o *Orchestrator) AssignVehicle(ctx context.Context, tripID, vehicleID string) (*Result, error) {
	trip, err := o.transactor.ClaimVehicle(ctx, tripID, vehicleID)
	if err != nil {
		o.log.WithError(err).WithFields(logrus.Fields{"trip_id": tripID, "vehicle_id": vehicleID}).Warn("assign vehicle failed")
		return &Result{Message: "Failed to assign vehicle: " + err.Error()}, err
	}
	res := &Result{
		Trip:         trip,
		Message:      "Vehicle assigned successfully!",
		ReadyToStart: trip.ReadyToStart(),
	}
	if res.ReadyToStart {
		res.Message = "Vehicle assigned successfully! Trip is ready to start."
		o.events.TripReady(trip)
	}
	return res, nil
}

// StartTrip transitions a scheduled trip with both assignments to
// in_progress. The guard and the status write run in one transaction so a
// concurrent abandon cannot slip between them.
func (o *Orchestrator) StartTrip(ctx context.Context, tripID string) (*Result, error) {
	var started *models.Trip
	err := o.store.WithTransaction(ctx, func(ctx context.Context) error {
		trip, err := o.store.FindTripByID(ctx, tripID)
		if err != nil {
			return storeErr("start trip: load trip "+tripID, err)
		}
		if err := EnsureStartable(trip); err != nil {
			return err
		}
		if err := o.store.UpdateTripFields(ctx, tripID, db.Fields{
			"TripStatus": models.TripInProgress,
		}); err != nil {
			return storeErr("start trip: update trip "+tripID, err)
		}
		trip.Status = models.TripInProgress
		started = trip
		return nil
	})
	if err != nil {
		o.log.WithError(err).WithField("trip_id", tripID).Warn("start trip failed")
		return &Result{Message: "Failed to start trip: " + err.Error()}, err
	}
	o.log.WithField("trip_id", tripID).Info("trip started")
	o.events.TripStarted(started)
	return &Result{Trip: started, Message: "Trip started successfully!"}, nil
}

// CompleteTrip transitions an in_progress trip to completed, releases the
// driver, settles the vehicle's availability, and then runs the maintenance
// threshold check on the vehicle.
//
// Completion and the maintenance dispatch are two separate transactions.
// When dispatch fails with ErrNoPersonnelAvailable the trip stays
// completed, the vehicle stays out of the pool with needsMaintenance still
// false, and the operator retries dispatch later.
func (o *Orchestrator) CompleteTrip(ctx context.Context, tripID string) (*Result, error) {
	trip, vehicleID, err := o.transactor.CompleteTrip(ctx, tripID, o.dispatcher.Threshold())
	if err != nil {
		o.log.WithError(err).WithField("trip_id", tripID).Warn("complete trip failed")
		return &Result{Message: "Failed to complete trip: " + err.Error()}, err
	}
	o.events.TripCompleted(trip)
	res := &Result{Trip: trip, Message: "Trip completed successfully!"}
	if vehicleID == "" {
		return res, nil
	}

	outcome, err := o.dispatcher.Evaluate(ctx, vehicleID)
	if err != nil {
		o.log.WithError(err).WithFields(logrus.Fields{"trip_id": tripID, "vehicle_id": vehicleID}).Warn("maintenance dispatch failed")
		if errors.Is(err, ErrNoPersonnelAvailable) {
			res.Message = "Trip completed, but the vehicle needs maintenance and no personnel are available. Retry dispatch later."
		} else {
			res.Message = "Trip completed, but the maintenance check failed: " + err.Error()
		}
		return res, err
	}
	res.Maintenance = outcome
	if outcome.Dispatched {
		res.Message = fmt.Sprintf("Trip completed successfully! Vehicle sent to maintenance (%s).", outcome.PersonnelName)
		o.events.MaintenanceAssigned(outcome.VehicleID, outcome.PersonnelID, outcome.PersonnelName)
	}
	return res, nil
}

// AbandonTrip releases any assigned driver and vehicle of a still-scheduled
// trip back to the available pool and clears the trip's assignment fields.
// Used when a dispatcher closes the assignment screen without starting the
// trip. Abandoning an already-released scheduled trip is a no-op success.
//
// The guard and both releases run in one transaction, so a concurrent start
// cannot slip in between them: once the trip is in_progress the abandon
// fails whole, and a failed release rolls the other one back.
func (o *Orchestrator) AbandonTrip(ctx context.Context, tripID string) (*Result, error) {
	var abandoned *models.Trip
	err := o.store.WithTransaction(ctx, func(ctx context.Context) error {
		trip, err := o.store.FindTripByID(ctx, tripID)
		if err != nil {
			return storeErr("abandon trip: load trip "+tripID, err)
		}
		if err := EnsureAbandonable(trip); err != nil {
			return err
		}
		if err := o.transactor.ReleaseDriver(ctx, tripID); err != nil {
			return err
		}
		if err := o.transactor.ReleaseVehicle(ctx, tripID); err != nil {
			return err
		}
		trip, err = o.store.FindTripByID(ctx, tripID)
		if err != nil {
			return storeErr("abandon trip: reload trip "+tripID, err)
		}
		abandoned = trip
		return nil
	})
	if err != nil {
		o.log.WithError(err).WithField("trip_id", tripID).Warn("abandon trip failed")
		return &Result{Message: "Failed to abandon trip: " + err.Error()}, err
	}
	o.log.WithField("trip_id", tripID).Info("trip abandoned")
	return &Result{Trip: abandoned, Message: "Trip abandoned; resources released."}, nil
}
