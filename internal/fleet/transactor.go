package fleet

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-dispatch/internal/db"
	"github.com/ukydev/fleet-dispatch/internal/models"
)

// Transactor performs the atomic claim and release operations that bind
// drivers and vehicles to trips. It is the only writer of the live
// Driver/Vehicle available flag and of a trip's assignedDriver and
// assignedVehicle fields; display logic never touches them directly.
//
// Every claim and release is one store transaction: read the resource,
// verify, write resource and trip. Only one concurrent claim can succeed
// per resource; losers get ErrResourceUnavailable and mutate nothing.
type Transactor struct {
	store db.Store
	log   *logrus.Entry
}

// NewTransactor creates a Transactor over the given store.
func NewTransactor(store db.Store) *Transactor {
	return &Transactor{
		store: store,
		log:   logrus.WithField("component", "transactor"),
	}
}

// ClaimDriver atomically marks the driver unavailable, attaches the
// upcoming-trip reference, and writes the driver snapshot onto the trip.
//
// If the trip already had a different driver, that driver is released as a
// best-effort step before the claim transaction. The release running
// outside the atomic section is an accepted race window: the claim itself
// is still serialized by the store.
func (t *Transactor) ClaimDriver(ctx context.Context, tripID, driverID string) (*models.Trip, error) {
	trip, err := t.store.FindTripByID(ctx, tripID)
	if err != nil {
		return nil, storeErr("claim driver: load trip "+tripID, err)
	}
	if prev := trip.AssignedDriver; prev != nil && prev.DriverID != driverID {
		if err := t.ReleaseDriver(ctx, tripID); err != nil {
			t.log.WithError(err).WithFields(logrus.Fields{
				"trip_id":   tripID,
				"driver_id": prev.DriverID,
			}).Warn("failed to release previously assigned driver")
		}
	}

	var claimed *models.Trip
	err = t.store.WithTransaction(ctx, func(ctx context.Context) error {
		trip, err := t.store.FindTripByID(ctx, tripID)
		if err != nil {
			return storeErr("claim driver: load trip "+tripID, err)
		}
		if err := EnsureAssignable(trip); err != nil {
			return err
		}
		driver, err := t.store.FindDriverByID(ctx, driverID)
		if err != nil {
			return storeErr("claim driver: load driver "+driverID, err)
		}
		if !driver.Available {
			// Re-claiming the driver this trip already holds is a no-op.
			if driver.UpcomingTrip != nil && driver.UpcomingTrip.TripID == tripID {
				claimed = trip
				return nil
			}
			return fmt.Errorf("driver %s: %w", driverID, ErrResourceUnavailable)
		}
		upcoming := &models.UpcomingTrip{
			TripID:        tripID,
			StartLocation: trip.StartLocation,
			EndLocation:   trip.EndLocation,
			ScheduledDate: trip.ScheduledDate,
		}
		if err := t.store.UpdateDriverFields(ctx, driverID, db.Fields{
			"available":     false,
			"upcoming_trip": upcoming,
		}); err != nil {
			return storeErr("claim driver: update driver "+driverID, err)
		}
		snapshot := driver.Snapshot()
		if err := t.store.UpdateTripFields(ctx, tripID, db.Fields{
			"assignedDriver": snapshot,
		}); err != nil {
			return storeErr("claim driver: update trip "+tripID, err)
		}
		trip.AssignedDriver = snapshot
		claimed = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.log.WithFields(logrus.Fields{"trip_id": tripID, "driver_id": driverID}).Info("driver claimed")
	return claimed, nil
}

// ClaimVehicle atomically marks the vehicle unavailable, books the trip's
// round-trip distance against its cumulative totalDistance, and writes the
// vehicle snapshot onto the trip. The distance increment rides inside the
// claim transaction, so a losing claim books nothing.
func (t *Transactor) ClaimVehicle(ctx context.Context, tripID, vehicleID string) (*models.Trip, error) {
	trip, err := t.store.FindTripByID(ctx, tripID)
	if err != nil {
		return nil, storeErr("claim vehicle: load trip "+tripID, err)
	}
	if prev := trip.AssignedVehicle; prev != nil && prev.VehicleID != vehicleID {
		if err := t.ReleaseVehicle(ctx, tripID); err != nil {
			t.log.WithError(err).WithFields(logrus.Fields{
				"trip_id":    tripID,
				"vehicle_id": prev.VehicleID,
			}).Warn("failed to release previously assigned vehicle")
		}
	}

	var claimed *models.Trip
	err = t.store.WithTransaction(ctx, func(ctx context.Context) error {
		trip, err := t.store.FindTripByID(ctx, tripID)
		if err != nil {
			return storeErr("claim vehicle: load trip "+tripID, err)
		}
		if err := EnsureAssignable(trip); err != nil {
			return err
		}
		vehicle, err := t.store.FindVehicleByID(ctx, vehicleID)
		if err != nil {
			return storeErr("claim vehicle: load vehicle "+vehicleID, err)
		}
		if !vehicle.Available {
			if prev := trip.AssignedVehicle; prev != nil && prev.VehicleID == vehicleID {
				claimed = trip
				return nil
			}
			return fmt.Errorf("vehicle %s: %w", vehicleID, ErrResourceUnavailable)
		}
		if err := t.store.IncVehicleDistance(ctx, vehicleID, trip.RoundTripDistance()); err != nil {
			return storeErr("claim vehicle: book distance on vehicle "+vehicleID, err)
		}
		if err := t.store.UpdateVehicleFields(ctx, vehicleID, db.Fields{
			"available": false,
		}); err != nil {
			return storeErr("claim vehicle: update vehicle "+vehicleID, err)
		}
		snapshot := vehicle.Snapshot()
		if err := t.store.UpdateTripFields(ctx, tripID, db.Fields{
			"assignedVehicle": snapshot,
		}); err != nil {
			return storeErr("claim vehicle: update trip "+tripID, err)
		}
		trip.AssignedVehicle = snapshot
		claimed = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.log.WithFields(logrus.Fields{"trip_id": tripID, "vehicle_id": vehicleID}).Info("vehicle claimed")
	return claimed, nil
}

// ReleaseDriver returns the trip's assigned driver to the available pool
// and clears the trip's driver snapshot. A trip with no assigned driver is
// a no-op, which makes abandon idempotent.
func (t *Transactor) ReleaseDriver(ctx context.Context, tripID string) error {
	return t.store.WithTransaction(ctx, func(ctx context.Context) error {
		trip, err := t.store.FindTripByID(ctx, tripID)
		if err != nil {
			return storeErr("release driver: load trip "+tripID, err)
		}
		if trip.AssignedDriver == nil {
			return nil
		}
		driverID := trip.AssignedDriver.DriverID
		if err := t.store.UpdateDriverFields(ctx, driverID, db.Fields{
			"available":     true,
			"upcoming_trip": nil,
		}); err != nil {
			return storeErr("release driver: update driver "+driverID, err)
		}
		if err := t.store.UpdateTripFields(ctx, tripID, db.Fields{
			"assignedDriver": nil,
		}); err != nil {
			return storeErr("release driver: update trip "+tripID, err)
		}
		t.log.WithFields(logrus.Fields{"trip_id": tripID, "driver_id": driverID}).Info("driver released")
		return nil
	})
}

// ReleaseVehicle returns the trip's assigned vehicle to the available pool
// and clears the trip's vehicle snapshot. The distance booked at claim time
// stays: totalDistance is monotonic.
func (t *Transactor) ReleaseVehicle(ctx context.Context, tripID string) error {
	return t.store.WithTransaction(ctx, func(ctx context.Context) error {
		trip, err := t.store.FindTripByID(ctx, tripID)
		if err != nil {
			return storeErr("release vehicle: load trip "+tripID, err)
		}
		if trip.AssignedVehicle == nil {
			return nil
		}
		vehicleID := trip.AssignedVehicle.VehicleID
		if err := t.store.UpdateVehicleFields(ctx, vehicleID, db.Fields{
			"available": true,
		}); err != nil {
			return storeErr("release vehicle: update vehicle "+vehicleID, err)
		}
		if err := t.store.UpdateTripFields(ctx, tripID, db.Fields{
			"assignedVehicle": nil,
		}); err != nil {
			return storeErr("release vehicle: update trip "+tripID, err)
		}
		t.log.WithFields(logrus.Fields{"trip_id": tripID, "vehicle_id": vehicleID}).Info("vehicle released")
		return nil
	})
}

// CompleteTrip transitions the trip to completed, releases its driver, and
// settles the vehicle's availability in a single transaction: below the
// maintenance threshold the vehicle returns to the pool, at or above it the
// vehicle stays unavailable pending maintenance dispatch.
//
// It returns the updated trip and the id of the vehicle that served it (""
// when the trip had none), so the caller can run the maintenance check.
func (t *Transactor) CompleteTrip(ctx context.Context, tripID string, maintenanceThreshold float64) (*models.Trip, string, error) {
	var completed *models.Trip
	var vehicleID string
	err := t.store.WithTransaction(ctx, func(ctx context.Context) error {
		trip, err := t.store.FindTripByID(ctx, tripID)
		if err != nil {
			return storeErr("complete trip: load trip "+tripID, err)
		}
		if err := EnsureCompletable(trip); err != nil {
			return err
		}
		if err := t.store.UpdateTripFields(ctx, tripID, db.Fields{
			"TripStatus": models.TripCompleted,
		}); err != nil {
			return storeErr("complete trip: update trip "+tripID, err)
		}
		t.log.WithField("trip_id", tripID).Info("trip status set to completed")

		if trip.AssignedDriver != nil {
			driverID := trip.AssignedDriver.DriverID
			if err := t.store.UpdateDriverFields(ctx, driverID, db.Fields{
				"available":     true,
				"upcoming_trip": nil,
			}); err != nil {
				return storeErr("complete trip: release driver "+driverID, err)
			}
			t.log.WithFields(logrus.Fields{"trip_id": tripID, "driver_id": driverID}).Info("driver released")
		}

		if trip.AssignedVehicle != nil {
			vehicleID = trip.AssignedVehicle.VehicleID
			vehicle, err := t.store.FindVehicleByID(ctx, vehicleID)
			if err != nil {
				return storeErr("complete trip: load vehicle "+vehicleID, err)
			}
			available := vehicle.TotalDistance < maintenanceThreshold && !vehicle.NeedsMaintenance
			if err := t.store.UpdateVehicleFields(ctx, vehicleID, db.Fields{
				"available": available,
			}); err != nil {
				return storeErr("complete trip: settle vehicle "+vehicleID, err)
			}
			t.log.WithFields(logrus.Fields{
				"trip_id":    tripID,
				"vehicle_id": vehicleID,
				"available":  available,
			}).Info("vehicle availability settled")
		}

		trip.Status = models.TripCompleted
		completed = trip
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return completed, vehicleID, nil
}
