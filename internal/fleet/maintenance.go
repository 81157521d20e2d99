package fleet

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-dispatch/internal/db"
)

// DefaultMaintenanceThreshold is the cumulative distance, in kilometers,
// above which a vehicle must be routed to a maintenance worker before
// further use.
const DefaultMaintenanceThreshold = 100.0

// Dispatcher routes vehicles that cross the distance threshold to
// maintenance workers. Selection is round-robin over the roster sorted by
// its persisted seq key; the round-robin index is persisted in the store,
// so fairness survives restarts and is shared across instances.
//
// The Dispatcher is the sole writer of a vehicle's needsMaintenance and
// assignedMaintenancePersonnelID fields.
type Dispatcher struct {
	store     db.Store
	threshold float64
	log       *logrus.Entry
}

// NewDispatcher creates a Dispatcher. A non-positive threshold falls back
// to DefaultMaintenanceThreshold.
func NewDispatcher(store db.Store, threshold float64) *Dispatcher {
	if threshold <= 0 {
		threshold = DefaultMaintenanceThreshold
	}
	return &Dispatcher{
		store:     store,
		threshold: threshold,
		log:       logrus.WithField("component", "maintenance_dispatcher"),
	}
}

// Threshold returns the configured maintenance distance threshold.
func (d *Dispatcher) Threshold() float64 {
	return d.threshold
}

// DispatchOutcome reports what the dispatcher decided for a vehicle.
type DispatchOutcome struct {
	VehicleID      string `json:"vehicle_id"`
	Dispatched     bool   `json:"dispatched"`
	AlreadyFlagged bool   `json:"already_flagged,omitempty"`
	PersonnelID    string `json:"personnel_id,omitempty"`
	PersonnelName  string `json:"personnel_name,omitempty"`
}

// Evaluate runs the maintenance threshold check for a vehicle. Below the
// threshold it does nothing. A vehicle already flagged for maintenance is a
// no-op success (idempotent). Otherwise one worker is selected round-robin
// and, atomically, the vehicle is flagged, bound to the worker, taken out
// of the pool, and appended to the worker's assigned set.
//
// An empty roster fails with ErrNoPersonnelAvailable and leaves the vehicle
// untouched: needsMaintenance stays false and the operator retries later.
func (d *Dispatcher) Evaluate(ctx context.Context, vehicleID string) (*DispatchOutcome, error) {
	outcome := &DispatchOutcome{VehicleID: vehicleID}
	err := d.store.WithTransaction(ctx, func(ctx context.Context) error {
		vehicle, err := d.store.FindVehicleByID(ctx, vehicleID)
		if err != nil {
			return storeErr("maintenance dispatch: load vehicle "+vehicleID, err)
		}
		if vehicle.TotalDistance < d.threshold {
			return nil
		}
		if vehicle.NeedsMaintenance {
			outcome.AlreadyFlagged = true
			outcome.PersonnelID = vehicle.AssignedMaintenancePersonnelID
			return nil
		}
		roster, err := d.store.FindPersonnel(ctx)
		if err != nil {
			return storeErr("maintenance dispatch: load personnel roster", err)
		}
		if len(roster) == 0 {
			return fmt.Errorf("vehicle %s: %w", vehicleID, ErrNoPersonnelAvailable)
		}
		seq, err := d.store.NextMaintenanceSeq(ctx)
		if err != nil {
			return storeErr("maintenance dispatch: advance round-robin counter", err)
		}
		selected := roster[seq%int64(len(roster))]
		personnelID := selected.ID.Hex()
		if err := d.store.UpdateVehicleFields(ctx, vehicleID, db.Fields{
			"needsMaintenance":               true,
			"assignedMaintenancePersonnelID": personnelID,
			"available":                      false,
		}); err != nil {
			return storeErr("maintenance dispatch: flag vehicle "+vehicleID, err)
		}
		if err := d.store.AppendAssignedVehicle(ctx, personnelID, vehicleID); err != nil {
			return storeErr("maintenance dispatch: append vehicle to personnel "+personnelID, err)
		}
		outcome.Dispatched = true
		outcome.PersonnelID = personnelID
		outcome.PersonnelName = selected.Name
		return nil
	})
	if err != nil {
		return nil, err
	}
	if outcome.Dispatched {
		d.log.WithFields(logrus.Fields{
			"vehicle_id":     vehicleID,
			"personnel_id":   outcome.PersonnelID,
			"personnel_name": outcome.PersonnelName,
		}).Info("vehicle dispatched to maintenance")
	}
	return outcome, nil
}
