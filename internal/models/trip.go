package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripStatus is the lifecycle state of a trip, persisted as a string.
type TripStatus string

const (
	TripScheduled  TripStatus = "scheduled"
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
)

// IsValidTripStatus checks if a status is one of the known lifecycle states.
func IsValidTripStatus(s TripStatus) bool {
	switch s {
	case TripScheduled, TripInProgress, TripCompleted:
		return true
	default:
		return false
	}
}

// Trip represents a unit of work requiring one driver and one vehicle.
// The embedded driver/vehicle snapshots are display copies; the live
// Driver/Vehicle documents stay authoritative for availability.
type Trip struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ScheduledDate     time.Time          `json:"scheduled_date" bson:"scheduled_date"`
	StartLocation     string             `json:"start_location" bson:"start_location"`
	EndLocation       string             `json:"end_location" bson:"end_location"`
	Distance          float64            `json:"distance" bson:"distance"`                      // in kilometers, one way
	EstimatedDuration float64            `json:"estimated_duration" bson:"estimated_duration"` // in hours
	Status            TripStatus         `json:"status" bson:"TripStatus"`
	AssignedDriver    *DriverSnapshot    `json:"assigned_driver,omitempty" bson:"assignedDriver,omitempty"`
	AssignedVehicle   *VehicleSnapshot   `json:"assigned_vehicle,omitempty" bson:"assignedVehicle,omitempty"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

// ReadyToStart reports whether the trip has both resources assigned and may
// transition to in_progress.
func (t *Trip) ReadyToStart() bool {
	return t.Status == TripScheduled && t.AssignedDriver != nil && t.AssignedVehicle != nil
}

// RoundTripDistance is the distance booked against a vehicle when it is
// claimed for this trip (out and back).
func (t *Trip) RoundTripDistance() float64 {
	return t.Distance * 2
}
