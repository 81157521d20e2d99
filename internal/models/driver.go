package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UpcomingTrip is the pending-work reference attached to a claimed driver.
// It exists to prevent double-booking and to let a UI show what the driver
// is booked for without a second lookup.
type UpcomingTrip struct {
	TripID        string    `json:"trip_id" bson:"trip_id"`
	StartLocation string    `json:"start_location" bson:"start_location"`
	EndLocation   string    `json:"end_location" bson:"end_location"`
	ScheduledDate time.Time `json:"scheduled_date" bson:"scheduled_date"`
}

// Driver represents a fleet driver.
type Driver struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	LicenseNumber string             `json:"license_number" bson:"license_number"`
	Available     bool               `json:"available" bson:"available"`
	UpcomingTrip  *UpcomingTrip      `json:"upcoming_trip,omitempty" bson:"upcoming_trip,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// DriverSnapshot is the denormalized driver copy embedded in a Trip for
// display. Never used for availability decisions.
type DriverSnapshot struct {
	DriverID      string `json:"driver_id" bson:"driver_id"`
	Name          string `json:"name" bson:"name"`
	LicenseNumber string `json:"license_number" bson:"license_number"`
}

// Snapshot returns the display copy of the driver for embedding in a Trip.
func (d *Driver) Snapshot() *DriverSnapshot {
	return &DriverSnapshot{
		DriverID:      d.ID.Hex(),
		Name:          d.Name,
		LicenseNumber: d.LicenseNumber,
	}
}
