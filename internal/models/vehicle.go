package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle represents a fleet vehicle.
//
// TotalDistance is monotonically non-decreasing; it is incremented by the
// round-trip distance of every committed claim and is never rolled back,
// not even when the claiming trip is later abandoned.
type Vehicle struct {
	ID                             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Make                           string             `json:"make" bson:"make"`
	Model                          string             `json:"model" bson:"model"`
	Year                           int                `json:"year" bson:"year"`
	Plate                          string             `json:"plate" bson:"plate"`
	Available                      bool               `json:"available" bson:"available"`
	TotalDistance                  float64            `json:"total_distance" bson:"totalDistance"` // in kilometers
	NeedsMaintenance               bool               `json:"needs_maintenance" bson:"needsMaintenance"`
	AssignedMaintenancePersonnelID string             `json:"assigned_maintenance_personnel_id,omitempty" bson:"assignedMaintenancePersonnelID,omitempty"`
	CreatedAt                      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt                      time.Time          `json:"updated_at" bson:"updated_at"`
}

// VehicleSnapshot is the denormalized vehicle copy embedded in a Trip for
// display. Never used for availability decisions.
type VehicleSnapshot struct {
	VehicleID string `json:"vehicle_id" bson:"vehicle_id"`
	Make      string `json:"make" bson:"make"`
	Model     string `json:"model" bson:"model"`
	Plate     string `json:"plate" bson:"plate"`
}

// Snapshot returns the display copy of the vehicle for embedding in a Trip.
func (v *Vehicle) Snapshot() *VehicleSnapshot {
	return &VehicleSnapshot{
		VehicleID: v.ID.Hex(),
		Make:      v.Make,
		Model:     v.Model,
		Plate:     v.Plate,
	}
}
