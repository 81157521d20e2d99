package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaintenancePersonnel represents a maintenance worker eligible for
// round-robin dispatch.
//
// Seq is a persisted insertion sequence number. The dispatcher sorts the
// roster by Seq before indexing so that round-robin order is stable across
// queries; document fetch order alone is not guaranteed.
type MaintenancePersonnel struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name             string             `json:"name" bson:"name"`
	Seq              int64              `json:"seq" bson:"seq"`
	AssignedVehicles []string           `json:"assigned_vehicles" bson:"assignedVehicles"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

// HasVehicle reports whether the worker already has the vehicle in their
// assigned set.
func (p *MaintenancePersonnel) HasVehicle(vehicleID string) bool {
	for _, id := range p.AssignedVehicles {
		if id == vehicleID {
			return true
		}
	}
	return false
}
