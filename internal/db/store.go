package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/fleet-dispatch/internal/models"
)

// Collection names used by the dispatch core.
const (
	TripsCollection         = "trips"
	DriversCollection       = "drivers"
	VehiclesCollection      = "vehicles"
	PersonnelCollection     = "maintenance_personnel"
	DispatchStateCollection = "dispatch_state"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Fields is a set of plain field-name -> value pairs applied as an update.
// A nil value clears the field. Keys are persistence (bson) field names.
type Fields = bson.M

// Store is the document store consumed by the dispatch core.
//
// Every method issues a single document operation. Multi-document
// read-verify-write sequences must run inside WithTransaction; within the
// callback the same Store methods participate in the transaction through
// the derived context.
type Store interface {
	InsertTrip(ctx context.Context, trip *models.Trip) (string, error)
	FindTripByID(ctx context.Context, id string) (*models.Trip, error)
	UpdateTripFields(ctx context.Context, id string, fields Fields) error
	DeleteTrip(ctx context.Context, id string) error

	InsertDriver(ctx context.Context, driver *models.Driver) (string, error)
	FindDriverByID(ctx context.Context, id string) (*models.Driver, error)
	FindAvailableDrivers(ctx context.Context) ([]models.Driver, error)
	UpdateDriverFields(ctx context.Context, id string, fields Fields) error

	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) (string, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindAvailableVehicles(ctx context.Context) ([]models.Vehicle, error)
	UpdateVehicleFields(ctx context.Context, id string, fields Fields) error
	IncVehicleDistance(ctx context.Context, id string, delta float64) error

	InsertPersonnel(ctx context.Context, personnel *models.MaintenancePersonnel) (string, error)
	// FindPersonnel returns the full roster ordered by the persisted seq key.
	FindPersonnel(ctx context.Context) ([]models.MaintenancePersonnel, error)
	AppendAssignedVehicle(ctx context.Context, personnelID, vehicleID string) error

	// NextMaintenanceSeq atomically increments and returns the persisted
	// round-robin counter. The first call returns 0.
	NextMaintenanceSeq(ctx context.Context) (int64, error)

	// WithTransaction runs fn atomically: readers outside the transaction
	// see either the pre-state or the fully-applied post-state, and
	// conflicting concurrent writers are serialized by the store. If fn
	// returns an error no write is applied.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
