package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-dispatch/internal/db"
	"github.com/ukydev/fleet-dispatch/internal/models"
)

func seedTrip(t *testing.T, store db.Store, distance float64) string {
	t.Helper()
	trip := &models.Trip{
		ScheduledDate:     time.Now().Add(time.Hour),
		StartLocation:     "London Depot",
		EndLocation:       "Cardiff Hub",
		Distance:          distance,
		EstimatedDuration: 2.5,
		Status:            models.TripScheduled,
	}
	id, err := store.InsertTrip(context.Background(), trip)
	require.NoError(t, err)
	return id
}

func seedDriver(t *testing.T, store db.Store, name string, available bool) string {
	t.Helper()
	driver := &models.Driver{
		Name:          name,
		LicenseNumber: "DL-" + name,
		Available:     available,
	}
	id, err := store.InsertDriver(context.Background(), driver)
	require.NoError(t, err)
	return id
}

func seedVehicle(t *testing.T, store db.Store, totalDistance float64, available bool) string {
	t.Helper()
	vehicle := &models.Vehicle{
		Make:          "Ford",
		Model:         "Transit",
		Year:          2022,
		Plate:         "FL-001",
		Available:     available,
		TotalDistance: totalDistance,
	}
	id, err := store.InsertVehicle(context.Background(), vehicle)
	require.NoError(t, err)
	return id
}

func seedPersonnel(t *testing.T, store db.Store, name string) string {
	t.Helper()
	personnel := &models.MaintenancePersonnel{Name: name}
	id, err := store.InsertPersonnel(context.Background(), personnel)
	require.NoError(t, err)
	return id
}
