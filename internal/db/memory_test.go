package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-dispatch/internal/models"
)

func TestMemoryStore_TripCRUD(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	trip := &models.Trip{
		StartLocation: "London Depot",
		EndLocation:   "Cardiff Hub",
		Distance:      42,
		Status:        models.TripScheduled,
	}
	id, err := store.InsertTrip(ctx, trip)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	found, err := store.FindTripByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "London Depot", found.StartLocation)
	assert.Equal(t, models.TripScheduled, found.Status)
	assert.NotZero(t, found.CreatedAt)

	err = store.UpdateTripFields(ctx, id, Fields{"TripStatus": models.TripInProgress})
	require.NoError(t, err)
	found, err = store.FindTripByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.TripInProgress, found.Status)

	require.NoError(t, store.DeleteTrip(ctx, id))
	_, err = store.FindTripByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteTrip(ctx, id), ErrNotFound)
}

func TestMemoryStore_NilFieldClears(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	driver := &models.Driver{
		Name:      "Alex",
		Available: false,
		UpcomingTrip: &models.UpcomingTrip{
			TripID:        "t1",
			StartLocation: "London Depot",
		},
	}
	id, err := store.InsertDriver(ctx, driver)
	require.NoError(t, err)

	err = store.UpdateDriverFields(ctx, id, Fields{"available": true, "upcoming_trip": nil})
	require.NoError(t, err)

	found, err := store.FindDriverByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, found.Available)
	assert.Nil(t, found.UpcomingTrip)
}

func TestMemoryStore_FindReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.InsertVehicle(ctx, &models.Vehicle{Make: "Ford", Available: true})
	require.NoError(t, err)

	first, err := store.FindVehicleByID(ctx, id)
	require.NoError(t, err)
	first.Make = "mutated"

	second, err := store.FindVehicleByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ford", second.Make)
}

func TestMemoryStore_IncVehicleDistance(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.InsertVehicle(ctx, &models.Vehicle{Make: "Ford", TotalDistance: 10})
	require.NoError(t, err)

	require.NoError(t, store.IncVehicleDistance(ctx, id, 30))
	require.NoError(t, store.IncVehicleDistance(ctx, id, 5))

	vehicle, err := store.FindVehicleByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 45.0, vehicle.TotalDistance)
}

func TestMemoryStore_PersonnelOrderedBySeq(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, name := range []string{"Pat", "Noor", "Jo"} {
		_, err := store.InsertPersonnel(ctx, &models.MaintenancePersonnel{Name: name})
		require.NoError(t, err)
	}

	roster, err := store.FindPersonnel(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, "Pat", roster[0].Name)
	assert.Equal(t, "Noor", roster[1].Name)
	assert.Equal(t, "Jo", roster[2].Name)
	assert.Less(t, roster[0].Seq, roster[1].Seq)
	assert.Less(t, roster[1].Seq, roster[2].Seq)
}

func TestMemoryStore_AppendAssignedVehicleIsSetLike(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.InsertPersonnel(ctx, &models.MaintenancePersonnel{Name: "Pat"})
	require.NoError(t, err)

	require.NoError(t, store.AppendAssignedVehicle(ctx, id, "v1"))
	require.NoError(t, store.AppendAssignedVehicle(ctx, id, "v1"))
	require.NoError(t, store.AppendAssignedVehicle(ctx, id, "v2"))

	roster, err := store.FindPersonnel(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, roster[0].AssignedVehicles)
}

func TestMemoryStore_NextMaintenanceSeq(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for want := int64(0); want < 3; want++ {
		got, err := store.NextMaintenanceSeq(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMemoryStore_TransactionRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	driverID, err := store.InsertDriver(ctx, &models.Driver{Name: "Alex", Available: true})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := store.UpdateDriverFields(ctx, driverID, Fields{"available": false}); err != nil {
			return err
		}
		if _, err := store.NextMaintenanceSeq(ctx); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	driver, err := store.FindDriverByID(ctx, driverID)
	require.NoError(t, err)
	assert.True(t, driver.Available, "failed transaction must not apply writes")

	seq, err := store.NextMaintenanceSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq, "counter increment rolls back with the transaction")
}

func TestMemoryStore_TransactionCommits(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	driverID, err := store.InsertDriver(ctx, &models.Driver{Name: "Alex", Available: true})
	require.NoError(t, err)

	err = store.WithTransaction(ctx, func(ctx context.Context) error {
		return store.UpdateDriverFields(ctx, driverID, Fields{"available": false})
	})
	require.NoError(t, err)

	driver, err := store.FindDriverByID(ctx, driverID)
	require.NoError(t, err)
	assert.False(t, driver.Available)
}

func TestMemoryStore_NestedTransactionJoins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	driverID, err := store.InsertDriver(ctx, &models.Driver{Name: "Alex", Available: true})
	require.NoError(t, err)

	err = store.WithTransaction(ctx, func(ctx context.Context) error {
		return store.WithTransaction(ctx, func(ctx context.Context) error {
			return store.UpdateDriverFields(ctx, driverID, Fields{"available": false})
		})
	})
	require.NoError(t, err)

	driver, err := store.FindDriverByID(ctx, driverID)
	require.NoError(t, err)
	assert.False(t, driver.Available)
}
