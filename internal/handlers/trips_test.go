package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-dispatch/internal/db"
	"github.com/ukydev/fleet-dispatch/internal/fleet"
	"github.com/ukydev/fleet-dispatch/internal/models"
)

func newTestHandlers(t *testing.T) (*TripHandler, *ResourceHandler, db.Store) {
	t.Helper()
	store := db.NewMemoryStore()
	transactor := fleet.NewTransactor(store)
	dispatcher := fleet.NewDispatcher(store, fleet.DefaultMaintenanceThreshold)
	orchestrator := fleet.NewOrchestrator(store, transactor, dispatcher, nil)
	return NewTripHandler(orchestrator, store), NewResourceHandler(store), store
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(data))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func seedStoreTrip(t *testing.T, store db.Store, distance float64) string {
	t.Helper()
	id, err := store.InsertTrip(context.Background(), &models.Trip{
		ScheduledDate: time.Now().Add(time.Hour),
		StartLocation: "London Depot",
		EndLocation:   "Cardiff Hub",
		Distance:      distance,
		Status:        models.TripScheduled,
	})
	require.NoError(t, err)
	return id
}

func seedStoreDriver(t *testing.T, store db.Store, available bool) string {
	t.Helper()
	id, err := store.InsertDriver(context.Background(), &models.Driver{Name: "Alex", Available: available})
	require.NoError(t, err)
	return id
}

func seedStoreVehicle(t *testing.T, store db.Store) string {
	t.Helper()
	id, err := store.InsertVehicle(context.Background(), &models.Vehicle{Make: "Ford", Model: "Transit", Available: true})
	require.NoError(t, err)
	return id
}

func TestCreateTrip(t *testing.T) {
	tripHandler, _, _ := newTestHandlers(t)

	w := postJSON(t, tripHandler.CreateTrip, "/api/trips", map[string]interface{}{
		"scheduled_date":     time.Now().Add(time.Hour),
		"start_location":     "London Depot",
		"end_location":       "Cardiff Hub",
		"distance":           42.0,
		"estimated_duration": 1.5,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var trip models.Trip
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trip))
	assert.Equal(t, models.TripScheduled, trip.Status)
	assert.Nil(t, trip.AssignedDriver)
	assert.False(t, trip.ID.IsZero())
}

func TestCreateTrip_Validation(t *testing.T) {
	tripHandler, _, _ := newTestHandlers(t)

	w := postJSON(t, tripHandler.CreateTrip, "/api/trips", map[string]interface{}{
		"start_location": "London Depot",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, tripHandler.CreateTrip, "/api/trips", map[string]interface{}{
		"start_location": "London Depot",
		"end_location":   "Cardiff Hub",
		"distance":       -1.0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/trips", bytes.NewBufferString("{bad json"))
	rec := httptest.NewRecorder()
	tripHandler.CreateTrip(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	rec = httptest.NewRecorder()
	tripHandler.CreateTrip(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAssignDriver_Endpoint(t *testing.T) {
	tripHandler, _, store := newTestHandlers(t)
	tripID := seedStoreTrip(t, store, 30)
	driverID := seedStoreDriver(t, store, true)

	w := postJSON(t, tripHandler.AssignDriver, "/api/trips/assign-driver", map[string]string{
		"trip_id": tripID, "driver_id": driverID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var res fleet.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Driver assigned successfully!", res.Message)
	require.NotNil(t, res.Trip)
	assert.Equal(t, driverID, res.Trip.AssignedDriver.DriverID)
}

func TestAssignDriver_Conflict(t *testing.T) {
	tripHandler, _, store := newTestHandlers(t)
	tripID := seedStoreTrip(t, store, 30)
	driverID := seedStoreDriver(t, store, false)

	w := postJSON(t, tripHandler.AssignDriver, "/api/trips/assign-driver", map[string]string{
		"trip_id": tripID, "driver_id": driverID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	var res fleet.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res.Message, "Failed to assign driver")
}

func TestAssignDriver_UnknownTrip(t *testing.T) {
	tripHandler, _, _ := newTestHandlers(t)

	w := postJSON(t, tripHandler.AssignDriver, "/api/trips/assign-driver", map[string]string{
		"trip_id": "65a000000000000000000000", "driver_id": "65a000000000000000000001",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartTrip_PreconditionFailed(t *testing.T) {
	tripHandler, _, store := newTestHandlers(t)
	tripID := seedStoreTrip(t, store, 30)

	w := postJSON(t, tripHandler.StartTrip, "/api/trips/start", map[string]string{"trip_id": tripID})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCompleteTrip_NoPersonnel(t *testing.T) {
	tripHandler, _, store := newTestHandlers(t)
	tripID := seedStoreTrip(t, store, 60)
	driverID := seedStoreDriver(t, store, true)
	vehicleID := seedStoreVehicle(t, store)

	w := postJSON(t, tripHandler.AssignDriver, "/api/trips/assign-driver", map[string]string{"trip_id": tripID, "driver_id": driverID})
	require.Equal(t, http.StatusOK, w.Code)
	w = postJSON(t, tripHandler.AssignVehicle, "/api/trips/assign-vehicle", map[string]string{"trip_id": tripID, "vehicle_id": vehicleID})
	require.Equal(t, http.StatusOK, w.Code)
	w = postJSON(t, tripHandler.StartTrip, "/api/trips/start", map[string]string{"trip_id": tripID})
	require.Equal(t, http.StatusOK, w.Code)

	// 120 km booked, over threshold, but the roster is empty.
	w = postJSON(t, tripHandler.CompleteTrip, "/api/trips/complete", map[string]string{"trip_id": tripID})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTripsRoute(t *testing.T) {
	tripHandler, _, store := newTestHandlers(t)
	tripID := seedStoreTrip(t, store, 30)

	// POST, GET and DELETE all live on /api/trips.
	w := postJSON(t, tripHandler.Trips, "/api/trips", map[string]interface{}{
		"scheduled_date": time.Now().Add(time.Hour),
		"start_location": "London Depot",
		"end_location":   "Cardiff Hub",
		"distance":       42.0,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/trips?id="+tripID, nil)
	rec := httptest.NewRecorder()
	tripHandler.Trips(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/trips?id="+tripID, nil)
	rec = httptest.NewRecorder()
	tripHandler.Trips(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/trips?id="+tripID, nil)
	rec = httptest.NewRecorder()
	tripHandler.Trips(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	rec = httptest.NewRecorder()
	tripHandler.Trips(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/trips", nil)
	rec = httptest.NewRecorder()
	tripHandler.Trips(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestResourceHandlers(t *testing.T) {
	_, resourceHandler, _ := newTestHandlers(t)

	w := postJSON(t, resourceHandler.Drivers, "/api/drivers", map[string]string{
		"name": "Alex", "license_number": "DL-1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, resourceHandler.Vehicles, "/api/vehicles", map[string]interface{}{
		"make": "Ford", "model": "Transit", "year": 2022, "plate": "FL-1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, resourceHandler.Personnel, "/api/personnel", map[string]string{"name": "Pat"})
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/drivers", nil)
	rec := httptest.NewRecorder()
	resourceHandler.Drivers(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var drivers []models.Driver
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drivers))
	require.Len(t, drivers, 1)
	assert.True(t, drivers[0].Available)

	req = httptest.NewRequest(http.MethodGet, "/api/personnel", nil)
	rec = httptest.NewRecorder()
	resourceHandler.Personnel(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var roster []models.MaintenancePersonnel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roster))
	require.Len(t, roster, 1)
	assert.Equal(t, int64(1), roster[0].Seq)
}

func TestResourceHandlers_Validation(t *testing.T) {
	_, resourceHandler, _ := newTestHandlers(t)

	w := postJSON(t, resourceHandler.Drivers, "/api/drivers", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, resourceHandler.Vehicles, "/api/vehicles", map[string]string{"make": "Ford"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/drivers", nil)
	rec := httptest.NewRecorder()
	resourceHandler.Drivers(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	Health(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
