package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTripStatus(t *testing.T) {
	tests := []struct {
		status TripStatus
		valid  bool
	}{
		{TripScheduled, true},
		{TripInProgress, true},
		{TripCompleted, true},
		{TripStatus("cancelled"), false},
		{TripStatus(""), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidTripStatus(tt.status), "status %q", tt.status)
	}
}

func TestTripReadyToStart(t *testing.T) {
	driver := &DriverSnapshot{DriverID: "d1", Name: "Alex"}
	vehicle := &VehicleSnapshot{VehicleID: "v1", Make: "Ford"}

	tests := []struct {
		name  string
		trip  Trip
		ready bool
	}{
		{"no assignments", Trip{Status: TripScheduled}, false},
		{"driver only", Trip{Status: TripScheduled, AssignedDriver: driver}, false},
		{"vehicle only", Trip{Status: TripScheduled, AssignedVehicle: vehicle}, false},
		{"both assigned", Trip{Status: TripScheduled, AssignedDriver: driver, AssignedVehicle: vehicle}, true},
		{"already started", Trip{Status: TripInProgress, AssignedDriver: driver, AssignedVehicle: vehicle}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ready, tt.trip.ReadyToStart())
		})
	}
}

func TestRoundTripDistance(t *testing.T) {
	trip := Trip{Distance: 60}
	assert.Equal(t, 120.0, trip.RoundTripDistance())
}
