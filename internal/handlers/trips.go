package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-dispatch/internal/db"
	"github.com/ukydev/fleet-dispatch/internal/fleet"
	"github.com/ukydev/fleet-dispatch/internal/models"
)

// TripHandler exposes the orchestrator operations over HTTP.
type TripHandler struct {
	orchestrator *fleet.Orchestrator
	store        db.Store
	log          *logrus.Entry
}

// NewTripHandler creates a new trip handler.
func NewTripHandler(orchestrator *fleet.Orchestrator, store db.Store) *TripHandler {
	return &TripHandler{
		orchestrator: orchestrator,
		store:        store,
		log:          logrus.WithField("component", "trip_handler"),
	}
}

// assignmentRequest is the body of the assign/start/complete/abandon
// endpoints. Only TripID is required for lifecycle operations.
type assignmentRequest struct {
	TripID    string `json:"trip_id"`
	DriverID  string `json:"driver_id,omitempty"`
	VehicleID string `json:"vehicle_id,omitempty"`
}

// createTripRequest is the body of the trip creation endpoint.
type createTripRequest struct {
	ScheduledDate     time.Time `json:"scheduled_date"`
	StartLocation     string    `json:"start_location"`
	EndLocation       string    `json:"end_location"`
	Distance          float64   `json:"distance"`
	EstimatedDuration float64   `json:"estimated_duration"`
}

// statusForError maps the core error taxonomy to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fleet.ErrResourceUnavailable):
		return http.StatusConflict
	case errors.Is(err, fleet.ErrPreconditionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, fleet.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, fleet.ErrNoPersonnelAvailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, fleet.ErrStoreUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeResult(w http.ResponseWriter, res *fleet.Result, err error) {
	if err != nil {
		if res == nil {
			res = &fleet.Result{Message: err.Error()}
		}
		writeJSON(w, statusForError(err), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

// Trips handles /api/trips: POST creates a trip, GET and DELETE address one
// by its id query parameter.
func (h *TripHandler) Trips(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.CreateTrip(w, r)
	case http.MethodGet, http.MethodDelete:
		h.Trip(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// CreateTrip handles POST /api/trips. Trips are created by the dispatch UI
// in scheduled status with no assignments.
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createTripRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.StartLocation == "" || req.EndLocation == "" {
		http.Error(w, "start_location and end_location are required", http.StatusBadRequest)
		return
	}
	if req.Distance <= 0 {
		http.Error(w, "distance must be positive", http.StatusBadRequest)
		return
	}
	trip := &models.Trip{
		ScheduledDate:     req.ScheduledDate,
		StartLocation:     req.StartLocation,
		EndLocation:       req.EndLocation,
		Distance:          req.Distance,
		EstimatedDuration: req.EstimatedDuration,
		Status:            models.TripScheduled,
	}
	id, err := h.store.InsertTrip(r.Context(), trip)
	if err != nil {
		h.log.WithError(err).Error("failed to create trip")
		http.Error(w, "Failed to create trip", http.StatusBadGateway)
		return
	}
	created, err := h.store.FindTripByID(r.Context(), id)
	if err != nil {
		h.log.WithError(err).Error("failed to load created trip")
		http.Error(w, "Failed to load created trip", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Trip serves the GET and DELETE sides of /api/trips?id=. Deletion is an
// external admin action, never part of the lifecycle.
func (h *TripHandler) Trip(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id query parameter required", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		trip, err := h.store.FindTripByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				http.Error(w, "Trip not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to load trip", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, trip)
	case http.MethodDelete:
		if err := h.store.DeleteTrip(r.Context(), id); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				http.Error(w, "Trip not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to delete trip", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Trip deleted"})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// AssignDriver handles POST /api/trips/assign-driver.
func (h *TripHandler) AssignDriver(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req assignmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TripID == "" || req.DriverID == "" {
		http.Error(w, "trip_id and driver_id are required", http.StatusBadRequest)
		return
	}
	res, err := h.orchestrator.AssignDriver(r.Context(), req.TripID, req.DriverID)
	writeResult(w, res, err)
}

// AssignVehicle handles POST /api/trips/assign-vehicle.
func (h *TripHandler) AssignVehicle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req assignmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TripID == "" || req.VehicleID == "" {
		http.Error(w, "trip_id and vehicle_id are required", http.StatusBadRequest)
		return
	}
	res, err := h.orchestrator.AssignVehicle(r.Context(), req.TripID, req.VehicleID)
	writeResult(w, res, err)
}

// StartTrip handles POST /api/trips/start.
func (h *TripHandler) StartTrip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req assignmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TripID == "" {
		http.Error(w, "trip_id is required", http.StatusBadRequest)
		return
	}
	res, err := h.orchestrator.StartTrip(r.Context(), req.TripID)
	writeResult(w, res, err)
}

// CompleteTrip handles POST /api/trips/complete.
func (h *TripHandler) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req assignmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TripID == "" {
		http.Error(w, "trip_id is required", http.StatusBadRequest)
		return
	}
	res, err := h.orchestrator.CompleteTrip(r.Context(), req.TripID)
	writeResult(w, res, err)
}

// AbandonTrip handles POST /api/trips/abandon, the screen-dismissed-
// without-starting path.
func (h *TripHandler) AbandonTrip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req assignmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TripID == "" {
		http.Error(w, "trip_id is required", http.StatusBadRequest)
		return
	}
	res, err := h.orchestrator.AbandonTrip(r.Context(), req.TripID)
	writeResult(w, res, err)
}
