package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-dispatch/internal/db"
	"github.com/ukydev/fleet-dispatch/internal/models"
)

// ResourceHandler exposes driver, vehicle and maintenance personnel
// management: creation for fleet admin, and the available-resource listings
// dispatchers re-query after losing a claim.
type ResourceHandler struct {
	store db.Store
	log   *logrus.Entry
}

// NewResourceHandler creates a new resource handler.
func NewResourceHandler(store db.Store) *ResourceHandler {
	return &ResourceHandler{
		store: store,
		log:   logrus.WithField("component", "resource_handler"),
	}
}

type createDriverRequest struct {
	Name          string `json:"name"`
	LicenseNumber string `json:"license_number"`
}

type createVehicleRequest struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Plate string `json:"plate"`
}

type createPersonnelRequest struct {
	Name string `json:"name"`
}

// Drivers handles /api/drivers: POST creates a driver, GET lists available
// drivers.
func (h *ResourceHandler) Drivers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createDriverRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		driver := &models.Driver{
			Name:          req.Name,
			LicenseNumber: req.LicenseNumber,
			Available:     true,
		}
		if _, err := h.store.InsertDriver(r.Context(), driver); err != nil {
			h.log.WithError(err).Error("failed to create driver")
			http.Error(w, "Failed to create driver", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusCreated, driver)
	case http.MethodGet:
		drivers, err := h.store.FindAvailableDrivers(r.Context())
		if err != nil {
			h.log.WithError(err).Error("failed to list available drivers")
			http.Error(w, "Failed to list drivers", http.StatusBadGateway)
			return
		}
		if drivers == nil {
			drivers = []models.Driver{}
		}
		writeJSON(w, http.StatusOK, drivers)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Vehicles handles /api/vehicles: POST creates a vehicle, GET lists
// available vehicles.
func (h *ResourceHandler) Vehicles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createVehicleRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Make == "" || req.Model == "" {
			http.Error(w, "make and model are required", http.StatusBadRequest)
			return
		}
		vehicle := &models.Vehicle{
			Make:      req.Make,
			Model:     req.Model,
			Year:      req.Year,
			Plate:     req.Plate,
			Available: true,
		}
		if _, err := h.store.InsertVehicle(r.Context(), vehicle); err != nil {
			h.log.WithError(err).Error("failed to create vehicle")
			http.Error(w, "Failed to create vehicle", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusCreated, vehicle)
	case http.MethodGet:
		vehicles, err := h.store.FindAvailableVehicles(r.Context())
		if err != nil {
			h.log.WithError(err).Error("failed to list available vehicles")
			http.Error(w, "Failed to list vehicles", http.StatusBadGateway)
			return
		}
		if vehicles == nil {
			vehicles = []models.Vehicle{}
		}
		writeJSON(w, http.StatusOK, vehicles)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Personnel handles /api/personnel: POST adds a maintenance worker to the
// roster (seq is assigned by the store), GET returns the roster in
// round-robin order.
func (h *ResourceHandler) Personnel(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createPersonnelRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		personnel := &models.MaintenancePersonnel{Name: req.Name}
		if _, err := h.store.InsertPersonnel(r.Context(), personnel); err != nil {
			h.log.WithError(err).Error("failed to create personnel")
			http.Error(w, "Failed to create personnel", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusCreated, personnel)
	case http.MethodGet:
		personnel, err := h.store.FindPersonnel(r.Context())
		if err != nil {
			h.log.WithError(err).Error("failed to list personnel")
			http.Error(w, "Failed to list personnel", http.StatusBadGateway)
			return
		}
		if personnel == nil {
			personnel = []models.MaintenancePersonnel{}
		}
		writeJSON(w, http.StatusOK, personnel)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
