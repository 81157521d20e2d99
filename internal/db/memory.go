package db

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-dispatch/internal/models"
)

type memTxnKey struct{}

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store used by tests and the local simulator.
// Documents are held as raw BSON so reads always return independent copies.
//
// Transactions take a store-wide lock, which is strictly stronger than the
// optimistic serialization MongoDB provides: concurrent claims are fully
// serialized and a failed transaction rolls back to the pre-state snapshot.
type MemoryStore struct {
	mu          chan struct{} // held for the duration of a transaction
	collections map[string]map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		mu:          make(chan struct{}, 1),
		collections: make(map[string]map[string][]byte),
	}
	for _, name := range []string{TripsCollection, DriversCollection, VehiclesCollection, PersonnelCollection, DispatchStateCollection} {
		s.collections[name] = make(map[string][]byte)
	}
	return s
}

// acquire takes the store lock unless the context already runs inside a
// transaction, which holds it for the whole callback.
func (s *MemoryStore) acquire(ctx context.Context) func() {
	if ctx.Value(memTxnKey{}) != nil {
		return func() {}
	}
	s.mu <- struct{}{}
	return func() { <-s.mu }
}

func (s *MemoryStore) snapshot() map[string]map[string][]byte {
	snap := make(map[string]map[string][]byte, len(s.collections))
	for name, coll := range s.collections {
		cp := make(map[string][]byte, len(coll))
		for id, raw := range coll {
			cp[id] = raw
		}
		snap[name] = cp
	}
	return snap
}

// WithTransaction runs fn under the store lock. If fn returns an error the
// pre-transaction snapshot is restored, so a failed transaction never
// partially applies. Nested calls join the enclosing transaction.
func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxnKey{}) != nil {
		return fn(ctx)
	}
	s.mu <- struct{}{}
	defer func() { <-s.mu }()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, memTxnKey{}, true)); err != nil {
		s.collections = snap
		return err
	}
	return nil
}

func (s *MemoryStore) insert(ctx context.Context, collection, id string, doc interface{}) (string, error) {
	defer s.acquire(ctx)()
	raw, err := bson.Marshal(doc)
	if err != nil {
		return "", err
	}
	s.collections[collection][id] = raw
	return id, nil
}

func (s *MemoryStore) find(ctx context.Context, collection, id string, out interface{}) error {
	defer s.acquire(ctx)()
	raw, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	return bson.Unmarshal(raw, out)
}

func (s *MemoryStore) updateFields(ctx context.Context, collection, id string, fields Fields) error {
	defer s.acquire(ctx)()
	raw, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for k, v := range fields {
		if v == nil {
			delete(doc, k)
		} else {
			doc[k] = v
		}
	}
	doc["updated_at"] = time.Now()
	updated, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	s.collections[collection][id] = updated
	return nil
}

// InsertTrip inserts a trip document and returns its id.
func (s *MemoryStore) InsertTrip(ctx context.Context, trip *models.Trip) (string, error) {
	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	trip.CreatedAt = time.Now()
	trip.UpdatedAt = time.Now()
	return s.insert(ctx, TripsCollection, trip.ID.Hex(), trip)
}

// FindTripByID finds a trip by its id.
func (s *MemoryStore) FindTripByID(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	if err := s.find(ctx, TripsCollection, id, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// UpdateTripFields applies a partial update to a trip document.
func (s *MemoryStore) UpdateTripFields(ctx context.Context, id string, fields Fields) error {
	return s.updateFields(ctx, TripsCollection, id, fields)
}

// DeleteTrip deletes a trip by its id.
func (s *MemoryStore) DeleteTrip(ctx context.Context, id string) error {
	defer s.acquire(ctx)()
	if _, ok := s.collections[TripsCollection][id]; !ok {
		return ErrNotFound
	}
	delete(s.collections[TripsCollection], id)
	return nil
}

// InsertDriver inserts a driver document and returns its id.
func (s *MemoryStore) InsertDriver(ctx context.Context, driver *models.Driver) (string, error) {
	if driver.ID.IsZero() {
		driver.ID = primitive.NewObjectID()
	}
	driver.CreatedAt = time.Now()
	driver.UpdatedAt = time.Now()
	return s.insert(ctx, DriversCollection, driver.ID.Hex(), driver)
}

// FindDriverByID finds a driver by its id.
func (s *MemoryStore) FindDriverByID(ctx context.Context, id string) (*models.Driver, error) {
	var driver models.Driver
	if err := s.find(ctx, DriversCollection, id, &driver); err != nil {
		return nil, err
	}
	return &driver, nil
}

// FindAvailableDrivers returns all drivers with available=true.
func (s *MemoryStore) FindAvailableDrivers(ctx context.Context) ([]models.Driver, error) {
	defer s.acquire(ctx)()
	var drivers []models.Driver
	for _, raw := range s.collections[DriversCollection] {
		var d models.Driver
		if err := bson.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		if d.Available {
			drivers = append(drivers, d)
		}
	}
	return drivers, nil
}

// UpdateDriverFields applies a partial update to a driver document.
func (s *MemoryStore) UpdateDriverFields(ctx context.Context, id string, fields Fields) error {
	return s.updateFields(ctx, DriversCollection, id, fields)
}

// InsertVehicle inserts a vehicle document and returns its id.
func (s *MemoryStore) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) (string, error) {
	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	vehicle.CreatedAt = time.Now()
	vehicle.UpdatedAt = time.Now()
	return s.insert(ctx, VehiclesCollection, vehicle.ID.Hex(), vehicle)
}

// FindVehicleByID finds a vehicle by its id.
func (s *MemoryStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := s.find(ctx, VehiclesCollection, id, &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// FindAvailableVehicles returns all vehicles with available=true.
func (s *MemoryStore) FindAvailableVehicles(ctx context.Context) ([]models.Vehicle, error) {
	defer s.acquire(ctx)()
	var vehicles []models.Vehicle
	for _, raw := range s.collections[VehiclesCollection] {
		var v models.Vehicle
		if err := bson.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v.Available {
			vehicles = append(vehicles, v)
		}
	}
	return vehicles, nil
}

// UpdateVehicleFields applies a partial update to a vehicle document.
func (s *MemoryStore) UpdateVehicleFields(ctx context.Context, id string, fields Fields) error {
	return s.updateFields(ctx, VehiclesCollection, id, fields)
}

// IncVehicleDistance adds delta to the vehicle's cumulative totalDistance.
func (s *MemoryStore) IncVehicleDistance(ctx context.Context, id string, delta float64) error {
	defer s.acquire(ctx)()
	raw, ok := s.collections[VehiclesCollection][id]
	if !ok {
		return ErrNotFound
	}
	var vehicle models.Vehicle
	if err := bson.Unmarshal(raw, &vehicle); err != nil {
		return err
	}
	vehicle.TotalDistance += delta
	vehicle.UpdatedAt = time.Now()
	updated, err := bson.Marshal(&vehicle)
	if err != nil {
		return err
	}
	s.collections[VehiclesCollection][id] = updated
	return nil
}

// InsertPersonnel inserts a maintenance worker, assigning a seq ordering key
// when the record does not carry one.
func (s *MemoryStore) InsertPersonnel(ctx context.Context, personnel *models.MaintenancePersonnel) (string, error) {
	if personnel.ID.IsZero() {
		personnel.ID = primitive.NewObjectID()
	}
	personnel.CreatedAt = time.Now()
	personnel.UpdatedAt = time.Now()
	if personnel.AssignedVehicles == nil {
		personnel.AssignedVehicles = []string{}
	}
	if personnel.Seq == 0 {
		seq, err := s.nextSeq(ctx, "personnel_seq")
		if err != nil {
			return "", err
		}
		personnel.Seq = seq + 1
	}
	return s.insert(ctx, PersonnelCollection, personnel.ID.Hex(), personnel)
}

// FindPersonnel returns the maintenance roster ordered by seq.
func (s *MemoryStore) FindPersonnel(ctx context.Context) ([]models.MaintenancePersonnel, error) {
	defer s.acquire(ctx)()
	var personnel []models.MaintenancePersonnel
	for _, raw := range s.collections[PersonnelCollection] {
		var p models.MaintenancePersonnel
		if err := bson.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		personnel = append(personnel, p)
	}
	sort.Slice(personnel, func(i, j int) bool { return personnel[i].Seq < personnel[j].Seq })
	return personnel, nil
}

// AppendAssignedVehicle adds a vehicle id to the worker's assigned set.
func (s *MemoryStore) AppendAssignedVehicle(ctx context.Context, personnelID, vehicleID string) error {
	defer s.acquire(ctx)()
	raw, ok := s.collections[PersonnelCollection][personnelID]
	if !ok {
		return ErrNotFound
	}
	var p models.MaintenancePersonnel
	if err := bson.Unmarshal(raw, &p); err != nil {
		return err
	}
	if !p.HasVehicle(vehicleID) {
		p.AssignedVehicles = append(p.AssignedVehicles, vehicleID)
	}
	p.UpdatedAt = time.Now()
	updated, err := bson.Marshal(&p)
	if err != nil {
		return err
	}
	s.collections[PersonnelCollection][personnelID] = updated
	return nil
}

// NextMaintenanceSeq increments and returns the round-robin counter. Like
// the MongoDB implementation it lives in the dispatch_state collection, so
// a transaction rollback also rolls the counter back.
func (s *MemoryStore) NextMaintenanceSeq(ctx context.Context) (int64, error) {
	return s.nextSeq(ctx, "maintenance_round_robin")
}

func (s *MemoryStore) nextSeq(ctx context.Context, name string) (int64, error) {
	defer s.acquire(ctx)()
	var state struct {
		Counter int64 `bson:"counter"`
	}
	if raw, ok := s.collections[DispatchStateCollection][name]; ok {
		if err := bson.Unmarshal(raw, &state); err != nil {
			return 0, err
		}
	}
	seq := state.Counter
	state.Counter++
	raw, err := bson.Marshal(&state)
	if err != nil {
		return 0, err
	}
	s.collections[DispatchStateCollection][name] = raw
	return seq, nil
}
