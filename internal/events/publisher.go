// Package events publishes informational trip lifecycle signals. Publishing
// is fire-and-forget: a lost event never fails the operation that raised it.
package events

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-dispatch/internal/models"
)

// Topics the dispatch core publishes on.
const (
	TopicTripReady           = "fleet/trips/ready"
	TopicTripStarted         = "fleet/trips/started"
	TopicTripCompleted       = "fleet/trips/completed"
	TopicMaintenanceAssigned = "fleet/maintenance/assigned"
)

// Publisher emits lifecycle signals for UI/monitoring consumers.
type Publisher interface {
	TripReady(trip *models.Trip)
	TripStarted(trip *models.Trip)
	TripCompleted(trip *models.Trip)
	MaintenanceAssigned(vehicleID, personnelID, personnelName string)
	Close()
}

// TripEvent is the payload published for trip lifecycle topics.
type TripEvent struct {
	EventID       string    `json:"event_id"`
	TripID        string    `json:"trip_id"`
	Status        string    `json:"status"`
	StartLocation string    `json:"start_location"`
	EndLocation   string    `json:"end_location"`
	ReadyToStart  bool      `json:"ready_to_start"`
	Timestamp     time.Time `json:"timestamp"`
}

// MaintenanceEvent is the payload published when a vehicle is routed to a
// maintenance worker.
type MaintenanceEvent struct {
	EventID       string    `json:"event_id"`
	VehicleID     string    `json:"vehicle_id"`
	PersonnelID   string    `json:"personnel_id"`
	PersonnelName string    `json:"personnel_name"`
	Timestamp     time.Time `json:"timestamp"`
}

// MQTTPublisher publishes events to an MQTT broker at QoS 1.
type MQTTPublisher struct {
	client mqtt.Client
	log    *logrus.Entry
}

// NewMQTTPublisher connects to the broker and returns a Publisher. The
// client id gets a random suffix so multiple instances can share a broker.
func NewMQTTPublisher(brokerURL, clientID string) (*MQTTPublisher, error) {
	if clientID == "" {
		clientID = "fleet-dispatch"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID + "-" + uuid.NewString()[:8]).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &MQTTPublisher{
		client: client,
		log:    logrus.WithField("component", "events"),
	}, nil
}

func (p *MQTTPublisher) publish(topic string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.log.WithError(err).WithField("topic", topic).Error("failed to marshal event")
		return
	}
	token := p.client.Publish(topic, 1, false, data)
	go func() {
		if token.Wait() && token.Error() != nil {
			p.log.WithError(token.Error()).WithField("topic", topic).Warn("failed to publish event")
		}
	}()
}

func tripEvent(trip *models.Trip) TripEvent {
	return TripEvent{
		EventID:       uuid.NewString(),
		TripID:        trip.ID.Hex(),
		Status:        string(trip.Status),
		StartLocation: trip.StartLocation,
		EndLocation:   trip.EndLocation,
		ReadyToStart:  trip.ReadyToStart(),
		Timestamp:     time.Now(),
	}
}

// TripReady signals that a trip has both resources assigned.
func (p *MQTTPublisher) TripReady(trip *models.Trip) {
	p.publish(TopicTripReady, tripEvent(trip))
}

// TripStarted signals a scheduled -> in_progress transition.
func (p *MQTTPublisher) TripStarted(trip *models.Trip) {
	p.publish(TopicTripStarted, tripEvent(trip))
}

// TripCompleted signals an in_progress -> completed transition.
func (p *MQTTPublisher) TripCompleted(trip *models.Trip) {
	p.publish(TopicTripCompleted, tripEvent(trip))
}

// MaintenanceAssigned signals a vehicle-to-worker maintenance dispatch.
func (p *MQTTPublisher) MaintenanceAssigned(vehicleID, personnelID, personnelName string) {
	p.publish(TopicMaintenanceAssigned, MaintenanceEvent{
		EventID:       uuid.NewString(),
		VehicleID:     vehicleID,
		PersonnelID:   personnelID,
		PersonnelName: personnelName,
		Timestamp:     time.Now(),
	})
}

// Close disconnects from the broker, allowing in-flight publishes to drain.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// NopPublisher drops all events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) TripReady(*models.Trip)             {}
func (NopPublisher) TripStarted(*models.Trip)           {}
func (NopPublisher) TripCompleted(*models.Trip)         {}
func (NopPublisher) MaintenanceAssigned(_, _, _ string) {}
func (NopPublisher) Close()                             {}
