package main

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-dispatch/internal/config"
	"github.com/ukydev/fleet-dispatch/internal/db"
	"github.com/ukydev/fleet-dispatch/internal/events"
	"github.com/ukydev/fleet-dispatch/internal/fleet"
	"github.com/ukydev/fleet-dispatch/internal/handlers"
	"github.com/ukydev/fleet-dispatch/internal/middleware"
)

func main() {
	cfg := config.Load()

	client, err := db.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	log.Info("Connected to MongoDB successfully!")
	store := db.NewMongoStore(client, cfg.MongoDB)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.MQTTBroker != "" {
		mqttPublisher, err := events.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to MQTT broker, lifecycle events disabled")
		} else {
			publisher = mqttPublisher
			defer mqttPublisher.Close()
		}
	}

	transactor := fleet.NewTransactor(store)
	dispatcher := fleet.NewDispatcher(store, cfg.MaintenanceThreshold)
	orchestrator := fleet.NewOrchestrator(store, transactor, dispatcher, publisher)

	tripHandler := handlers.NewTripHandler(orchestrator, store)
	resourceHandler := handlers.NewResourceHandler(store)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/api/trips", tripHandler.Trips)
	mux.HandleFunc("/api/trips/assign-driver", tripHandler.AssignDriver)
	mux.HandleFunc("/api/trips/assign-vehicle", tripHandler.AssignVehicle)
	mux.HandleFunc("/api/trips/start", tripHandler.StartTrip)
	mux.HandleFunc("/api/trips/complete", tripHandler.CompleteTrip)
	mux.HandleFunc("/api/trips/abandon", tripHandler.AbandonTrip)
	mux.HandleFunc("/api/drivers", resourceHandler.Drivers)
	mux.HandleFunc("/api/vehicles", resourceHandler.Vehicles)
	mux.HandleFunc("/api/personnel", resourceHandler.Personnel)

	log.WithField("port", cfg.Port).Info("HTTP server listening")
	if err := http.ListenAndServe(":"+cfg.Port, authMiddleware.Authenticate(mux)); err != nil {
		log.WithError(err).Fatal("HTTP server failed")
	}
}
