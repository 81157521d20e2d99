// Dispatch simulator: seeds drivers, vehicles and maintenance personnel
// through the API, then drives random trip lifecycles (create -> assign ->
// start -> complete, with occasional abandons) so that vehicles accumulate
// distance and maintenance dispatch triggers.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var routes = []struct {
	Start string
	End   string
}{
	{"London Depot", "Cardiff Hub"},
	{"Madrid Depot", "Valencia Hub"},
	{"Berlin Depot", "Hamburg Hub"},
	{"Paris Depot", "Lyon Hub"},
	{"Istanbul Depot", "Ankara Hub"},
	{"Nicosia Depot", "Limassol Hub"},
}

var authToken string

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) post(path string, payload interface{}, out interface{}) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if out != nil && resp.StatusCode < 300 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, string(body))
	}
	return resp.StatusCode, nil
}

type createdResource struct {
	ID string `json:"id"`
}

type tripResult struct {
	Trip struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"trip"`
	Message      string `json:"message"`
	ReadyToStart bool   `json:"ready_to_start"`
}

func seedDrivers(c *apiClient, n int) ([]string, error) {
	names := []string{"Alex Mercer", "Dana Osei", "Ivan Petrov", "Mia Torres", "Sam Iqbal", "Lea Fischer"}
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var created createdResource
		_, err := c.post("/api/drivers", map[string]interface{}{
			"name":           names[i%len(names)],
			"license_number": "DL-" + uuid.NewString()[:8],
		}, &created)
		if err != nil {
			return nil, err
		}
		ids = append(ids, created.ID)
	}
	return ids, nil
}

func seedVehicles(c *apiClient, n int) ([]string, error) {
	makes := []string{"Ford", "Toyota", "Tesla", "Nissan", "BMW"}
	vmodels := []string{"Transit", "Hilux", "Model 3", "Leaf", "X5"}
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var created createdResource
		_, err := c.post("/api/vehicles", map[string]interface{}{
			"make":  makes[rand.Intn(len(makes))],
			"model": vmodels[rand.Intn(len(vmodels))],
			"year":  2020 + rand.Intn(5),
			"plate": "FL-" + uuid.NewString()[:6],
		}, &created)
		if err != nil {
			return nil, err
		}
		ids = append(ids, created.ID)
	}
	return ids, nil
}

func seedPersonnel(c *apiClient, n int) error {
	names := []string{"Pat Keller", "Noor Haddad", "Jo Lindgren"}
	for i := 0; i < n; i++ {
		if _, err := c.post("/api/personnel", map[string]interface{}{
			"name": names[i%len(names)],
		}, nil); err != nil {
			return err
		}
	}
	return nil
}

// runTripCycle drives one trip through its lifecycle. Claim losses and
// lifecycle conflicts are expected under load and only logged.
func runTripCycle(c *apiClient, driverID, vehicleID string) {
	route := routes[rand.Intn(len(routes))]
	distance := 20 + rand.Float64()*60 // 20-80 km one way

	var trip struct {
		ID string `json:"id"`
	}
	if _, err := c.post("/api/trips", map[string]interface{}{
		"scheduled_date":     time.Now().Add(time.Hour),
		"start_location":     route.Start,
		"end_location":       route.End,
		"distance":           distance,
		"estimated_duration": distance / 60,
	}, &trip); err != nil {
		log.WithError(err).Error("create trip failed")
		return
	}
	logger := log.WithField("trip_id", trip.ID)

	var res tripResult
	if _, err := c.post("/api/trips/assign-driver", map[string]string{
		"trip_id": trip.ID, "driver_id": driverID,
	}, &res); err != nil {
		logger.WithError(err).Warn("driver claim lost")
		return
	}
	if _, err := c.post("/api/trips/assign-vehicle", map[string]string{
		"trip_id": trip.ID, "vehicle_id": vehicleID,
	}, &res); err != nil {
		logger.WithError(err).Warn("vehicle claim lost, abandoning trip")
		c.post("/api/trips/abandon", map[string]string{"trip_id": trip.ID}, nil)
		return
	}

	// A dispatcher sometimes closes the screen without starting.
	if rand.Float64() < 0.1 {
		if _, err := c.post("/api/trips/abandon", map[string]string{"trip_id": trip.ID}, &res); err != nil {
			logger.WithError(err).Error("abandon failed")
			return
		}
		logger.Info(res.Message)
		return
	}

	if _, err := c.post("/api/trips/start", map[string]string{"trip_id": trip.ID}, &res); err != nil {
		logger.WithError(err).Error("start failed")
		return
	}
	if _, err := c.post("/api/trips/complete", map[string]string{"trip_id": trip.ID}, &res); err != nil {
		logger.WithError(err).Warn("complete reported an error")
		return
	}
	logger.Info(res.Message)
}

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	authToken = os.Getenv("API_TOKEN")

	numDrivers := 4
	if v := os.Getenv("NUM_DRIVERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			numDrivers = n
		}
	}
	numVehicles := 4
	if v := os.Getenv("NUM_VEHICLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			numVehicles = n
		}
	}
	cycles := 20
	if v := os.Getenv("NUM_CYCLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cycles = n
		}
	}

	client := newAPIClient(apiURL)

	drivers, err := seedDrivers(client, numDrivers)
	if err != nil {
		log.WithError(err).Fatal("failed to seed drivers")
	}
	vehicles, err := seedVehicles(client, numVehicles)
	if err != nil {
		log.WithError(err).Fatal("failed to seed vehicles")
	}
	if err := seedPersonnel(client, 3); err != nil {
		log.WithError(err).Fatal("failed to seed personnel")
	}
	log.WithFields(log.Fields{"drivers": len(drivers), "vehicles": len(vehicles)}).Info("fleet seeded")

	for i := 0; i < cycles; i++ {
		runTripCycle(client, drivers[rand.Intn(len(drivers))], vehicles[rand.Intn(len(vehicles))])
		time.Sleep(200 * time.Millisecond)
	}
	log.Info("simulation finished")
}
