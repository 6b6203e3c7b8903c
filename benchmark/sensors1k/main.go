package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	iotGrpc "liyu1981.xyz/iaq-telemetry-service/pkg/grpc"
	iotHttp "liyu1981.xyz/iaq-telemetry-service/pkg/http"
)

var maxSensors int = 1000
var httpHostPort string = "127.0.0.1:1080"
var grpcHostPort string = "127.0.0.1:10801"

// one owner for the whole run keeps sensor names unique per owner
var ownerID string = "bench-" + uuid.NewString()

var grpcClient *iotGrpc.TelemetryClient

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
var rndMu sync.Mutex

var failures atomic.Int64

func main() {
	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}

	fmt.Printf("http server verified\n")

	conn, err := grpc.NewClient(grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("Failed to connect to gRPC server:", err)
	}
	defer conn.Close()
	grpcClient = iotGrpc.NewTelemetryClient(conn)

	fmt.Printf("gRPC client created\n")

	var startTime time.Time
	var usedTime time.Duration

	sensorIDs := make([]string, maxSensors)
	startTime = time.Now()
	wg := sync.WaitGroup{}
	for i := range maxSensors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sensorIDs[i] = createSensor(i)
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"created %v sensors: used time=%v seconds, throughput=%v action/second\n",
		maxSensors, usedTime.Seconds(), float64(maxSensors)/usedTime.Seconds(),
	)

	startTime = time.Now()
	wg = sync.WaitGroup{}
	for i := range maxSensors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doAction(sensorIDs[i])
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\n\rdid actions for %v sensors: used time=%v seconds, throughput=%v action/second, failures=%v\n",
		maxSensors, usedTime.Seconds(), float64(maxSensors*3)/usedTime.Seconds(), failures.Load(),
	)
}

func flipCoin() bool {
	rndMu.Lock()
	defer rndMu.Unlock()
	return rnd.Int31n(100000)%2 == 0
}

func rndFloat64(min, max float64, decimal int) float64 {
	rndMu.Lock()
	val := min + rnd.Float64()*(max-min)
	rndMu.Unlock()
	multiplier := math.Pow10(decimal)
	return math.Round(val*multiplier) / multiplier
}

func ownerRequest(method, url string, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(iotHttp.HeaderOwnerID, ownerID)
	return http.DefaultClient.Do(req)
}

func createSensor(i int) string {
	resp, err := ownerRequest(http.MethodPost, fmt.Sprintf("http://%s/sensors", httpHostPort), map[string]any{
		"name": fmt.Sprintf("bench-room-%04d", i),
		"type": "scd30",
	})
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		panic(fmt.Sprintf("create sensor: status %v", resp.StatusCode))
	}
	var sensor struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sensor); err != nil {
		panic(err)
	}
	return sensor.ID
}

func doAction(sensorID string) {
	actions := []func(){
		genPostReadingAction(sensorID),
		genGetAlertsAction(sensorID),
		genGetPredictionsAction(sensorID),
	}
	actionNames := []string{
		"PostReading",
		"GetAlerts",
		"GetPredictions",
	}
	rndMu.Lock()
	rnd.Shuffle(len(actions), func(i, j int) {
		actions[i], actions[j] = actions[j], actions[i]
		actionNames[i], actionNames[j] = actionNames[j], actionNames[i]
	})
	pause := time.Duration(100+rnd.Int31n(1000)) * time.Millisecond
	rndMu.Unlock()
	for index, action := range actions {
		action()
		fmt.Printf("\rexecuted action %v for sensor %v", actionNames[index], sensorID)
		time.Sleep(pause)
	}
}

func report(action string, err error) {
	if err != nil {
		failures.Add(1)
		fmt.Printf("\n%s error: %v\n", action, err)
	}
}

func genPostReadingAction(sensorID string) func() {
	return func() {
		co2 := rndFloat64(400, 1600, 0)
		temperature := rndFloat64(16, 30, 1)
		humidity := rndFloat64(25, 85, 1)
		now := time.Now().UTC()

		if flipCoin() {
			payload, _ := json.Marshal(map[string]any{
				"co2":         co2,
				"temperature": temperature,
				"humidity":    humidity,
				"t":           now.Format(time.RFC3339),
			})
			resp, err := http.Post(fmt.Sprintf("http://%s/sensors/%s/readings", httpHostPort, sensorID), "application/json", bytes.NewBuffer(payload))
			if err != nil {
				report("PostReading", err)
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusTooManyRequests {
				report("PostReading", fmt.Errorf("status %v", resp.StatusCode))
			}
		} else {
			_, err := grpcClient.Ingest(context.Background(), &iotGrpc.IngestRequest{
				SensorID:    sensorID,
				CO2:         &co2,
				Temperature: &temperature,
				Humidity:    &humidity,
				T:           &now,
			})
			report("PostReading", err)
		}
	}
}

func genGetAlertsAction(sensorID string) func() {
	return func() {
		if flipCoin() {
			resp, err := ownerRequest(http.MethodGet, fmt.Sprintf("http://%s/alerts?sensor_id=%s", httpHostPort, sensorID), nil)
			if err != nil {
				report("GetAlerts", err)
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				report("GetAlerts", fmt.Errorf("status %v", resp.StatusCode))
			}
		} else {
			ctx := metadata.AppendToOutgoingContext(context.Background(), iotGrpc.MetadataOwnerID, ownerID)
			_, err := grpcClient.ListAlerts(ctx, &iotGrpc.AlertsRequest{SensorID: sensorID})
			report("GetAlerts", err)
		}
	}
}

func genGetPredictionsAction(sensorID string) func() {
	return func() {
		resp, err := ownerRequest(http.MethodGet, fmt.Sprintf("http://%s/predictions?sensor_id=%s", httpHostPort, sensorID), nil)
		if err != nil {
			report("GetPredictions", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			report("GetPredictions", fmt.Errorf("status %v", resp.StatusCode))
		}
	}
}
