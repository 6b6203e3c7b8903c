package iot

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/config"
	"liyu1981.xyz/iaq-telemetry-service/pkg/db"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
	_ "liyu1981.xyz/iaq-telemetry-service/pkg/testing"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

// newTestIOT returns a core over its own in-memory database, driven by a
// manual clock starting at testNow.
func newTestIOT(t *testing.T, opts ...Option) (*IOT, *common.ManualClock) {
	t.Helper()

	database, err := db.Open(db.UseIsolatedMemorySqliteDialector())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	clock := common.NewManualClock(testNow)
	return New(*database, config.Default(), append([]Option{WithClock(clock)}, opts...)...), clock
}

func createTestSensor(t *testing.T, i *IOT, ownerID string, spec SensorSpec) *models.Sensor {
	t.Helper()
	if spec.Name == "" {
		spec.Name = "sensor-" + uuid.NewString()[:8]
	}
	if spec.Type == "" {
		spec.Type = models.SensorTypeSCD30
	}
	s, err := i.CreateSensor(context.Background(), ownerID, spec)
	require.NoError(t, err)
	return s
}

// ingestCO2 ingests each value one minute apart and returns the transitions
// produced by each reading.
func ingestCO2(t *testing.T, i *IOT, clock *common.ManualClock, sensorID string, values ...float64) [][]TransitionEvent {
	t.Helper()
	var out [][]TransitionEvent
	for _, v := range values {
		clock.Advance(time.Minute)
		res, err := i.Ingest(context.Background(), IngestInput{SensorID: sensorID, CO2: common.Ptr(v)})
		require.NoError(t, err)
		out = append(out, res.Transitions)
	}
	return out
}

func liveAlerts(t *testing.T, i *IOT, sensorID string) []models.AlertLive {
	t.Helper()
	var rows []models.AlertLive
	require.NoError(t, i.Db.Conn.Where("sensor_id = ?", sensorID).Order("opened_at asc").Find(&rows).Error)
	return rows
}

func historyRows(t *testing.T, i *IOT, sensorID string) []models.AlertHistory {
	t.Helper()
	var rows []models.AlertHistory
	require.NoError(t, i.Db.Conn.Where("sensor_id = ?", sensorID).Order("id asc").Find(&rows).Error)
	return rows
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}

func findLog(logs []any, match func(map[string]any) bool) bool {
	for _, l := range logs {
		if obj, ok := l.(map[string]any); ok && match(obj) {
			return true
		}
	}
	return false
}
