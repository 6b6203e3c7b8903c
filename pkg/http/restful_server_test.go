package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"liyu1981.xyz/iaq-telemetry-service/pkg/iot/mocks"
	_ "liyu1981.xyz/iaq-telemetry-service/pkg/testing"

	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/config"
	"liyu1981.xyz/iaq-telemetry-service/pkg/db"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestServer(t *testing.T) *RestfulServer {
	t.Helper()
	common.SetTestLoggerNop()

	database, err := db.Open(db.UseIsolatedMemorySqliteDialector())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	rs := &RestfulServer{
		Server: gin.New(),
		Core:   iot.New(*database, config.Default()),
		// no limiter by default; tests that need one assign rs.Limiter
	}
	rs.Setup()
	return rs
}

func setupMockServer(t *testing.T) (*RestfulServer, *mocks.MockCoreAPI) {
	t.Helper()
	common.SetTestLoggerNop()

	core := mocks.NewMockCoreAPI(gomock.NewController(t))
	rs := &RestfulServer{Server: gin.New(), Core: core}
	rs.Setup()
	return rs, core
}

func do(rs *RestfulServer, method, path, ownerID string, body any) *httptest.ResponseRecorder {
	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		payload, _ = json.Marshal(b)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ownerID != "" {
		req.Header.Set(HeaderOwnerID, ownerID)
	}
	w := httptest.NewRecorder()
	rs.Server.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	rs := setupTestServer(t)

	w := do(rs, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	rs := setupTestServer(t)

	w := do(rs, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "iaq_forecast_timeouts_total")
}

func TestSensorReadingAlertFlow(t *testing.T) {
	rs := setupTestServer(t)

	w := do(rs, http.MethodPost, "/sensors", "alice", map[string]any{"name": "Office", "type": "scd30"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sensor := decode[models.Sensor](t, w)
	assert.Equal(t, "alice", sensor.OwnerID)

	w = do(rs, http.MethodPost, "/sensors/"+sensor.ID+"/readings", "", map[string]any{"co2": 1100, "temperature": 22.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ingest := decode[struct {
		ReadingID   uint64                `json:"reading_id"`
		Transitions []iot.TransitionEvent `json:"transitions"`
	}](t, w)
	assert.NotZero(t, ingest.ReadingID)
	require.Len(t, ingest.Transitions, 1)
	assert.Equal(t, iot.StateOpenWarn, ingest.Transitions[0].To)

	w = do(rs, http.MethodGet, "/alerts?status=open", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[iot.AlertPage](t, w)
	require.Len(t, page.Alerts, 1)
	alertID := page.Alerts[0].ID

	w = do(rs, http.MethodPost, "/alerts/"+alertID+"/ack", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[iot.CommandResult](t, w).Applied)

	w = do(rs, http.MethodPost, "/alerts/"+alertID+"/resolve", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(rs, http.MethodPost, "/alerts/"+alertID+"/resolve", "alice", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	conflict := decode[map[string]any](t, w)
	assert.Equal(t, "conflict", conflict["code"])
	assert.Equal(t, false, conflict["applied"])
	assert.Equal(t, "resolved", conflict["state"])

	w = do(rs, http.MethodGet, "/sensors/"+sensor.ID+"/latest", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	latest := decode[struct {
		Reading models.Reading `json:"reading"`
	}](t, w)
	assert.Equal(t, 1100.0, *latest.Reading.CO2)
	assert.Nil(t, latest.Reading.Humidity)

	w = do(rs, http.MethodGet, "/sensors/"+sensor.ID+"/history?limit=10", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Reading](t, w), 1)

	w = do(rs, http.MethodGet, "/sensors/"+sensor.ID, "mallory", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(rs, http.MethodDelete, "/sensors/"+sensor.ID, "mallory", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(rs, http.MethodDelete, "/sensors/"+sensor.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(rs, http.MethodGet, "/sensors/"+sensor.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_sensor", decode[map[string]any](t, w)["code"])
}

func TestCreateSensorEdgeCases(t *testing.T) {
	rs := setupTestServer(t)

	{
		// name and type are required
		w := do(rs, http.MethodPost, "/sensors", "alice", "{}")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	{
		w := do(rs, http.MethodPost, "/sensors", "alice", "not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	{
		w := do(rs, http.MethodPost, "/sensors", "alice", map[string]any{"name": "Lab", "type": "mhz19"})
		require.Equal(t, http.StatusCreated, w.Code)
		w = do(rs, http.MethodPost, "/sensors", "alice", map[string]any{"name": "Lab", "type": "mhz19"})
		assert.Equal(t, http.StatusConflict, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, "duplicate_name", body["code"])
		assert.Equal(t, "Lab", body["name"])
	}

	{
		w := do(rs, http.MethodPost, "/sensors", "alice", map[string]any{
			"name":       "Cellar",
			"type":       "bme680",
			"thresholds": map[string]any{"temp_min": 30, "temp_max": 20},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestRequireOwner(t *testing.T) {
	rs, _ := setupMockServer(t)

	for _, path := range []string{"/sensors", "/alerts", "/predictions"} {
		w := do(rs, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestPostReadingEdgeCases(t *testing.T) {
	{
		rs, _ := setupMockServer(t)
		// a value that is not a number never reaches the core
		w := do(rs, http.MethodPost, "/sensors/s1/readings", "", `{"co2":"lots"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	{
		rs := setupTestServer(t)
		w := do(rs, http.MethodPost, "/sensors", "alice", map[string]any{"name": "Office", "type": "scd30"})
		sensor := decode[models.Sensor](t, w)

		w = do(rs, http.MethodPost, "/sensors/"+sensor.ID+"/readings", "", map[string]any{"co2": -5})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(rs, http.MethodPost, "/sensors/"+sensor.ID+"/readings", "", "{}")
		assert.Equal(t, http.StatusBadRequest, w.Code, "at least one metric is required")

		stale := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
		w = do(rs, http.MethodPost, "/sensors/"+sensor.ID+"/readings", "", map[string]any{"co2": 500, "t": stale})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(rs, http.MethodPost, "/sensors/missing/readings", "", map[string]any{"co2": 500})
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
}

func TestPostReadingStoresSubmittedValues(t *testing.T) {
	rs := setupTestServer(t)

	w := do(rs, http.MethodPost, "/sensors", "alice", map[string]any{"name": "Nursery", "type": "scd30"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sensor := decode[models.Sensor](t, w)

	at := time.Now().UTC().Add(-time.Minute).Truncate(time.Second)
	w = do(rs, http.MethodPost, "/sensors/"+sensor.ID+"/readings", "",
		fmt.Sprintf(`{"co2":812.5,"temperature":21.25,"humidity":44,"t":%q}`, at.Format(time.RFC3339)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(rs, http.MethodGet, "/sensors/"+sensor.ID+"/latest", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	latest := decode[struct {
		Reading models.Reading `json:"reading"`
	}](t, w)
	require.NotNil(t, latest.Reading.CO2)
	require.NotNil(t, latest.Reading.Temperature)
	require.NotNil(t, latest.Reading.Humidity)
	assert.Equal(t, 812.5, *latest.Reading.CO2)
	assert.Equal(t, 21.25, *latest.Reading.Temperature)
	assert.Equal(t, 44.0, *latest.Reading.Humidity)
	assert.True(t, at.Equal(latest.Reading.T), "client timestamp is kept")

	// a partial reading leaves the missing metrics empty
	w = do(rs, http.MethodPost, "/sensors/"+sensor.ID+"/readings", "", map[string]any{"humidity": 51.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(rs, http.MethodGet, "/sensors/"+sensor.ID+"/latest", "alice", nil)
	latest = decode[struct {
		Reading models.Reading `json:"reading"`
	}](t, w)
	require.NotNil(t, latest.Reading.Humidity)
	assert.Equal(t, 51.5, *latest.Reading.Humidity)
	assert.Nil(t, latest.Reading.CO2)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	cases := map[iot.Kind]int{
		iot.KindUnknownSensor: http.StatusNotFound,
		iot.KindUnknownAlert:  http.StatusNotFound,
		iot.KindUnauthorized:  http.StatusForbidden,
		iot.KindDuplicateName: http.StatusConflict,
		iot.KindInvalidInput:  http.StatusBadRequest,
		iot.KindConflict:      http.StatusConflict,
		iot.KindTransient:     http.StatusServiceUnavailable,
		iot.KindInternal:      http.StatusInternalServerError,
	}
	for kind, status := range cases {
		rs, core := setupMockServer(t)
		core.EXPECT().ListSensors(gomock.Any(), "alice").Return(nil, &iot.Error{Kind: kind, Message: "boom"})

		w := do(rs, http.MethodGet, "/sensors", "alice", nil)
		assert.Equal(t, status, w.Code, kind.String())
		assert.Equal(t, kind.String(), decode[map[string]any](t, w)["code"])
	}

	// anything that is not a core error is internal and hides its message
	rs, core := setupMockServer(t)
	core.EXPECT().ListSensors(gomock.Any(), "alice").Return(nil, errors.New("secret detail"))
	w := do(rs, http.MethodGet, "/sensors", "alice", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret detail")
}

func TestInternalErrorCarriesCorrelationID(t *testing.T) {
	rs, core := setupMockServer(t)
	core.EXPECT().Predict(gomock.Any(), "alice", "s1", 12).
		Return(nil, &iot.Error{Kind: iot.KindInternal, Message: "internal error", CorrelationID: "c0ffee"})

	w := do(rs, http.MethodGet, "/predictions?sensor_id=s1&horizon_h=12", "alice", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "c0ffee", decode[map[string]any](t, w)["correlation_id"])
}

func TestGetPredictions(t *testing.T) {
	{
		rs, core := setupMockServer(t)
		core.EXPECT().Predict(gomock.Any(), "alice", "", 0).Return(nil, nil)

		w := do(rs, http.MethodGet, "/predictions", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"predictions":[]}`, w.Body.String())
	}

	{
		rs, core := setupMockServer(t)
		core.EXPECT().Predict(gomock.Any(), "alice", "s1", 6).Return([]iot.Prediction{{
			ID:         "p1",
			SensorID:   "s1",
			Metric:     models.MetricCO2,
			Likelihood: 80,
			Impact:     iot.ImpactMedium,
		}}, nil)

		w := do(rs, http.MethodGet, "/predictions?sensor_id=s1&horizon_h=6", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode[struct {
			Predictions []iot.Prediction `json:"predictions"`
		}](t, w)
		require.Len(t, body.Predictions, 1)
		assert.Equal(t, "p1", body.Predictions[0].ID)
	}
}

func TestGetAlertsPassesFilters(t *testing.T) {
	rs, core := setupMockServer(t)
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	core.EXPECT().Alerts(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, q iot.AlertQuery) (*iot.AlertPage, error) {
		assert.Equal(t, "alice", q.OwnerID)
		assert.Equal(t, models.AlertStatusOpen, q.Status)
		assert.Equal(t, models.AlertKindCritical, q.Kind)
		assert.Equal(t, "s1", q.SensorID)
		assert.Equal(t, 5, q.Limit)
		assert.Equal(t, 10, q.Offset)
		require.NotNil(t, q.Since)
		assert.True(t, since.Equal(*q.Since))
		return &iot.AlertPage{}, nil
	})

	w := do(rs, http.MethodGet, "/alerts?status=open&kind=critical&sensor_id=s1&limit=5&offset=10&since=2026-03-01T00:00:00Z", "alice", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", string(decode[map[string]json.RawMessage](t, w)["alerts"]))
}

func TestPostReadingWithLimiter(t *testing.T) {
	rs, core := setupMockServer(t)
	rs.Limiter = iot.NewIngestLimiter(2, 2)
	core.EXPECT().Ingest(gomock.Any(), gomock.Any()).
		Return(&iot.IngestResult{ReadingID: 1, Transitions: []iot.TransitionEvent{}}, nil).
		Times(3)

	// 3 requests in quick succession; only 2 fit the burst
	for i := range 3 {
		w := do(rs, http.MethodPost, "/sensors/s1/readings", "", map[string]any{"co2": 500})
		if i < 2 {
			require.Equal(t, http.StatusOK, w.Code, "request %d should be allowed", i+1)
		} else {
			require.Equal(t, http.StatusTooManyRequests, w.Code, "request %d should be rate limited", i+1)
		}
	}

	w := do(rs, http.MethodPost, "/sensors/s1/limiter", "", LimiterRequest{Rate: 10, Burst: 5})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(rs, http.MethodGet, "/sensors/s1/limiter", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, iot.LimiterSettings{Rate: 10, Burst: 5}, decode[iot.LimiterSettings](t, w))

	w = do(rs, http.MethodPost, "/sensors/s1/readings", "", map[string]any{"co2": 500})
	require.Equal(t, http.StatusOK, w.Code, "a new limiter starts with a full bucket")

	// other sensors keep the default
	w = do(rs, http.MethodGet, "/sensors/s2/limiter", "", nil)
	assert.Equal(t, iot.LimiterSettings{Rate: 2, Burst: 2}, decode[iot.LimiterSettings](t, w))
}

func TestPostLimiterEdgeCases(t *testing.T) {
	rs, _ := setupMockServer(t)
	rs.Limiter = iot.NewIngestLimiter(2, 2)

	w := do(rs, http.MethodPost, "/sensors/s1/limiter", "", "{}")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(rs, http.MethodPost, "/sensors/s1/limiter", "", LimiterRequest{Rate: -1, Burst: 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// without a limiter the request is accepted and has no effect
	rs.Limiter = nil
	w = do(rs, http.MethodPost, "/sensors/s1/limiter", "", LimiterRequest{Rate: 2, Burst: 2})
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(rs, http.MethodGet, "/sensors/s1/limiter", "", nil)
	assert.JSONEq(t, `{"enabled":false}`, w.Body.String())
}

func TestSimulatorAdmin(t *testing.T) {
	rs, core := setupMockServer(t)
	rs.AdminToken = "s3cret"

	w := do(rs, http.MethodGet, "/admin/simulator", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	core.EXPECT().SetSimulator(gomock.Any(), iot.SimulatorSettings{Scenario: "occupancy", CadenceS: 5}).
		Return(&iot.SimulatorStatus{SimulatorSettings: iot.SimulatorSettings{Scenario: "occupancy", CadenceS: 5}}, nil)

	body, _ := json.Marshal(SimulatorRequest{Scenario: "occupancy", CadenceS: 5})
	req := httptest.NewRequest(http.MethodPut, "/admin/simulator", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderAdminToken, "s3cret")
	w = httptest.NewRecorder()
	rs.Server.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	status := decode[iot.SimulatorStatus](t, w)
	assert.Equal(t, "occupancy", status.Scenario)
	assert.Equal(t, 5, status.CadenceS)
}

func TestSimulatorAdminWithoutToken(t *testing.T) {
	rs, core := setupMockServer(t)
	core.EXPECT().SimulatorStatus(gomock.Any()).Return(nil, &iot.Error{Kind: iot.KindInternal, Message: "simulator is not running"})

	w := do(rs, http.MethodGet, "/admin/simulator", "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
