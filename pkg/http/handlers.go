package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

const defaultHistoryWindow = 24 * time.Hour

func invalidRequest(c *gin.Context, issues any) {
	c.JSON(http.StatusBadRequest, gin.H{"code": iot.KindInvalidInput.String(), "error": issues})
}

type ReadingRequest struct {
	CO2         *float64   `json:"co2,omitempty" zog:"co2"`
	Temperature *float64   `json:"temperature,omitempty" zog:"temperature"`
	Humidity    *float64   `json:"humidity,omitempty" zog:"humidity"`
	T           *time.Time `json:"t,omitempty" zog:"t"`
}

var readingRequestSchema = z.Struct(z.Shape{
	"CO2":         z.Ptr(z.Float64()),
	"Temperature": z.Ptr(z.Float64()),
	"Humidity":    z.Ptr(z.Float64()),
	"T":           z.Ptr(z.Time()),
})

func (rs *RestfulServer) PostReading(c *gin.Context) {
	sensorID := c.Param("sensor_id")

	if !rs.allowIngest(sensorID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	var req ReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err.Error())
		return
	}
	if issues := readingRequestSchema.Validate(&req); issues != nil {
		invalidRequest(c, issues)
		return
	}

	result, err := rs.Core.Ingest(c.Request.Context(), iot.IngestInput{
		SensorID:    sensorID,
		CO2:         req.CO2,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		T:           req.T,
	})
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reading_id": result.ReadingID, "transitions": result.Transitions})
}

type LimiterRequest struct {
	Rate  float64 `json:"rate" zog:"rate"`
	Burst int     `json:"burst" zog:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"Rate":  z.Float64().Required().GT(0),
	"Burst": z.Int().Required().GT(0),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	sensorID := c.Param("sensor_id")

	var req LimiterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err.Error())
		return
	}
	if issues := limiterRequestSchema.Validate(&req); issues != nil {
		invalidRequest(c, issues)
		return
	}

	if rs.Limiter == nil {
		c.Status(http.StatusOK)
		return
	}
	if err := rs.Limiter.Set(sensorID, iot.LimiterSettings{Rate: req.Rate, Burst: req.Burst}); err != nil {
		rs.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (rs *RestfulServer) GetLimiter(c *gin.Context) {
	if rs.Limiter == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, rs.Limiter.Settings(c.Param("sensor_id")))
}

func (rs *RestfulServer) ListSensors(c *gin.Context) {
	sensors, err := rs.Core.ListSensors(c.Request.Context(), ownerOf(c))
	if err != nil {
		rs.fail(c, err)
		return
	}
	if sensors == nil {
		sensors = []models.Sensor{}
	}
	c.JSON(http.StatusOK, sensors)
}

var sensorSpecSchema = z.Struct(z.Shape{
	"Name": z.String().Trim().Required().Max(200),
	"Type": z.String().Trim().Required(),
})

func (rs *RestfulServer) CreateSensor(c *gin.Context) {
	var spec iot.SensorSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		invalidRequest(c, err.Error())
		return
	}
	if issues := sensorSpecSchema.Validate(&spec); issues != nil {
		invalidRequest(c, issues)
		return
	}

	sensor, err := rs.Core.CreateSensor(c.Request.Context(), ownerOf(c), spec)
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sensor)
}

func (rs *RestfulServer) GetSensor(c *gin.Context) {
	sensor, err := rs.Core.GetSensor(c.Request.Context(), ownerOf(c), c.Param("sensor_id"))
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sensor)
}

func (rs *RestfulServer) UpdateSensor(c *gin.Context) {
	var patch iot.SensorPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		invalidRequest(c, err.Error())
		return
	}

	sensor, err := rs.Core.UpdateSensor(c.Request.Context(), ownerOf(c), c.Param("sensor_id"), patch)
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sensor)
}

func (rs *RestfulServer) DeleteSensor(c *gin.Context) {
	sensorID := c.Param("sensor_id")
	if err := rs.Core.DeleteSensor(c.Request.Context(), ownerOf(c), sensorID); err != nil {
		rs.fail(c, err)
		return
	}
	if rs.Limiter != nil {
		rs.Limiter.Forget(sensorID)
	}
	c.Status(http.StatusNoContent)
}

func (rs *RestfulServer) ToggleAvailability(c *gin.Context) {
	sensor, err := rs.Core.ToggleAvailability(c.Request.Context(), ownerOf(c), c.Param("sensor_id"))
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sensor)
}

func (rs *RestfulServer) GetLatest(c *gin.Context) {
	reading, err := rs.Core.Latest(c.Request.Context(), ownerOf(c), c.Param("sensor_id"))
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reading": reading})
}

type HistoryQuery struct {
	From  *time.Time `zog:"from"`
	To    *time.Time `zog:"to"`
	Limit int        `zog:"limit"`
}

var historyQuerySchema = z.Struct(z.Shape{
	"From":  z.Ptr(z.Time()),
	"To":    z.Ptr(z.Time()),
	"Limit": z.Int().GTE(0),
})

func (rs *RestfulServer) GetHistory(c *gin.Context) {
	var q HistoryQuery
	if issues := historyQuerySchema.Parse(zhttp.Request(c.Request), &q); issues != nil {
		invalidRequest(c, issues)
		return
	}
	to := time.Now().UTC()
	if q.To != nil {
		to = *q.To
	}
	from := to.Add(-defaultHistoryWindow)
	if q.From != nil {
		from = *q.From
	}

	readings, err := rs.Core.History(c.Request.Context(), ownerOf(c), c.Param("sensor_id"), from, to, q.Limit)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if readings == nil {
		readings = []models.Reading{}
	}
	c.JSON(http.StatusOK, readings)
}

type AlertsQuery struct {
	Status   string     `zog:"status"`
	Kind     string     `zog:"kind"`
	SensorID string     `zog:"sensor_id"`
	Metric   string     `zog:"metric"`
	Since    *time.Time `zog:"since"`
	Limit    int        `zog:"limit"`
	Offset   int        `zog:"offset"`
}

var alertsQuerySchema = z.Struct(z.Shape{
	"Status":   z.String().Trim(),
	"Kind":     z.String().Trim(),
	"SensorID": z.String().Trim(),
	"Metric":   z.String().Trim(),
	"Since":    z.Ptr(z.Time()),
	"Limit":    z.Int().GTE(0),
	"Offset":   z.Int().GTE(0),
})

func (rs *RestfulServer) GetAlerts(c *gin.Context) {
	var q AlertsQuery
	if issues := alertsQuerySchema.Parse(zhttp.Request(c.Request), &q); issues != nil {
		invalidRequest(c, issues)
		return
	}

	page, err := rs.Core.Alerts(c.Request.Context(), iot.AlertQuery{
		OwnerID:  ownerOf(c),
		Status:   models.AlertStatus(q.Status),
		Kind:     models.AlertKind(q.Kind),
		SensorID: q.SensorID,
		Metric:   models.Metric(q.Metric),
		Since:    q.Since,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		rs.fail(c, err)
		return
	}
	if page.Alerts == nil {
		page.Alerts = []models.AlertLive{}
	}
	c.JSON(http.StatusOK, page)
}

// commandResponse reports a rejected command as a no-op carrying the alert.
func (rs *RestfulServer) commandResponse(c *gin.Context, result *iot.CommandResult, err error) {
	if err != nil {
		if iot.KindOf(err) == iot.KindConflict && result != nil {
			body := errorBody(err)
			body["applied"] = false
			body["alert"] = result.Alert
			c.JSON(http.StatusConflict, body)
			return
		}
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (rs *RestfulServer) AcknowledgeAlert(c *gin.Context) {
	result, err := rs.Core.AcknowledgeAlert(c.Request.Context(), ownerOf(c), c.Param("alert_id"))
	rs.commandResponse(c, result, err)
}

func (rs *RestfulServer) ResolveAlert(c *gin.Context) {
	result, err := rs.Core.ResolveAlert(c.Request.Context(), ownerOf(c), c.Param("alert_id"))
	rs.commandResponse(c, result, err)
}

type PredictionQuery struct {
	SensorID string `zog:"sensor_id"`
	HorizonH int    `zog:"horizon_h"`
}

var predictionQuerySchema = z.Struct(z.Shape{
	"SensorID": z.String().Trim(),
	"HorizonH": z.Int().GTE(0),
})

func (rs *RestfulServer) GetPredictions(c *gin.Context) {
	var q PredictionQuery
	if issues := predictionQuerySchema.Parse(zhttp.Request(c.Request), &q); issues != nil {
		invalidRequest(c, issues)
		return
	}

	predictions, err := rs.Core.Predict(c.Request.Context(), ownerOf(c), q.SensorID, q.HorizonH)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if predictions == nil {
		predictions = []iot.Prediction{}
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

type SimulatorRequest struct {
	Scenario string `json:"scenario" zog:"scenario"`
	CadenceS int    `json:"cadence_s" zog:"cadence_s"`
	Paused   bool   `json:"paused" zog:"paused"`
}

var simulatorRequestSchema = z.Struct(z.Shape{
	"Scenario": z.String().Trim(),
	"CadenceS": z.Int().GTE(0),
	"Paused":   z.Bool(),
})

func (rs *RestfulServer) PutSimulator(c *gin.Context) {
	var req SimulatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err.Error())
		return
	}
	if issues := simulatorRequestSchema.Validate(&req); issues != nil {
		invalidRequest(c, issues)
		return
	}

	status, err := rs.Core.SetSimulator(c.Request.Context(), iot.SimulatorSettings{
		Scenario: req.Scenario,
		CadenceS: req.CadenceS,
		Paused:   req.Paused,
	})
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (rs *RestfulServer) GetSimulator(c *gin.Context) {
	status, err := rs.Core.SimulatorStatus(c.Request.Context())
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
