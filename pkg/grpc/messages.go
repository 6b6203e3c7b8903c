package grpc

import (
	"time"

	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

type IngestRequest struct {
	SensorID    string     `json:"sensor_id"`
	CO2         *float64   `json:"co2,omitempty"`
	Temperature *float64   `json:"temperature,omitempty"`
	Humidity    *float64   `json:"humidity,omitempty"`
	T           *time.Time `json:"t,omitempty"`
}

func (r *IngestRequest) GetSensorID() string { return r.SensorID }

type IngestResponse struct {
	ReadingID   uint64                `json:"reading_id"`
	Transitions []iot.TransitionEvent `json:"transitions"`
}

type AlertsRequest struct {
	Status   string     `json:"status,omitempty"`
	Kind     string     `json:"kind,omitempty"`
	SensorID string     `json:"sensor_id,omitempty"`
	Metric   string     `json:"metric,omitempty"`
	Since    *time.Time `json:"since,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

type AlertsResponse struct {
	Alerts     []models.AlertLive `json:"alerts"`
	NextOffset *int               `json:"next_offset,omitempty"`
}

type AlertCommandRequest struct {
	AlertID string `json:"alert_id"`
}

type AlertCommandResponse struct {
	Applied bool              `json:"applied"`
	Alert   *models.AlertLive `json:"alert"`
}

type PredictRequest struct {
	SensorID string `json:"sensor_id,omitempty"`
	HorizonH int    `json:"horizon_h,omitempty"`
}

type PredictResponse struct {
	Predictions []iot.Prediction `json:"predictions"`
}

type SimulatorRequest struct {
	Scenario string `json:"scenario,omitempty"`
	CadenceS int    `json:"cadence_s,omitempty"`
	Paused   bool   `json:"paused"`
}

type LimiterRequest struct {
	SensorID string  `json:"sensor_id"`
	Rate     float64 `json:"rate"`
	Burst    int     `json:"burst"`
}

func (r *LimiterRequest) GetSensorID() string { return r.SensorID }

type LimiterResponse struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}
