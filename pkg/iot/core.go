package iot

//go:generate mockgen -source=core.go -destination=mocks/mock_core.go -package=mocks

import (
	"context"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

// SimulatorSettings is the single configuration record of the simulator.
type SimulatorSettings struct {
	Scenario string `json:"scenario"`
	CadenceS int    `json:"cadence_s"`
	Paused   bool   `json:"paused"`
}

type SimulatorStatus struct {
	SimulatorSettings
	Sensors      int        `json:"sensors"`
	Ticks        uint64     `json:"ticks"`
	LastTickAt   *time.Time `json:"last_tick_at,omitempty"`
	NextTickAt   *time.Time `json:"next_tick_at,omitempty"`
	ConfiguredAt time.Time  `json:"configured_at"`
}

// CoreAPI is what the transport layers call. Every call is synchronous.
type CoreAPI interface {
	Ingest(ctx context.Context, in IngestInput) (*IngestResult, error)

	ListSensors(ctx context.Context, ownerID string) ([]models.Sensor, error)
	GetSensor(ctx context.Context, ownerID, sensorID string) (*models.Sensor, error)
	CreateSensor(ctx context.Context, ownerID string, spec SensorSpec) (*models.Sensor, error)
	UpdateSensor(ctx context.Context, ownerID, sensorID string, patch SensorPatch) (*models.Sensor, error)
	DeleteSensor(ctx context.Context, ownerID, sensorID string) error
	ToggleAvailability(ctx context.Context, ownerID, sensorID string) (*models.Sensor, error)

	Latest(ctx context.Context, ownerID, sensorID string) (*models.Reading, error)
	History(ctx context.Context, ownerID, sensorID string, from, to time.Time, limit int) ([]models.Reading, error)

	Alerts(ctx context.Context, q AlertQuery) (*AlertPage, error)
	AcknowledgeAlert(ctx context.Context, ownerID, alertID string) (*CommandResult, error)
	ResolveAlert(ctx context.Context, ownerID, alertID string) (*CommandResult, error)

	Predict(ctx context.Context, ownerID, sensorID string, horizonH int) ([]Prediction, error)

	SetSimulator(ctx context.Context, settings SimulatorSettings) (*SimulatorStatus, error)
	SimulatorStatus(ctx context.Context) (*SimulatorStatus, error)
}

var _ CoreAPI = (*IOT)(nil)

func (i *IOT) ListSensors(ctx context.Context, ownerID string) ([]models.Sensor, error) {
	return i.Sensor.ListSensors(ctx, ownerID)
}

func (i *IOT) GetSensor(ctx context.Context, ownerID, sensorID string) (*models.Sensor, error) {
	return i.Sensor.GetSensor(ctx, ownerID, sensorID)
}

func (i *IOT) CreateSensor(ctx context.Context, ownerID string, spec SensorSpec) (*models.Sensor, error) {
	return i.Sensor.CreateSensor(ctx, ownerID, spec)
}

func (i *IOT) UpdateSensor(ctx context.Context, ownerID, sensorID string, patch SensorPatch) (*models.Sensor, error) {
	return i.Sensor.UpdateSensor(ctx, ownerID, sensorID, patch)
}

func (i *IOT) DeleteSensor(ctx context.Context, ownerID, sensorID string) error {
	return i.Sensor.DeleteSensor(ctx, ownerID, sensorID)
}

func (i *IOT) ToggleAvailability(ctx context.Context, ownerID, sensorID string) (*models.Sensor, error) {
	return i.Sensor.ToggleAvailability(ctx, ownerID, sensorID)
}

// Latest returns nil without error when the sensor has no readings yet.
func (i *IOT) Latest(ctx context.Context, ownerID, sensorID string) (*models.Reading, error) {
	if _, err := i.Sensor.GetSensor(ctx, ownerID, sensorID); err != nil {
		return nil, err
	}
	return i.Reading.LatestReading(ctx, sensorID)
}

func (i *IOT) History(ctx context.Context, ownerID, sensorID string, from, to time.Time, limit int) ([]models.Reading, error) {
	if _, err := i.Sensor.GetSensor(ctx, ownerID, sensorID); err != nil {
		return nil, err
	}
	return i.Reading.RangeReadings(ctx, sensorID, from, to, limit)
}

func (i *IOT) Alerts(ctx context.Context, q AlertQuery) (*AlertPage, error) {
	return i.Alert.QueryAlerts(ctx, q)
}

func (i *IOT) AcknowledgeAlert(ctx context.Context, ownerID, alertID string) (*CommandResult, error) {
	return i.Alert.AcknowledgeAlert(ctx, ownerID, alertID, ownerID)
}

func (i *IOT) ResolveAlert(ctx context.Context, ownerID, alertID string) (*CommandResult, error) {
	result, err := i.Alert.ResolveAlert(ctx, ownerID, alertID, ownerID)
	if err == nil && result.Transition != nil && i.Publisher != nil {
		if perr := i.Publisher.Publish(context.WithoutCancel(ctx), []TransitionEvent{*result.Transition}); perr != nil {
			alertLogger().Warn("Failed to publish manual resolve", zap.String("alert_id", alertID), zap.Error(perr))
		}
	}
	return result, err
}

func (i *IOT) Predict(ctx context.Context, ownerID, sensorID string, horizonH int) ([]Prediction, error) {
	return i.Forecast.Predict(ctx, ownerID, sensorID, horizonH)
}

func (i *IOT) SetSimulator(ctx context.Context, settings SimulatorSettings) (*SimulatorStatus, error) {
	if i.Simulator == nil {
		return nil, &Error{Kind: KindInternal, Message: "simulator is not running"}
	}
	return i.Simulator.Configure(ctx, settings)
}

func (i *IOT) SimulatorStatus(ctx context.Context) (*SimulatorStatus, error) {
	if i.Simulator == nil {
		return nil, &Error{Kind: KindInternal, Message: "simulator is not running"}
	}
	status := i.Simulator.Status()
	return &status, nil
}
