package iot

//go:generate mockgen -source=iot.go -destination=mocks/mock_iot.go -package=mocks

import (
	"context"
	"sync"
	"time"

	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/config"
	"liyu1981.xyz/iaq-telemetry-service/pkg/db"
	"liyu1981.xyz/iaq-telemetry-service/pkg/forecast"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

// IReading is the append-only reading store.
type IReading interface {
	AppendReading(ctx context.Context, sensorID string, values ReadingValues, t time.Time) (*models.Reading, error)
	RangeReadings(ctx context.Context, sensorID string, from, to time.Time, limit int) ([]models.Reading, error)
	LatestReading(ctx context.Context, sensorID string) (*models.Reading, error)
	RecentReadings(ctx context.Context, sensorID string, n int) ([]models.Reading, error)
	DeleteReadingsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ISensor is the sensor registry. Mutations check ownership.
type ISensor interface {
	CreateSensor(ctx context.Context, ownerID string, spec SensorSpec) (*models.Sensor, error)
	ListSensors(ctx context.Context, ownerID string) ([]models.Sensor, error)
	GetSensor(ctx context.Context, ownerID, sensorID string) (*models.Sensor, error)
	UpdateSensor(ctx context.Context, ownerID, sensorID string, patch SensorPatch) (*models.Sensor, error)
	DeleteSensor(ctx context.Context, ownerID, sensorID string) error
	ToggleAvailability(ctx context.Context, ownerID, sensorID string) (*models.Sensor, error)
	SetLastRead(ctx context.Context, sensorID string, t time.Time, status models.SensorStatus) error
	LookupSensor(ctx context.Context, sensorID string) (*models.Sensor, error)
	ListSimulatedSensors(ctx context.Context) ([]models.Sensor, error)
}

// IAlert owns the alert state machine and the alert tables.
type IAlert interface {
	ProcessReading(ctx context.Context, sensor *models.Sensor, reading *models.Reading) []TransitionEvent
	AcknowledgeAlert(ctx context.Context, ownerID, alertID, actor string) (*CommandResult, error)
	ResolveAlert(ctx context.Context, ownerID, alertID, actor string) (*CommandResult, error)
	QueryAlerts(ctx context.Context, q AlertQuery) (*AlertPage, error)
	MachineState(sensorID string, metric models.Metric) MachineSnapshot
	ForgetSensor(sensorID string)
	RebuildMachine(ctx context.Context) error
	FlushLastSeen(ctx context.Context) (int, error)
}

type IForecast interface {
	Predict(ctx context.Context, ownerID, sensorID string, horizonH int) ([]Prediction, error)
}

type IRetention interface {
	Sweep(ctx context.Context) (*RetentionReport, error)
}

// ISimulator is implemented outside the core; see pkg/simulator.
type ISimulator interface {
	Configure(ctx context.Context, settings SimulatorSettings) (*SimulatorStatus, error)
	Status() SimulatorStatus
}

// Publisher fans transitions out to subscribers. Failures never undo an ingest.
type Publisher interface {
	Publish(ctx context.Context, events []TransitionEvent) error
}

type IOT struct {
	Db     db.DB
	Config config.Config
	Clock  common.Clock

	Reading   IReading
	Sensor    ISensor
	Alert     IAlert
	Forecast  IForecast
	Retention IRetention
	Simulator ISimulator
	Publisher Publisher

	primary  forecast.Model
	fallback forecast.Model

	locks   *keyedMutex
	machine *alertMachine
	// sensor id -> models.Sensor snapshot; replaced, never mutated
	sensors sync.Map
	// sensor id -> struct{} for deleted sensors; ids are never reused
	deleted sync.Map
}

type ServiceOpts struct {
	Reading   IReading
	Sensor    ISensor
	Alert     IAlert
	Forecast  IForecast
	Retention IRetention
	Simulator ISimulator
	Publisher Publisher
}

type Option func(*IOT)

func WithClock(clock common.Clock) Option {
	return func(i *IOT) { i.Clock = clock }
}

// WithPrimaryModel replaces the primary forecaster. nil leaves only the linear fallback.
func WithPrimaryModel(m forecast.Model) Option {
	return func(i *IOT) { i.primary = m }
}

func WithPublisher(p Publisher) Option {
	return func(i *IOT) { i.Publisher = p }
}

// New builds the core with its default services wired to each other.
func New(database db.DB, cfg config.Config, opts ...Option) *IOT {
	i := &IOT{
		Db:       database,
		Config:   cfg,
		Clock:    common.SystemClock(),
		primary:  forecast.NewSeasonalDaily(),
		fallback: forecast.NewLinearTail(),
		locks:    newKeyedMutex(),
		machine:  newAlertMachine(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.WithServices(ServiceOpts{
		Reading:   i.GetIReading(),
		Sensor:    i.GetISensor(),
		Alert:     i.GetIAlert(),
		Forecast:  i.GetIForecast(),
		Retention: i.GetIRetention(),
	})
	return i
}

func (i *IOT) WithServices(opts ServiceOpts) *IOT {
	if opts.Reading != nil {
		i.Reading = opts.Reading
	}
	if opts.Sensor != nil {
		i.Sensor = opts.Sensor
	}
	if opts.Alert != nil {
		i.Alert = opts.Alert
	}
	if opts.Forecast != nil {
		i.Forecast = opts.Forecast
	}
	if opts.Retention != nil {
		i.Retention = opts.Retention
	}
	if opts.Simulator != nil {
		i.Simulator = opts.Simulator
	}
	if opts.Publisher != nil {
		i.Publisher = opts.Publisher
	}
	return i
}
