// Package simulator produces synthetic readings for sensors of kind
// simulation. Readings go through the same ingest path as real ones.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/config"
	"liyu1981.xyz/iaq-telemetry-service/pkg/db"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
	"liyu1981.xyz/iaq-telemetry-service/pkg/metrics"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

const (
	stateRowID          = 1
	defaultAnomalyEvery = 2 * time.Hour
)

type SensorSource interface {
	ListSimulatedSensors(ctx context.Context) ([]models.Sensor, error)
}

type Sink interface {
	Ingest(ctx context.Context, in iot.IngestInput) (*iot.IngestResult, error)
}

// settings is replaced as a whole on every Configure; ticks load it once.
type settings struct {
	iot.SimulatorSettings
	configuredAt time.Time
}

type Simulator struct {
	db           db.DB
	sensors      SensorSource
	sink         Sink
	clock        common.Clock
	anomalyEvery time.Duration

	current atomic.Pointer[settings]
	writeMu sync.Mutex
	wake    chan struct{}

	tickMu sync.Mutex
	rnd    *rand.Rand
	states map[string]*sensorState

	ticks      atomic.Uint64
	active     atomic.Int64
	lastTickAt atomic.Pointer[time.Time]
	nextTickAt atomic.Pointer[time.Time]
}

var _ iot.ISimulator = (*Simulator)(nil)

type Option func(*Simulator)

func WithClock(clock common.Clock) Option {
	return func(s *Simulator) { s.clock = clock }
}

// WithSeed makes the generators reproducible.
func WithSeed(seed int64) Option {
	return func(s *Simulator) { s.rnd = rand.New(rand.NewSource(seed)) }
}

// WithAnomalyEvery sets how often the anomaly scenario spikes.
func WithAnomalyEvery(d time.Duration) Option {
	return func(s *Simulator) {
		if d > 0 {
			s.anomalyEvery = d
		}
	}
}

func simulatorLogger() *zap.Logger {
	return common.GetCoreLogger(common.LoggerCategoryIOTSimulator)
}

func New(database db.DB, sensors SensorSource, sink Sink, cfg config.Config, opts ...Option) *Simulator {
	s := &Simulator{
		db:           database,
		sensors:      sensors,
		sink:         sink,
		clock:        common.SystemClock(),
		anomalyEvery: defaultAnomalyEvery,
		wake:         make(chan struct{}, 1),
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
		states:       map[string]*sensorState{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&settings{
		SimulatorSettings: iot.SimulatorSettings{Scenario: ScenarioBaseline, CadenceS: cfg.SimulatorCadenceS},
		configuredAt:      s.clock.Now(),
	})
	return s
}

// Restore loads the persisted settings, if any. Unknown scenarios in the
// store are ignored with a warning.
func (s *Simulator) Restore(ctx context.Context) error {
	logger := simulatorLogger()

	var row models.SimulatorState
	err := s.db.Conn.WithContext(ctx).First(&row, stateRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load simulator state: %w", err)
	}
	if !KnownScenario(row.Scenario) || row.CadenceSeconds < config.MinSimulatorCadenceS {
		logger.Warn("Ignoring stored simulator state",
			zap.String("scenario", row.Scenario),
			zap.Int("cadence_s", row.CadenceSeconds),
		)
		return nil
	}

	s.current.Store(&settings{
		SimulatorSettings: iot.SimulatorSettings{Scenario: row.Scenario, CadenceS: row.CadenceSeconds, Paused: row.Paused},
		configuredAt:      row.UpdatedAt.UTC(),
	})
	logger.Info("Simulator state restored",
		zap.String("scenario", row.Scenario),
		zap.Int("cadence_s", row.CadenceSeconds),
		zap.Bool("paused", row.Paused),
	)
	return nil
}

// Configure replaces the settings. An empty scenario or a zero cadence keeps
// the current value. The change is persisted before it becomes visible and
// takes effect at the next tick.
func (s *Simulator) Configure(ctx context.Context, in iot.SimulatorSettings) (*iot.SimulatorStatus, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.current.Load()
	next := &settings{SimulatorSettings: in, configuredAt: s.clock.Now()}
	if next.Scenario == "" {
		next.Scenario = prev.Scenario
	}
	if next.CadenceS == 0 {
		next.CadenceS = prev.CadenceS
	}
	if !KnownScenario(next.Scenario) {
		return nil, &iot.Error{Kind: iot.KindInvalidInput, Message: fmt.Sprintf("unknown scenario %q", next.Scenario)}
	}
	if next.CadenceS < config.MinSimulatorCadenceS {
		return nil, &iot.Error{
			Kind:    iot.KindInvalidInput,
			Message: fmt.Sprintf("cadence_s must be at least %d", config.MinSimulatorCadenceS),
		}
	}

	row := models.SimulatorState{
		ID:             stateRowID,
		Scenario:       next.Scenario,
		CadenceSeconds: next.CadenceS,
		Paused:         next.Paused,
		UpdatedAt:      next.configuredAt,
	}
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"scenario", "cadence_seconds", "paused", "updated_at"}),
	}
	if err := s.db.Conn.WithContext(ctx).Clauses(upsert).Create(&row).Error; err != nil {
		return nil, &iot.Error{Kind: iot.KindTransient, Message: "could not persist simulator settings", Err: err}
	}

	s.current.Store(next)
	select {
	case s.wake <- struct{}{}:
	default:
	}

	simulatorLogger().Info("Simulator configured",
		zap.String("scenario", next.Scenario),
		zap.Int("cadence_s", next.CadenceS),
		zap.Bool("paused", next.Paused),
	)
	status := s.Status()
	return &status, nil
}

func (s *Simulator) Status() iot.SimulatorStatus {
	cur := s.current.Load()
	return iot.SimulatorStatus{
		SimulatorSettings: cur.SimulatorSettings,
		Sensors:           int(s.active.Load()),
		Ticks:             s.ticks.Load(),
		LastTickAt:        s.lastTickAt.Load(),
		NextTickAt:        s.nextTickAt.Load(),
		ConfiguredAt:      cur.configuredAt,
	}
}

func (s *Simulator) paused(cur *settings) bool {
	return cur.Paused || cur.Scenario == ScenarioPaused
}

// Tick produces one reading per active simulated sensor, stamped with the
// current time, and returns how many were ingested. Ingest failures for one
// sensor are logged and do not stop the others.
func (s *Simulator) Tick(ctx context.Context) (int, error) {
	logger := simulatorLogger()

	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	cur := s.current.Load()
	now := s.clock.Now()
	s.ticks.Add(1)
	s.lastTickAt.Store(&now)
	metrics.SimulatorTicks.Inc()

	if s.paused(cur) {
		return 0, nil
	}

	sensors, err := s.sensors.ListSimulatedSensors(ctx)
	if err != nil {
		return 0, err
	}
	s.active.Store(int64(len(sensors)))

	seen := make(map[string]struct{}, len(sensors))
	produced := 0
	for _, sensor := range sensors {
		seen[sensor.ID] = struct{}{}
		st, ok := s.states[sensor.ID]
		if !ok {
			st = &sensorState{}
			s.states[sensor.ID] = st
		}

		v := generate(cur.Scenario, st, now, s.rnd, s.anomalyEvery)
		_, err := s.sink.Ingest(ctx, iot.IngestInput{
			SensorID:    sensor.ID,
			CO2:         &v.CO2,
			Temperature: &v.Temperature,
			Humidity:    &v.Humidity,
			T:           &now,
		})
		if err != nil {
			if ctx.Err() != nil {
				return produced, ctx.Err()
			}
			logger.Warn("Simulated reading rejected", zap.String("sensor_id", sensor.ID), zap.Error(err))
			continue
		}
		produced++
	}

	for id := range s.states {
		if _, ok := seen[id]; !ok {
			delete(s.states, id)
		}
	}

	metrics.SimulatorReadings.Add(float64(produced))
	logger.Debug("Simulator tick",
		zap.String("scenario", cur.Scenario),
		zap.Int("sensors", len(sensors)),
		zap.Int("readings", produced),
	)
	return produced, nil
}

// Run ticks on the configured cadence until ctx ends. A cadence change
// restarts the wait.
func (s *Simulator) Run(ctx context.Context) {
	logger := simulatorLogger()
	// a reconfiguration moves the deadline of the pending tick; the wait is
	// always measured from the previous tick so repeated wakes cannot starve it
	since := time.Now()
	for {
		cadence := time.Duration(s.current.Load().CadenceS) * time.Second
		wait := max(0, cadence-time.Since(since))
		next := s.clock.Now().Add(wait)
		s.nextTickAt.Store(&next)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
			continue
		case <-timer.C:
		}

		since = time.Now()
		if _, err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("Simulator tick failed", zap.Error(err))
		}
	}
}
