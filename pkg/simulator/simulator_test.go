package simulator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/config"
	"liyu1981.xyz/iaq-telemetry-service/pkg/db"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db    db.DB
	core  *iot.IOT
	sim   *Simulator
	clock *common.ManualClock
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	common.SetTestLoggerNop()

	database, err := db.Open(db.UseIsolatedMemorySqliteDialector())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	clock := common.NewManualClock(testNow)
	cfg := config.Default()
	core := iot.New(*database, cfg, iot.WithClock(clock))
	sim := New(*database, core.Sensor, core, cfg, append([]Option{WithClock(clock), WithSeed(7)}, opts...)...)
	core.WithServices(iot.ServiceOpts{Simulator: sim})
	return fixture{db: *database, core: core, sim: sim, clock: clock}
}

func (f fixture) sensors(t *testing.T, n int) []*models.Sensor {
	t.Helper()
	out := make([]*models.Sensor, n)
	for k := range n {
		s, err := f.core.CreateSensor(context.Background(), "owner", iot.SensorSpec{
			Name: fmt.Sprintf("Room %d", k+1),
			Type: models.SensorTypeSimulation,
		})
		require.NoError(t, err)
		out[k] = s
	}
	return out
}

func (f fixture) readings(t *testing.T, sensorID string) []models.Reading {
	t.Helper()
	var rows []models.Reading
	require.NoError(t, f.db.Conn.Where("sensor_id = ?", sensorID).Order("t asc").Find(&rows).Error)
	return rows
}

func (f fixture) tick(t *testing.T, advance time.Duration) int {
	t.Helper()
	f.clock.Advance(advance)
	n, err := f.sim.Tick(context.Background())
	require.NoError(t, err)
	return n
}

func TestScenarioSwitchTakesEffectNextTick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sensors := f.sensors(t, 2)

	f.clock.Set(testNow.Add(-time.Minute))
	assert.Equal(t, 2, f.tick(t, 0))

	t0 := testNow
	f.clock.Set(t0)
	status, err := f.core.SetSimulator(ctx, iot.SimulatorSettings{Scenario: ScenarioOccupancy, CadenceS: 30})
	require.NoError(t, err)
	assert.Equal(t, t0, status.ConfiguredAt)

	assert.Equal(t, 2, f.tick(t, 30*time.Second))
	want := OccupancyCO2(t0.Add(30 * time.Second))

	for _, s := range sensors {
		rows := f.readings(t, s.ID)
		require.Len(t, rows, 2)
		assert.True(t, rows[0].T.Before(t0), "the earlier reading is kept as it was")
		assert.Equal(t, t0.Add(30*time.Second), rows[1].T.UTC())
		assert.Equal(t, want, *rows[1].CO2)

		// readings go through the alert machine like real ones
		assert.Equal(t, iot.StateOpenWarn, f.core.Alert.MachineState(s.ID, models.MetricCO2).State)
	}

	var before int64
	require.NoError(t, f.db.Conn.Model(&models.Reading{}).Where("t < ?", t0).Count(&before).Error)
	assert.Equal(t, int64(2), before)
}

func TestTickFairness(t *testing.T) {
	f := newFixture(t)
	sensors := f.sensors(t, 3)

	for range 5 {
		assert.Equal(t, 3, f.tick(t, 30*time.Second))
	}
	_, err := f.core.ToggleAvailability(context.Background(), "owner", sensors[2].ID)
	require.NoError(t, err)
	for range 5 {
		assert.Equal(t, 2, f.tick(t, 30*time.Second))
	}

	assert.Len(t, f.readings(t, sensors[0].ID), 10)
	assert.Len(t, f.readings(t, sensors[1].ID), 10)
	assert.Len(t, f.readings(t, sensors[2].ID), 5)

	status := f.sim.Status()
	assert.Equal(t, uint64(10), status.Ticks)
	assert.Equal(t, 2, status.Sensors)
	require.NotNil(t, status.LastTickAt)
	assert.Equal(t, f.clock.Now(), *status.LastTickAt)
}

func TestTickSkipsRealSensors(t *testing.T) {
	f := newFixture(t)
	desk, err := f.core.CreateSensor(context.Background(), "owner", iot.SensorSpec{Name: "Desk", Type: models.SensorTypeSCD30})
	require.NoError(t, err)
	f.sensors(t, 1)

	assert.Equal(t, 1, f.tick(t, time.Second))
	assert.Empty(t, f.readings(t, desk.ID))
}

func TestPausedProducesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sensors := f.sensors(t, 2)

	_, err := f.sim.Configure(ctx, iot.SimulatorSettings{Paused: true})
	require.NoError(t, err)
	assert.Zero(t, f.tick(t, 30*time.Second))

	_, err = f.sim.Configure(ctx, iot.SimulatorSettings{Scenario: ScenarioPaused})
	require.NoError(t, err)
	assert.Zero(t, f.tick(t, 30*time.Second))

	_, err = f.sim.Configure(ctx, iot.SimulatorSettings{Scenario: ScenarioBaseline})
	require.NoError(t, err)
	assert.Equal(t, 2, f.tick(t, 30*time.Second))
	assert.Len(t, f.readings(t, sensors[0].ID), 1)
}

func TestConfigureValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sim.Configure(ctx, iot.SimulatorSettings{Scenario: "rainstorm"})
	assert.ErrorIs(t, err, iot.ErrInvalidInput)
	_, err = f.sim.Configure(ctx, iot.SimulatorSettings{CadenceS: -1})
	assert.ErrorIs(t, err, iot.ErrInvalidInput)

	status, err := f.sim.Configure(ctx, iot.SimulatorSettings{Scenario: ScenarioAnomaly})
	require.NoError(t, err)
	assert.Equal(t, config.Default().SimulatorCadenceS, status.CadenceS, "zero cadence keeps the current one")

	status, err = f.sim.Configure(ctx, iot.SimulatorSettings{CadenceS: 1})
	require.NoError(t, err)
	assert.Equal(t, ScenarioAnomaly, status.Scenario, "empty scenario keeps the current one")
	assert.Equal(t, 1, status.CadenceS)
}

func TestRestorePersistedSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sim.Configure(ctx, iot.SimulatorSettings{Scenario: ScenarioVentilation, CadenceS: 5, Paused: true})
	require.NoError(t, err)

	restarted := New(f.db, f.core.Sensor, f.core, config.Default(), WithClock(f.clock))
	assert.Equal(t, ScenarioBaseline, restarted.Status().Scenario)
	require.NoError(t, restarted.Restore(ctx))

	status := restarted.Status()
	assert.Equal(t, ScenarioVentilation, status.Scenario)
	assert.Equal(t, 5, status.CadenceS)
	assert.True(t, status.Paused)
	assert.Equal(t, testNow, status.ConfiguredAt)
}

func TestRestoreIgnoresUnknownScenario(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Conn.Create(&models.SimulatorState{ID: 1, Scenario: "legacy", CadenceSeconds: 10}).Error)

	require.NoError(t, f.sim.Restore(context.Background()))
	assert.Equal(t, ScenarioBaseline, f.sim.Status().Scenario)
}

func TestRunTicksOnCadence(t *testing.T) {
	f := newFixture(t)
	f.sensors(t, 1)
	_, err := f.sim.Configure(context.Background(), iot.SimulatorSettings{CadenceS: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.sim.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return f.sim.Status().Ticks >= 1 }, 5*time.Second, 50*time.Millisecond)
	assert.NotNil(t, f.sim.Status().NextTickAt)
	cancel()
	<-done
}

func TestRunKeepsTickingWhileReconfigured(t *testing.T) {
	f := newFixture(t)
	f.sensors(t, 1)
	_, err := f.sim.Configure(context.Background(), iot.SimulatorSettings{CadenceS: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.sim.Run(ctx)
		close(done)
	}()

	// reconfigure well inside every cadence window
	stop := make(chan struct{})
	reconfigured := make(chan struct{})
	go func() {
		defer close(reconfigured)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_, _ = f.sim.Configure(context.Background(), iot.SimulatorSettings{CadenceS: 1})
			}
		}
	}()

	assert.Eventually(t, func() bool { return f.sim.Status().Ticks >= 2 }, 5*time.Second, 50*time.Millisecond)
	close(stop)
	<-reconfigured
	cancel()
	<-done
}
