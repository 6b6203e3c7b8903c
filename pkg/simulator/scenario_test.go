package simulator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func TestOccupancyCurve(t *testing.T) {
	assert.Equal(t, 500.0, OccupancyCO2(at(3, 0)))
	assert.Equal(t, 500.0, OccupancyCO2(at(8, 0)))
	assert.Equal(t, 1400.0, OccupancyCO2(at(13, 0)))
	assert.Equal(t, 500.0, OccupancyCO2(at(18, 0)))
	assert.Equal(t, 500.0, OccupancyCO2(at(23, 59)))

	mid := OccupancyCO2(at(10, 30))
	assert.Greater(t, mid, 500.0)
	assert.Less(t, mid, 1400.0)
	assert.InDelta(t, OccupancyCO2(at(10, 0)), OccupancyCO2(at(16, 0)), 0.11, "symmetric around midday")

	// non-UTC inputs follow the UTC clock
	local := at(13, 0).In(time.FixedZone("UTC+8", 8*3600))
	assert.Equal(t, 1400.0, OccupancyCO2(local))
}

func TestBaselineStaysInBand(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	st := &sensorState{}
	for range 5000 {
		v := baselineLevel(st, rnd)
		require.GreaterOrEqual(t, v, 400.0)
		require.LessOrEqual(t, v, 500.0)
	}
}

func TestVentilationRamp(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	t0 := at(12, 0)
	st := &sensorState{level: 1000, windowOpenedAt: t0, windowFrom: 1000, windowTo: 700}

	assert.Equal(t, 850.0, ventilationLevel(st, t0.Add(5*time.Minute), rnd))
	assert.Equal(t, 700.0, ventilationLevel(st, t0.Add(10*time.Minute), rnd))
	assert.True(t, st.windowOpenedAt.IsZero(), "window closes once the ramp is done")
}

func TestVentilationOpensWindows(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	st := &sensorState{}
	now := at(9, 0)

	windows := 0
	prev := 0.0
	for range 2000 {
		wasClosed := st.windowOpenedAt.IsZero()
		v := ventilationLevel(st, now, rnd)
		if wasClosed && !st.windowOpenedAt.IsZero() {
			windows++
			assert.GreaterOrEqual(t, st.windowTo, 600.0)
			assert.LessOrEqual(t, st.windowTo, st.windowFrom)
		}
		require.LessOrEqual(t, v, 1000.0)
		require.Greater(t, v, 0.0)
		if !wasClosed {
			require.LessOrEqual(t, v, prev, "an open window only lowers the level")
		}
		prev = v
		now = now.Add(30 * time.Second)
	}
	assert.Positive(t, windows)
}

func TestVentilationNeverFallsBelowOutdoorAir(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rnd := rand.New(rand.NewSource(seed))
		st := &sensorState{}
		now := at(0, 0)

		// one simulated day at a 30s cadence
		for range 24 * 60 * 2 {
			v := ventilationLevel(st, now, rnd)
			require.GreaterOrEqual(t, v, outdoorCO2, "seed %d at %s", seed, now)
			require.LessOrEqual(t, v, closedRoomCO2, "seed %d at %s", seed, now)
			now = now.Add(30 * time.Second)
		}
	}
}

func TestVentilationWindowDuringRecovery(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	t0 := at(12, 0)
	// a second window opened while the room is still aired out only holds the level
	st := &sensorState{level: 650, windowOpenedAt: t0, windowFrom: 650, windowTo: 650}

	assert.Equal(t, 650.0, ventilationLevel(st, t0.Add(5*time.Minute), rnd))
	assert.Equal(t, 650.0, ventilationLevel(st, t0.Add(10*time.Minute), rnd))
}

func TestAnomalySpikes(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	st := &sensorState{}
	now := at(0, 0)

	var runs []int
	run := 0
	for range 6 * 60 {
		v := anomalyLevel(st, now, rnd, time.Hour)
		if v >= 1600 {
			require.LessOrEqual(t, v, 2000.0)
			run++
		} else {
			require.LessOrEqual(t, v, 500.0)
			if run > 0 {
				runs = append(runs, run)
			}
			run = 0
		}
		now = now.Add(time.Minute)
	}

	require.NotEmpty(t, runs)
	for _, n := range runs {
		assert.GreaterOrEqual(t, n, 15)
		assert.LessOrEqual(t, n, 30)
	}
}

func TestGenerateComfortValues(t *testing.T) {
	rnd := rand.New(rand.NewSource(9))
	for _, scenario := range []string{ScenarioBaseline, ScenarioOccupancy, ScenarioVentilation, ScenarioAnomaly} {
		s := generate(scenario, &sensorState{}, at(13, 0), rnd, time.Hour)
		assert.InDelta(t, 21.5, s.Temperature, 2.6, scenario)
		assert.InDelta(t, 47, s.Humidity, 6, scenario)
	}
	assert.Equal(t, 1400.0, generate(ScenarioOccupancy, &sensorState{}, at(13, 0), rnd, time.Hour).CO2)
}
