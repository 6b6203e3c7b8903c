package simulator

import (
	"math"
	"math/rand"
	"slices"
	"time"

	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
)

const (
	ScenarioBaseline    = "baseline"
	ScenarioOccupancy   = "occupancy"
	ScenarioVentilation = "ventilation"
	ScenarioAnomaly     = "anomaly"
	ScenarioPaused      = "paused"
)

var Scenarios = []string{
	ScenarioBaseline,
	ScenarioOccupancy,
	ScenarioVentilation,
	ScenarioAnomaly,
	ScenarioPaused,
}

func KnownScenario(name string) bool {
	return slices.Contains(Scenarios, name)
}

const (
	baselineCO2    = 450.0
	baselineSpread = 50.0
	baselineDrift  = 30.0

	occupancyFloor = 500.0
	occupancyPeak  = 1400.0
	workdayStart   = 8.0
	workdayEnd     = 18.0

	closedRoomCO2       = 1000.0
	outdoorCO2          = 400.0
	ventilationRamp     = 10 * time.Minute
	ventilationChance   = 0.05
	ventilationRecovery = 5.0
	ventilationMinDrop  = 200.0
	ventilationMaxDrop  = 400.0

	spikeMinCO2      = 1600.0
	spikeMaxCO2      = 2000.0
	spikeMinDuration = 15 * time.Minute
	spikeMaxDuration = 30 * time.Minute
)

// sample is one synthetic reading before it is handed to ingest.
type sample struct {
	CO2         float64
	Temperature float64
	Humidity    float64
}

// sensorState is what the generators remember about one sensor between ticks.
type sensorState struct {
	drift float64
	level float64

	windowOpenedAt time.Time
	windowFrom     float64
	windowTo       float64

	spikeAt   time.Time
	spikeEnd  time.Time
	spikePeak float64
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func hourOfDay(t time.Time) float64 {
	t = t.UTC()
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// OccupancyCO2 is a half sine rising from the floor at the start of the
// working day to the peak at midday and back at its end. Hours are UTC.
func OccupancyCO2(t time.Time) float64 {
	h := hourOfDay(t)
	if h <= workdayStart || h >= workdayEnd {
		return occupancyFloor
	}
	phase := (h - workdayStart) / (workdayEnd - workdayStart)
	return round1(occupancyFloor + (occupancyPeak-occupancyFloor)*math.Sin(math.Pi*phase))
}

func baselineLevel(st *sensorState, rnd *rand.Rand) float64 {
	st.drift = common.Clamp(st.drift+rnd.NormFloat64()*5, -baselineDrift, baselineDrift)
	noise := rnd.Float64()*40 - 20
	return round1(common.Clamp(baselineCO2+st.drift+noise, baselineCO2-baselineSpread, baselineCO2+baselineSpread))
}

// ventilationLevel holds a stuffy room that slowly recovers towards
// closedRoomCO2 until a window opens. An open window pulls the level linearly
// over ventilationRamp towards closedRoomCO2 minus a random drop, never below
// outdoorCO2. Back-to-back windows therefore cannot stack their drops.
func ventilationLevel(st *sensorState, now time.Time, rnd *rand.Rand) float64 {
	if st.level == 0 {
		st.level = closedRoomCO2
	}
	if st.windowOpenedAt.IsZero() {
		if rnd.Float64() >= ventilationChance {
			st.level = math.Min(closedRoomCO2, st.level+ventilationRecovery)
			return round1(st.level)
		}
		drop := ventilationMinDrop + rnd.Float64()*(ventilationMaxDrop-ventilationMinDrop)
		st.windowOpenedAt = now
		st.windowFrom = st.level
		st.windowTo = math.Min(st.level, math.Max(outdoorCO2, closedRoomCO2-drop))
	}

	elapsed := now.Sub(st.windowOpenedAt)
	if elapsed >= ventilationRamp {
		st.level = st.windowTo
		st.windowOpenedAt = time.Time{}
	} else {
		st.level = st.windowFrom - (st.windowFrom-st.windowTo)*float64(elapsed)/float64(ventilationRamp)
	}
	st.level = common.Clamp(st.level, outdoorCO2, closedRoomCO2)
	return round1(st.level)
}

// anomalyLevel is the baseline with one spike per period. The first spike
// lands at a random offset inside the first period.
func anomalyLevel(st *sensorState, now time.Time, rnd *rand.Rand, every time.Duration) float64 {
	if st.spikeAt.IsZero() {
		st.spikeAt = now.Add(time.Duration(rnd.Int63n(int64(every))))
	}
	if !now.Before(st.spikeAt) {
		if st.spikeEnd.IsZero() {
			st.spikeEnd = st.spikeAt.Add(spikeMinDuration + time.Duration(rnd.Int63n(int64(spikeMaxDuration-spikeMinDuration))))
			st.spikePeak = round1(spikeMinCO2 + rnd.Float64()*(spikeMaxCO2-spikeMinCO2))
		}
		if now.Before(st.spikeEnd) {
			return st.spikePeak
		}
		st.spikeAt = st.spikeEnd.Add(every)
		st.spikeEnd = time.Time{}
	}
	return baselineLevel(st, rnd)
}

func comfort(scenario string, now time.Time, rnd *rand.Rand) (float64, float64) {
	temp := 21 + rnd.Float64() - 0.5
	humidity := 45 + rnd.Float64()*6 - 3
	if scenario == ScenarioOccupancy {
		load := (OccupancyCO2(now) - occupancyFloor) / (occupancyPeak - occupancyFloor)
		temp += 2 * load
		humidity += 5 * load
	}
	return round1(temp), round1(humidity)
}

func generate(scenario string, st *sensorState, now time.Time, rnd *rand.Rand, anomalyEvery time.Duration) sample {
	var co2 float64
	switch scenario {
	case ScenarioOccupancy:
		co2 = OccupancyCO2(now)
	case ScenarioVentilation:
		co2 = ventilationLevel(st, now, rnd)
	case ScenarioAnomaly:
		co2 = anomalyLevel(st, now, rnd, anomalyEvery)
	default:
		co2 = baselineLevel(st, rnd)
	}
	temp, humidity := comfort(scenario, now, rnd)
	return sample{CO2: co2, Temperature: temp, Humidity: humidity}
}
