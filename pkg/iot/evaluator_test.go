package iot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/config"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

func defaultThresholds() Thresholds {
	return EffectiveThresholds(config.Default().Thresholds, models.Thresholds{})
}

func TestEvaluateCO2(t *testing.T) {
	th := defaultThresholds()
	cases := []struct {
		value     float64
		verdict   Verdict
		threshold float64
	}{
		{450, VerdictOK, 1000},
		{999.9, VerdictOK, 1000},
		{1000, VerdictWarn, 1000},
		{1199, VerdictWarn, 1000},
		{1200, VerdictCrit, 1200},
		{5000, VerdictCrit, 1200},
	}
	for _, c := range cases {
		v, ok := Evaluate(models.Reading{CO2: common.Ptr(c.value)}, th).For(models.MetricCO2)
		assert.True(t, ok)
		assert.Equal(t, c.verdict, v.Verdict, "co2=%v", c.value)
		assert.Equal(t, c.threshold, v.Threshold, "co2=%v", c.value)
	}
}

func TestEvaluateTemperature(t *testing.T) {
	th := defaultThresholds()
	cases := []struct {
		value   float64
		verdict Verdict
	}{
		{21, VerdictOK},
		{15.1, VerdictOK},
		{15, VerdictWarn},
		{28, VerdictWarn},
		{29.9, VerdictWarn},
		{30, VerdictCrit},
		{13.1, VerdictWarn},
		{13, VerdictCrit},
		{-5, VerdictCrit},
	}
	for _, c := range cases {
		v, _ := Evaluate(models.Reading{Temperature: common.Ptr(c.value)}, th).For(models.MetricTemperature)
		assert.Equal(t, c.verdict, v.Verdict, "temperature=%v", c.value)
	}
}

func TestEvaluateHumidity(t *testing.T) {
	th := defaultThresholds()
	for value, want := range map[float64]Verdict{5: VerdictOK, 79.9: VerdictOK, 80: VerdictWarn, 90: VerdictCrit} {
		v, _ := Evaluate(models.Reading{Humidity: common.Ptr(value)}, th).For(models.MetricHumidity)
		assert.Equal(t, want, v.Verdict, "humidity=%v", value)
	}

	// low humidity only alerts when configured
	th.HumidityMin = common.Ptr(25.0)
	v, _ := Evaluate(models.Reading{Humidity: common.Ptr(20.0)}, th).For(models.MetricHumidity)
	assert.Equal(t, VerdictWarn, v.Verdict)
	assert.Equal(t, 25.0, v.Threshold)
}

func TestEvaluateSkipsAbsentAndNonFinite(t *testing.T) {
	eval := Evaluate(models.Reading{CO2: common.Ptr(math.NaN()), Humidity: common.Ptr(50.0)}, defaultThresholds())

	assert.Len(t, eval.Verdicts, 1)
	_, ok := eval.For(models.MetricCO2)
	assert.False(t, ok)
	_, ok = eval.For(models.MetricTemperature)
	assert.False(t, ok)
}

func TestEvaluationStatus(t *testing.T) {
	th := defaultThresholds()

	assert.Equal(t, StatusGood, Evaluate(models.Reading{}, th).Status())
	assert.Equal(t, StatusGood, Evaluate(models.Reading{CO2: common.Ptr(500.0), Temperature: common.Ptr(21.0)}, th).Status())
	assert.Equal(t, StatusWarning, Evaluate(models.Reading{CO2: common.Ptr(1100.0), Temperature: common.Ptr(21.0)}, th).Status())
	assert.Equal(t, StatusCritical, Evaluate(models.Reading{CO2: common.Ptr(1100.0), Humidity: common.Ptr(95.0)}, th).Status())
}

func TestEvaluationSensorStatus(t *testing.T) {
	th := defaultThresholds()

	assert.Equal(t, models.SensorStatusOnline, Evaluate(models.Reading{CO2: common.Ptr(500.0)}, th).SensorStatus())
	assert.Equal(t, models.SensorStatusWarning, Evaluate(models.Reading{CO2: common.Ptr(1100.0)}, th).SensorStatus())
	assert.Equal(t, models.SensorStatusWarning, Evaluate(models.Reading{Humidity: common.Ptr(95.0)}, th).SensorStatus())
}

func TestEffectiveThresholdsMergesOverrides(t *testing.T) {
	th := EffectiveThresholds(config.Default().Thresholds, models.Thresholds{
		CO2Warn: common.Ptr(800.0),
		TempMax: common.Ptr(25.0),
	})

	assert.Equal(t, 800.0, th.CO2Warn)
	assert.Equal(t, 1200.0, th.CO2Crit)
	assert.Equal(t, 15.0, th.TempMin)
	assert.Equal(t, 25.0, th.TempMax)
	assert.Equal(t, 80.0, th.HumidityWarn)
	assert.Nil(t, th.HumidityMin)
}

func TestThresholdsValidate(t *testing.T) {
	defaults := config.Default().Thresholds
	cases := map[string]models.Thresholds{
		"warn above crit":       {CO2Warn: common.Ptr(1300.0)},
		"non-positive co2":      {CO2Warn: common.Ptr(0.0)},
		"inverted temperature":  {TempMin: common.Ptr(30.0), TempMax: common.Ptr(20.0)},
		"humidity over 100":     {HumidityWarn: common.Ptr(120.0)},
		"humidity min too high": {HumidityMin: common.Ptr(85.0)},
		"infinite":              {TempMax: common.Ptr(math.Inf(1))},
	}
	for name, override := range cases {
		err := EffectiveThresholds(defaults, override).Validate()
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}

	assert.NoError(t, EffectiveThresholds(defaults, models.Thresholds{
		CO2Warn:     common.Ptr(800.0),
		CO2Crit:     common.Ptr(800.0),
		HumidityMin: common.Ptr(20.0),
	}).Validate())
}

func TestMetricVerdictMessage(t *testing.T) {
	v := MetricVerdict{Metric: models.MetricCO2, Value: 1050, Verdict: VerdictWarn, Threshold: 1000}
	assert.Equal(t, "CO2 1050 ppm reached warning threshold 1000 ppm", v.Message())
}
