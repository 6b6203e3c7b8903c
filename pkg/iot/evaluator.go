package iot

import (
	"fmt"

	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/config"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

// Hard temperature bounds sit this far outside the soft [min, max] band.
const tempCritMargin = 2.0

type Verdict string

const (
	VerdictOK   Verdict = "ok"
	VerdictWarn Verdict = "warn"
	VerdictCrit Verdict = "crit"
)

func (v Verdict) rank() int {
	switch v {
	case VerdictCrit:
		return 2
	case VerdictWarn:
		return 1
	default:
		return 0
	}
}

type Status string

const (
	StatusGood     Status = "good"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Thresholds are the effective bounds for one sensor.
type Thresholds struct {
	CO2Warn      float64  `json:"co2_warn"`
	CO2Crit      float64  `json:"co2_crit"`
	TempMin      float64  `json:"temp_min"`
	TempMax      float64  `json:"temp_max"`
	HumidityWarn float64  `json:"humidity_warn"`
	HumidityCrit float64  `json:"humidity_crit"`
	HumidityMin  *float64 `json:"humidity_min,omitempty"`
}

// EffectiveThresholds merges per-sensor overrides onto the global defaults.
func EffectiveThresholds(defaults config.Thresholds, override models.Thresholds) Thresholds {
	pick := func(v *float64, fallback float64) float64 {
		if v != nil {
			return *v
		}
		return fallback
	}
	return Thresholds{
		CO2Warn:      pick(override.CO2Warn, defaults.CO2Warn),
		CO2Crit:      pick(override.CO2Crit, defaults.CO2Crit),
		TempMin:      pick(override.TempMin, defaults.TempMin),
		TempMax:      pick(override.TempMax, defaults.TempMax),
		HumidityWarn: pick(override.HumidityWarn, defaults.HumidityWarn),
		HumidityCrit: defaults.HumidityCrit,
		HumidityMin:  override.HumidityMin,
	}
}

func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"co2_warn": t.CO2Warn, "co2_crit": t.CO2Crit, "temp_min": t.TempMin,
		"temp_max": t.TempMax, "humidity_warn": t.HumidityWarn,
	} {
		if !common.IsFinite(v) {
			return invalidInput("%s must be a finite number", name)
		}
	}
	if t.CO2Warn <= 0 || t.CO2Crit <= 0 {
		return invalidInput("co2 thresholds must be positive")
	}
	if t.CO2Warn > t.CO2Crit {
		return invalidInput("co2_warn %v exceeds co2_crit %v", t.CO2Warn, t.CO2Crit)
	}
	if t.TempMin > t.TempMax {
		return invalidInput("temp_min %v exceeds temp_max %v", t.TempMin, t.TempMax)
	}
	if t.HumidityWarn < 0 || t.HumidityWarn > 100 {
		return invalidInput("humidity_warn %v outside [0,100]", t.HumidityWarn)
	}
	if t.HumidityWarn > t.HumidityCrit {
		return invalidInput("humidity_warn %v exceeds humidity_crit %v", t.HumidityWarn, t.HumidityCrit)
	}
	if t.HumidityMin != nil {
		if *t.HumidityMin < 0 || *t.HumidityMin > 100 || !common.IsFinite(*t.HumidityMin) {
			return invalidInput("humidity_min %v outside [0,100]", *t.HumidityMin)
		}
		if *t.HumidityMin >= t.HumidityWarn {
			return invalidInput("humidity_min %v must be below humidity_warn %v", *t.HumidityMin, t.HumidityWarn)
		}
	}
	return nil
}

// MetricVerdict is the evaluator's answer for one metric of one reading.
// Threshold is the bound that was crossed, or the nearest soft bound when ok.
type MetricVerdict struct {
	Metric    models.Metric `json:"metric"`
	Value     float64       `json:"value"`
	Verdict   Verdict       `json:"verdict"`
	Threshold float64       `json:"threshold"`
}

func (v MetricVerdict) Message() string {
	switch v.Metric {
	case models.MetricCO2:
		return fmt.Sprintf("CO2 %.0f ppm reached %s threshold %.0f ppm", v.Value, v.Verdict.word(), v.Threshold)
	case models.MetricTemperature:
		return fmt.Sprintf("Temperature %.1f°C reached %s threshold %.1f°C", v.Value, v.Verdict.word(), v.Threshold)
	default:
		return fmt.Sprintf("Humidity %.1f%% reached %s threshold %.1f%%", v.Value, v.Verdict.word(), v.Threshold)
	}
}

func (v Verdict) word() string {
	if v == VerdictCrit {
		return "critical"
	}
	return "warning"
}

type Evaluation struct {
	Verdicts []MetricVerdict `json:"verdicts"`
}

func (e Evaluation) For(metric models.Metric) (MetricVerdict, bool) {
	for _, v := range e.Verdicts {
		if v.Metric == metric {
			return v, true
		}
	}
	return MetricVerdict{}, false
}

// Status is the worst verdict across the evaluated metrics.
func (e Evaluation) Status() Status {
	worst := VerdictOK
	for _, v := range e.Verdicts {
		if v.Verdict.rank() > worst.rank() {
			worst = v.Verdict
		}
	}
	switch worst {
	case VerdictCrit:
		return StatusCritical
	case VerdictWarn:
		return StatusWarning
	default:
		return StatusGood
	}
}

// SensorStatus is what a reading with this evaluation makes of its sensor:
// any crossed bound puts it in warning.
func (e Evaluation) SensorStatus() models.SensorStatus {
	if e.Status() == StatusGood {
		return models.SensorStatusOnline
	}
	return models.SensorStatusWarning
}

// Evaluate is pure. Metrics absent from the reading, or not finite, are not
// reported. Equality with a bound counts as crossing it.
func Evaluate(r models.Reading, t Thresholds) Evaluation {
	var out Evaluation
	for _, metric := range models.Metrics {
		value, ok := r.Value(metric)
		if !ok || !common.IsFinite(value) {
			continue
		}
		out.Verdicts = append(out.Verdicts, evaluateMetric(metric, value, t))
	}
	return out
}

func evaluateMetric(metric models.Metric, value float64, t Thresholds) MetricVerdict {
	v := MetricVerdict{Metric: metric, Value: value, Verdict: VerdictOK}
	switch metric {
	case models.MetricCO2:
		v.Threshold = t.CO2Warn
		switch {
		case value >= t.CO2Crit:
			v.Verdict, v.Threshold = VerdictCrit, t.CO2Crit
		case value >= t.CO2Warn:
			v.Verdict = VerdictWarn
		}
	case models.MetricTemperature:
		v.Threshold = t.TempMax
		switch {
		case value >= t.TempMax+tempCritMargin:
			v.Verdict, v.Threshold = VerdictCrit, t.TempMax+tempCritMargin
		case value <= t.TempMin-tempCritMargin:
			v.Verdict, v.Threshold = VerdictCrit, t.TempMin-tempCritMargin
		case value >= t.TempMax:
			v.Verdict = VerdictWarn
		case value <= t.TempMin:
			v.Verdict, v.Threshold = VerdictWarn, t.TempMin
		}
	case models.MetricHumidity:
		v.Threshold = t.HumidityWarn
		switch {
		case value >= t.HumidityCrit:
			v.Verdict, v.Threshold = VerdictCrit, t.HumidityCrit
		case value >= t.HumidityWarn:
			v.Verdict = VerdictWarn
		case t.HumidityMin != nil && value <= *t.HumidityMin:
			v.Verdict, v.Threshold = VerdictWarn, *t.HumidityMin
		}
	}
	return v
}
