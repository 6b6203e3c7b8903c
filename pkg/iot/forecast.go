package iot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/forecast"
	"liyu1981.xyz/iaq-telemetry-service/pkg/metrics"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

const (
	MaxForecastHorizonHours = 168

	minLikelihood = 55.0
	maxLikelihood = 95.0
)

type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Prediction is a predictive alert. It is recomputed on every request and
// never stored.
type Prediction struct {
	ID             string        `json:"id"`
	SensorID       string        `json:"sensor_id"`
	SensorName     string        `json:"sensor_name"`
	Metric         models.Metric `json:"metric"`
	CurrentValue   float64       `json:"current_value"`
	TrendPercent   float64       `json:"trend_percent"`
	Title          string        `json:"title"`
	Likelihood     float64       `json:"likelihood"`
	Timeframe      string        `json:"timeframe"`
	Impact         Impact        `json:"impact"`
	Description    string        `json:"description"`
	ProjectedValue float64       `json:"projected_value"`
	ProjectedLow   float64       `json:"projected_low"`
	ProjectedHigh  float64       `json:"projected_high"`
	Threshold      float64       `json:"threshold"`
	Model          string        `json:"model"`
}

var predictionNamespace = uuid.MustParse("6f1c3a52-9d1e-4e34-8a55-2b8f3f7f0c11")

func predictionID(sensorID string, metric models.Metric, at time.Time) string {
	bucket := at.UTC().Truncate(time.Minute).Format(time.RFC3339)
	return uuid.NewSHA1(predictionNamespace, []byte(sensorID+"|"+string(metric)+"|"+bucket)).String()
}

func forecastLogger() *zap.Logger {
	return common.GetCoreLogger(common.LoggerCategoryIOTForecast)
}

func (i *IOT) horizon(horizonH int) (int, error) {
	if horizonH <= 0 {
		return i.Config.ForecastHorizonHoursDefault, nil
	}
	if horizonH > MaxForecastHorizonHours {
		return 0, invalidInput("horizon %dh exceeds %dh", horizonH, MaxForecastHorizonHours)
	}
	return horizonH, nil
}

// predict forecasts one sensor, or every sensor of the owner when sensorID
// is empty.
func (i *IOT) predict(ctx context.Context, ownerID, sensorID string, horizonH int) ([]Prediction, error) {
	h, err := i.horizon(horizonH)
	if err != nil {
		return nil, err
	}

	var sensors []models.Sensor
	if sensorID != "" {
		s, err := i.Sensor.GetSensor(ctx, ownerID, sensorID)
		if err != nil {
			return nil, err
		}
		sensors = []models.Sensor{*s}
	} else if sensors, err = i.Sensor.ListSensors(ctx, ownerID); err != nil {
		return nil, err
	}

	predictions := []Prediction{}
	for idx := range sensors {
		if err := ctx.Err(); err != nil {
			return nil, classifyStoreError(forecastLogger(), "predict", err)
		}
		predictions = append(predictions, i.predictSensor(ctx, &sensors[idx], h)...)
	}
	return predictions, nil
}

// predictSensor bounds its work by the forecast timeout. Running out of time
// yields no predictions rather than an error.
func (i *IOT) predictSensor(ctx context.Context, sensor *models.Sensor, horizonH int) []Prediction {
	logger := forecastLogger().With(zap.String("sensor_id", sensor.ID))

	ctx, cancel := context.WithTimeout(ctx, i.Config.ForecastTimeout)
	defer cancel()

	readings, err := i.Reading.RecentReadings(ctx, sensor.ID, i.Config.ForecastHistorySamples)
	if err != nil {
		if ctx.Err() != nil {
			metrics.ForecastTimeouts.Inc()
			logger.Warn("Forecast timed out loading history")
		} else {
			logger.Error("Failed to load history for forecast", zap.Error(err))
		}
		return nil
	}

	thresholds := EffectiveThresholds(i.Config.Thresholds, sensor.Thresholds)
	horizon := time.Duration(horizonH) * time.Hour
	now := i.Clock.Now()

	var out []Prediction
	for _, metric := range models.Metrics {
		series := seriesOf(readings, metric)
		if series.Len() < i.Config.ForecastMinSamples {
			continue
		}
		if forecast.MedianInterval(series.Times) <= 0 {
			logger.Warn("Skipped forecast with non-positive sample interval", zap.String("metric", string(metric)))
			continue
		}

		est, err := i.forecastSeries(ctx, series, horizon)
		if err != nil {
			if ctx.Err() != nil {
				metrics.ForecastTimeouts.Inc()
				logger.Warn("Forecast timed out", zap.String("metric", string(metric)))
				return nil
			}
			logger.Warn("Forecast failed", zap.String("metric", string(metric)), zap.Error(err))
			continue
		}

		_, current := series.Last()
		p, ok := buildPrediction(metric, est, thresholds, horizonH)
		if !ok {
			continue
		}
		p.ID = predictionID(sensor.ID, metric, now)
		p.SensorID = sensor.ID
		p.SensorName = sensor.Name
		p.CurrentValue = current
		p.TrendPercent = forecast.TrendPercent(series.Values)
		metrics.PredictionsEmitted.WithLabelValues(string(metric), est.Model).Inc()
		out = append(out, p)
	}
	return out
}

func seriesOf(readings []models.Reading, metric models.Metric) forecast.Series {
	var s forecast.Series
	for _, r := range readings {
		if v, ok := r.Value(metric); ok && common.IsFinite(v) {
			s.Append(r.T, v)
		}
	}
	return s
}

// forecastSeries tries the primary model and falls back to the linear one.
func (i *IOT) forecastSeries(ctx context.Context, s forecast.Series, horizon time.Duration) (forecast.Estimate, error) {
	if i.primary != nil {
		est, err := i.primary.Forecast(ctx, s, horizon)
		if err == nil {
			return est, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return forecast.Estimate{}, err
		}
		forecastLogger().Debug("Primary model unavailable, using fallback",
			zap.String("model", i.primary.Name()), zap.Error(err))
	}
	return i.fallback.Forecast(ctx, s, horizon)
}

// buildPrediction applies the emission rules. ok is false when the projected
// value stays inside the thresholds.
func buildPrediction(metric models.Metric, est forecast.Estimate, t Thresholds, horizonH int) (Prediction, bool) {
	projected := est.Point
	p := Prediction{
		Metric:         metric,
		ProjectedValue: projected,
		ProjectedLow:   est.Lower,
		ProjectedHigh:  est.Upper,
		Model:          est.Model,
		Timeframe:      fmt.Sprintf("within %dh", horizonH),
	}

	var excess float64
	switch metric {
	case models.MetricCO2:
		if projected < t.CO2Warn {
			return p, false
		}
		p.Threshold = t.CO2Warn
		excess = projected - t.CO2Warn
		p.Impact = ImpactMedium
		if projected >= 1.2*t.CO2Warn {
			p.Impact = ImpactHigh
		}
		p.Title = fmt.Sprintf("CO2 expected to reach %.0f ppm", projected)
		p.Description = fmt.Sprintf("CO2 is projected at %.0f ppm %s, above the %.0f ppm warning level. Consider ventilating.",
			projected, p.Timeframe, t.CO2Warn)
	case models.MetricHumidity:
		if projected < t.HumidityWarn {
			return p, false
		}
		p.Threshold = t.HumidityWarn
		excess = projected - t.HumidityWarn
		p.Impact = ImpactMedium
		if projected >= t.HumidityWarn+10 {
			p.Impact = ImpactHigh
		}
		p.Title = fmt.Sprintf("Humidity expected to reach %.0f%%", projected)
		p.Description = fmt.Sprintf("Humidity is projected at %.1f%% %s, above the %.0f%% warning level.",
			projected, p.Timeframe, t.HumidityWarn)
	case models.MetricTemperature:
		switch {
		case projected >= t.TempMax:
			p.Threshold = t.TempMax
			excess = projected - t.TempMax
			p.Title = fmt.Sprintf("Temperature expected to rise to %.1f°C", projected)
			p.Description = fmt.Sprintf("Temperature is projected at %.1f°C %s, above the %.1f°C limit.",
				projected, p.Timeframe, t.TempMax)
		case projected <= t.TempMin:
			p.Threshold = t.TempMin
			excess = t.TempMin - projected
			p.Title = fmt.Sprintf("Temperature expected to drop to %.1f°C", projected)
			p.Description = fmt.Sprintf("Temperature is projected at %.1f°C %s, below the %.1f°C limit.",
				projected, p.Timeframe, t.TempMin)
		default:
			return p, false
		}
		p.Impact = ImpactMedium
		if excess >= tempCritMargin {
			p.Impact = ImpactHigh
		}
	default:
		return p, false
	}
	p.Likelihood = common.Clamp(minLikelihood+excess, minLikelihood, maxLikelihood)
	return p, true
}

type IForecastImpl struct {
	iot *IOT
}

func (ifc *IForecastImpl) Predict(ctx context.Context, ownerID, sensorID string, horizonH int) ([]Prediction, error) {
	return ifc.iot.predict(ctx, ownerID, sensorID, horizonH)
}

func (i *IOT) GetIForecast() IForecast {
	return &IForecastImpl{iot: i}
}
