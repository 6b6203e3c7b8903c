package iot

import (
	"context"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/metrics"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

// Plausibility bounds for raw readings. Values outside are rejected before
// anything is stored.
const (
	minCO2         = 0.0
	maxCO2         = 100000.0
	minTemperature = -60.0
	maxTemperature = 100.0
	minHumidity    = 0.0
	maxHumidity    = 100.0
)

type IngestInput struct {
	SensorID    string     `json:"sensor_id"`
	CO2         *float64   `json:"co2,omitempty"`
	Temperature *float64   `json:"temperature,omitempty"`
	Humidity    *float64   `json:"humidity,omitempty"`
	T           *time.Time `json:"t,omitempty"`
}

type IngestResult struct {
	ReadingID   uint64            `json:"reading_id"`
	Reading     *models.Reading   `json:"reading"`
	Transitions []TransitionEvent `json:"transitions"`
}

func ingestLogger() *zap.Logger {
	return common.GetCoreLogger(common.LoggerCategoryIOTIngest)
}

func checkRange(name string, v *float64, lo, hi float64) error {
	if v == nil {
		return nil
	}
	if !common.IsFinite(*v) || *v < lo || *v > hi {
		return invalidInput("%s %v outside [%v,%v]", name, *v, lo, hi)
	}
	return nil
}

func (in IngestInput) validate() error {
	if in.SensorID == "" {
		return invalidInput("sensor id is required")
	}
	if in.CO2 == nil && in.Temperature == nil && in.Humidity == nil {
		return invalidInput("reading carries no metric")
	}
	if err := checkRange("co2", in.CO2, minCO2, maxCO2); err != nil {
		return err
	}
	if err := checkRange("temperature", in.Temperature, minTemperature, maxTemperature); err != nil {
		return err
	}
	return checkRange("humidity", in.Humidity, minHumidity, maxHumidity)
}

// readingTime resolves the reading timestamp against the accepted window
// [now-past, now+future].
func (i *IOT) readingTime(t *time.Time) (time.Time, error) {
	now := i.Clock.Now()
	if t == nil {
		return now, nil
	}
	ts := t.UTC()
	earliest := now.Add(-i.Config.IngestPastTolerance)
	latest := now.Add(i.Config.IngestFutureTolerance)
	if ts.Before(earliest) || ts.After(latest) {
		e := invalidInput("timestamp %s outside [%s, %s]",
			ts.Format(time.RFC3339), earliest.Format(time.RFC3339), latest.Format(time.RFC3339))
		return time.Time{}, e
	}
	return ts, nil
}

// Ingest stores one reading and runs it through the alert machine. The
// durable append is the commit point: a cancelled ingest either stops before
// it and leaves nothing, or runs to the end.
func (i *IOT) Ingest(ctx context.Context, in IngestInput) (*IngestResult, error) {
	started := time.Now()
	result, err := i.ingest(ctx, in)
	if err != nil {
		metrics.IngestRejected.WithLabelValues(KindOf(err).String()).Inc()
		return nil, err
	}
	metrics.IngestDuration.Observe(time.Since(started).Seconds())
	return result, nil
}

func (i *IOT) ingest(ctx context.Context, in IngestInput) (*IngestResult, error) {
	logger := ingestLogger()

	if err := in.validate(); err != nil {
		logger.Error("Dropped malformed reading", zap.String("sensor_id", in.SensorID), zap.Error(err))
		return nil, err
	}
	t, err := i.readingTime(in.T)
	if err != nil {
		logger.Error("Dropped reading outside the accepted window", zap.String("sensor_id", in.SensorID), zap.Error(err))
		return nil, err
	}
	if _, err := i.Sensor.LookupSensor(ctx, in.SensorID); err != nil {
		return nil, err
	}

	unlock := i.locks.Lock(in.SensorID)
	reading, events, err := i.ingestLocked(ctx, in, t)
	unlock()
	if err != nil {
		return nil, err
	}

	if len(events) > 0 && i.Publisher != nil {
		if err := i.Publisher.Publish(context.WithoutCancel(ctx), events); err != nil {
			logger.Warn("Failed to publish transitions", zap.String("sensor_id", in.SensorID), zap.Error(err))
		}
	}

	if events == nil {
		events = []TransitionEvent{}
	}
	return &IngestResult{ReadingID: reading.ID, Reading: reading, Transitions: events}, nil
}

func (i *IOT) ingestLocked(ctx context.Context, in IngestInput, t time.Time) (*models.Reading, []TransitionEvent, error) {
	logger := ingestLogger()

	values := ReadingValues{CO2: in.CO2, Temperature: in.Temperature, Humidity: in.Humidity}
	reading, err := i.Reading.AppendReading(ctx, in.SensorID, values, t)
	if err != nil {
		return nil, nil, err
	}

	// committed; finish regardless of the caller
	ctx = context.WithoutCancel(ctx)

	sensor, err := i.Sensor.LookupSensor(ctx, in.SensorID)
	if err != nil {
		logger.Error("Sensor vanished after append", zap.String("sensor_id", in.SensorID), zap.Error(err))
		return reading, nil, nil
	}
	metrics.ReadingsIngested.WithLabelValues(string(sensor.Kind)).Inc()

	eval := Evaluate(*reading, EffectiveThresholds(i.Config.Thresholds, sensor.Thresholds))
	if err := i.Sensor.SetLastRead(ctx, sensor.ID, reading.T, eval.SensorStatus()); err != nil {
		logger.Warn("Failed to update last read", zap.String("sensor_id", sensor.ID), zap.Error(err))
	}

	return reading, i.Alert.ProcessReading(ctx, sensor, reading), nil
}
