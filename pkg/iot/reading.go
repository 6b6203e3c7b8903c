package iot

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

const (
	defaultRangeLimit = 1000
	maxRangeLimit     = 10000
)

// ReadingValues are the measured metrics of one reading. nil means not measured.
type ReadingValues struct {
	CO2         *float64 `json:"co2,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
}

func readingLogger() *zap.Logger {
	return common.GetCoreLogger(common.LoggerCategoryIOTReading)
}

// appendReading returns only after the row is committed.
func (i *IOT) appendReading(ctx context.Context, sensorID string, values ReadingValues, t time.Time) (*models.Reading, error) {
	if _, err := i.Sensor.LookupSensor(ctx, sensorID); err != nil {
		return nil, err
	}

	reading := models.Reading{
		SensorID:    sensorID,
		T:           t.UTC(),
		CO2:         values.CO2,
		Temperature: values.Temperature,
		Humidity:    values.Humidity,
	}
	if err := i.Db.Conn.WithContext(ctx).Create(&reading).Error; err != nil {
		return nil, classifyStoreError(readingLogger(), "append reading", err)
	}
	return &reading, nil
}

func (i *IOT) rangeReadings(ctx context.Context, sensorID string, from, to time.Time, limit int) ([]models.Reading, error) {
	if to.Before(from) {
		return nil, invalidInput("range end %s is before start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	if limit <= 0 {
		limit = defaultRangeLimit
	}
	limit = min(limit, maxRangeLimit)

	var readings []models.Reading
	err := i.Db.Conn.WithContext(ctx).
		Where("sensor_id = ? AND t >= ? AND t <= ?", sensorID, from.UTC(), to.UTC()).
		Order("t asc").Order("id asc").
		Limit(limit).
		Find(&readings).Error
	if err != nil {
		return nil, classifyStoreError(readingLogger(), "range readings", err)
	}
	return readings, nil
}

// latestReading returns nil without error when the sensor has no readings.
func (i *IOT) latestReading(ctx context.Context, sensorID string) (*models.Reading, error) {
	readings, err := i.recentReadings(ctx, sensorID, 1)
	if err != nil || len(readings) == 0 {
		return nil, err
	}
	return &readings[0], nil
}

// recentReadings returns the newest n readings in ascending time order.
func (i *IOT) recentReadings(ctx context.Context, sensorID string, n int) ([]models.Reading, error) {
	var readings []models.Reading
	err := i.Db.Conn.WithContext(ctx).
		Where("sensor_id = ?", sensorID).
		Order("t desc").Order("id desc").
		Limit(n).
		Find(&readings).Error
	if err != nil {
		return nil, classifyStoreError(readingLogger(), "recent readings", err)
	}
	slices.Reverse(readings)
	return readings, nil
}

func (i *IOT) deleteReadingsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, _, err := deleteInBatches(ctx, i.Db.Conn, readingsTarget(cutoff), "", i.Config.RetentionBatchSize, nil)
	if err != nil {
		return deleted, classifyStoreError(readingLogger(), "delete readings", err)
	}
	return deleted, nil
}

type IReadingImpl struct {
	iot *IOT
}

func (ir *IReadingImpl) AppendReading(ctx context.Context, sensorID string, values ReadingValues, t time.Time) (*models.Reading, error) {
	return ir.iot.appendReading(ctx, sensorID, values, t)
}

func (ir *IReadingImpl) RangeReadings(ctx context.Context, sensorID string, from, to time.Time, limit int) ([]models.Reading, error) {
	return ir.iot.rangeReadings(ctx, sensorID, from, to, limit)
}

func (ir *IReadingImpl) LatestReading(ctx context.Context, sensorID string) (*models.Reading, error) {
	return ir.iot.latestReading(ctx, sensorID)
}

func (ir *IReadingImpl) RecentReadings(ctx context.Context, sensorID string, n int) ([]models.Reading, error) {
	return ir.iot.recentReadings(ctx, sensorID, n)
}

func (ir *IReadingImpl) DeleteReadingsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return ir.iot.deleteReadingsOlderThan(ctx, cutoff)
}

func (i *IOT) GetIReading() IReading {
	return &IReadingImpl{iot: i}
}
