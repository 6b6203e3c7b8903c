package iot

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

const oneDay = 24 * time.Hour

func seedAgedReadings(t *testing.T, i *IOT, sensorID string, ages ...int) {
	t.Helper()
	times := make([]time.Time, len(ages))
	for n, age := range ages {
		times[n] = testNow.Add(-time.Duration(age) * oneDay)
	}
	seedReadings(t, i, sensorID, times, func(int) float64 { return 500 })
}

func readingAges(t *testing.T, i *IOT, sensorID string) []int {
	t.Helper()
	var rows []models.Reading
	require.NoError(t, i.Db.Conn.Where("sensor_id = ?", sensorID).Order("t desc").Find(&rows).Error)
	ages := make([]int, len(rows))
	for n, r := range rows {
		ages[n] = int(testNow.Sub(r.T) / oneDay)
	}
	return ages
}

func seedAlert(t *testing.T, i *IOT, sensorID string, status models.AlertStatus, openedAgo, resolvedAgo time.Duration) models.AlertLive {
	t.Helper()
	a := models.AlertLive{
		ID:       uuid.NewString(),
		SensorID: sensorID,
		OwnerID:  "owner",
		Metric:   models.MetricCO2,
		Kind:     models.AlertKindWarning,
		Status:   status,
		Value:    1100,
		OpenedAt: testNow.Add(-openedAgo),
	}
	if status == models.AlertStatusResolved {
		a.ResolvedAt = common.Ptr(testNow.Add(-resolvedAgo))
	}
	require.NoError(t, i.Db.Conn.Create(&a).Error)
	require.NoError(t, appendHistory(i.Db.Conn, &a, models.TransitionOpen, "", actorSystem, a.OpenedAt))
	return a
}

func TestSweepReadingsByAge(t *testing.T) {
	common.SetTestLoggerNop()
	i, _ := newTestIOT(t)
	i.Config.ReadingRetentionDays = 7
	s := createTestSensor(t, i, "owner", SensorSpec{})
	seedAgedReadings(t, i, s.ID, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	alert := seedAlert(t, i, s.ID, models.AlertStatusOpen, 10*oneDay, 0)

	report, err := i.Retention.Sweep(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Paused)
	assert.Equal(t, int64(3), report.Deleted[RetentionTargetReadings])
	assert.Zero(t, report.Deleted[RetentionTargetAlertsHistory])
	assert.Zero(t, report.Deleted[RetentionTargetAlertsLive])
	assert.Equal(t, int64(3), report.Total())

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, readingAges(t, i, s.ID))
	assert.Len(t, liveAlerts(t, i, s.ID), 1)
	assert.Equal(t, alert.ID, historyRows(t, i, s.ID)[0].AlertID)

	// a second pass finds nothing
	report, err = i.Retention.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Total())
}

func TestSweepAlertTables(t *testing.T) {
	common.SetTestLoggerNop()
	i, _ := newTestIOT(t)
	s := createTestSensor(t, i, "owner", SensorSpec{})

	oldResolved := seedAlert(t, i, s.ID, models.AlertStatusResolved, 40*oneDay, 31*oneDay)
	recentResolved := seedAlert(t, i, s.ID, models.AlertStatusResolved, 40*oneDay, 29*oneDay)
	ancientOpen := seedAlert(t, i, s.ID, models.AlertStatusOpen, 400*oneDay, 0)

	report, err := i.Retention.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Deleted[RetentionTargetAlertsLive])
	assert.Equal(t, int64(1), report.Deleted[RetentionTargetAlertsHistory])

	ids := map[string]bool{}
	for _, a := range liveAlerts(t, i, s.ID) {
		ids[a.ID] = true
	}
	assert.False(t, ids[oldResolved.ID])
	assert.True(t, ids[recentResolved.ID])
	assert.True(t, ids[ancientOpen.ID])

	history := historyRows(t, i, s.ID)
	require.Len(t, history, 2)
	for _, h := range history {
		assert.NotEqual(t, ancientOpen.ID, h.AlertID)
	}
}

func TestSweepResumesFromCursor(t *testing.T) {
	common.SetTestLoggerNop()
	i, _ := newTestIOT(t)
	i.Config.ReadingRetentionDays = 7
	i.Config.RetentionBatchSize = 2
	s := createTestSensor(t, i, "owner", SensorSpec{})
	seedAgedReadings(t, i, s.ID, 20, 19, 18, 17, 16, 1)

	var ids []uint64
	require.NoError(t, i.Db.Conn.Model(&models.Reading{}).Order("id asc").Pluck("id", &ids).Error)

	// as if an earlier pass stopped after the second row
	require.NoError(t, saveCursor(RetentionTargetReadings, testNow)(i.Db.Conn, strconv.FormatUint(ids[1], 10)))

	report, err := i.Retention.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Deleted[RetentionTargetReadings])
	assert.Equal(t, []int{1, 19, 20}, readingAges(t, i, s.ID))

	var state models.RetentionState
	require.NoError(t, i.Db.Conn.First(&state, "target = ?", RetentionTargetReadings).Error)
	assert.Empty(t, state.Cursor)

	// the next pass starts over
	report, err = i.Retention.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Deleted[RetentionTargetReadings])
	assert.Equal(t, []int{1}, readingAges(t, i, s.ID))
}

func TestSweepPausesAtBudget(t *testing.T) {
	common.SetTestLoggerNop()
	i, _ := newTestIOT(t)
	i.Config.ReadingRetentionDays = 7
	s := createTestSensor(t, i, "owner", SensorSpec{})
	seedAgedReadings(t, i, s.ID, 9, 10)
	i.Config.RetentionBudget = time.Nanosecond

	report, err := i.Retention.Sweep(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Paused)
	assert.Equal(t, []int{9, 10}, readingAges(t, i, s.ID))

	i.Config.RetentionBudget = 5 * time.Second
	report, err = i.Retention.Sweep(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Paused)
	assert.Empty(t, readingAges(t, i, s.ID))
}

func TestSweepCorruptCursorIsFatal(t *testing.T) {
	common.SetTestLoggerNop()
	i, _ := newTestIOT(t)
	require.NoError(t, saveCursor(RetentionTargetReadings, testNow)(i.Db.Conn, "not-a-number"))

	_, err := i.Retention.Sweep(context.Background())
	assert.ErrorIs(t, err, ErrCorruptCursor)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	i.Config.RetentionInterval = time.Millisecond
	assert.ErrorIs(t, i.RunRetention(ctx), ErrCorruptCursor)
}

func TestSweepHonoursCancellation(t *testing.T) {
	common.SetTestLoggerNop()
	i, _ := newTestIOT(t)
	i.Config.ReadingRetentionDays = 7
	s := createTestSensor(t, i, "owner", SensorSpec{})
	seedAgedReadings(t, i, s.ID, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := i.Retention.Sweep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{8}, readingAges(t, i, s.ID))
}
