package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
	_ "liyu1981.xyz/iaq-telemetry-service/pkg/testing"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "alert_state:s1:co2", Key("s1", models.MetricCO2))
	assert.Equal(t, "alert_state:s1:humidity", Key("s1", models.MetricHumidity))
}

func connectOrSkip(t *testing.T) *StateMirror {
	t.Helper()
	if os.Getenv(common.EnvKeyRunIntegrationTests) != "true" {
		t.Skip("set RUN_INTEGRATION_TESTS=true to run against Redis")
	}
	addr := os.Getenv(common.EnvKeyIOTRedisAddr)
	if addr == "" {
		addr = "localhost:6379"
	}
	client, err := Connect(context.Background(), addr, os.Getenv(common.EnvKeyIOTRedisPassword))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewStateMirror(client)
}

func TestStateMirrorFollowsTransitions(t *testing.T) {
	common.SetTestLoggerNop()
	m := connectOrSkip(t)
	ctx := context.Background()
	sensorID := uuid.NewString()
	t.Cleanup(func() { _ = m.Forget(ctx, sensorID) })
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	st, err := m.Get(ctx, sensorID, models.MetricCO2)
	require.NoError(t, err)
	assert.Equal(t, iot.StateClear, st.State)

	require.NoError(t, m.Publish(ctx, []iot.TransitionEvent{
		{SensorID: sensorID, Metric: models.MetricCO2, From: iot.StateClear, To: iot.StateOpenWarn, AlertID: "a1", Value: 1100, At: at},
		{SensorID: sensorID, Metric: models.MetricCO2, From: iot.StateOpenWarn, To: iot.StateOpenCrit, AlertID: "a2", Value: 1300, At: at},
		{SensorID: sensorID, Metric: models.MetricHumidity, From: iot.StateClear, To: iot.StateOpenWarn, AlertID: "a3", Value: 85, At: at},
	}))

	st, err = m.Get(ctx, sensorID, models.MetricCO2)
	require.NoError(t, err)
	assert.Equal(t, iot.StateOpenCrit, st.State)
	assert.Equal(t, "a2", st.AlertID)
	assert.True(t, at.Equal(st.At))

	require.NoError(t, m.Publish(ctx, []iot.TransitionEvent{
		{SensorID: sensorID, Metric: models.MetricCO2, From: iot.StateOpenCrit, To: iot.StateClear, AlertID: "a2", Value: 600, At: at},
	}))
	st, err = m.Get(ctx, sensorID, models.MetricCO2)
	require.NoError(t, err)
	assert.Equal(t, iot.StateClear, st.State)

	require.NoError(t, m.Forget(ctx, sensorID))
	st, err = m.Get(ctx, sensorID, models.MetricHumidity)
	require.NoError(t, err)
	assert.Equal(t, iot.StateClear, st.State)
}

func TestStateMirrorSeed(t *testing.T) {
	common.SetTestLoggerNop()
	m := connectOrSkip(t)
	ctx := context.Background()
	sensorID := uuid.NewString()
	t.Cleanup(func() { _ = m.Forget(ctx, sensorID) })

	err := m.Seed(ctx, map[string]map[models.Metric]iot.MachineSnapshot{
		sensorID: {models.MetricTemperature: {State: iot.StateOpenWarn, AlertID: "a9", LastSeen: 29}},
	}, time.Now().UTC())
	require.NoError(t, err)

	st, err := m.Get(ctx, sensorID, models.MetricTemperature)
	require.NoError(t, err)
	assert.Equal(t, iot.StateOpenWarn, st.State)
	assert.Equal(t, 29.0, st.Value)
}
