package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/config"
	"liyu1981.xyz/iaq-telemetry-service/pkg/db"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot/mocks"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
	_ "liyu1981.xyz/iaq-telemetry-service/pkg/testing"
)

const bufSize = 1024 * 1024

func startTestServer(t *testing.T, iotServer *IOTServer) *TelemetryClient {
	t.Helper()
	common.SetTestLoggerNop()

	listener := bufconn.Listen(bufSize)
	interceptor := grpc.UnaryInterceptor(iotServer.CreateRateLimitInterceptor([]any{
		&IngestRequest{},
	}))
	server := grpc.NewServer(interceptor)
	RegisterTelemetryServer(server, iotServer)

	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewTelemetryClient(conn)
}

func newCore(t *testing.T) *iot.IOT {
	t.Helper()
	database, err := db.Open(db.UseIsolatedMemorySqliteDialector())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return iot.New(*database, config.Default())
}

func asOwner(ownerID string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), MetadataOwnerID, ownerID)
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	assert.Equal(t, code, st.Code(), st.Message())
}

func TestIngestAndAlerts(t *testing.T) {
	core := newCore(t)
	client := startTestServer(t, &IOTServer{Core: core})

	sensor, err := core.CreateSensor(context.Background(), "alice", iot.SensorSpec{Name: "Office", Type: "scd30"})
	require.NoError(t, err)

	resp, err := client.Ingest(context.Background(), &IngestRequest{SensorID: sensor.ID, CO2: common.Ptr(1300.0)})
	require.NoError(t, err)
	assert.NotZero(t, resp.ReadingID)
	require.Len(t, resp.Transitions, 1)
	assert.Equal(t, iot.StateOpenCrit, resp.Transitions[0].To)

	alerts, err := client.ListAlerts(asOwner("alice"), &AlertsRequest{})
	require.NoError(t, err)
	require.Len(t, alerts.Alerts, 1)
	assert.Equal(t, models.AlertKindCritical, alerts.Alerts[0].Kind)
	alertID := alerts.Alerts[0].ID

	{
		others, err := client.ListAlerts(asOwner("mallory"), &AlertsRequest{})
		require.NoError(t, err)
		assert.Empty(t, others.Alerts)
	}

	ack, err := client.AcknowledgeAlert(asOwner("alice"), &AlertCommandRequest{AlertID: alertID})
	require.NoError(t, err)
	assert.True(t, ack.Applied)
	assert.Equal(t, models.AlertStatusAcknowledged, ack.Alert.Status)

	_, err = client.AcknowledgeAlert(asOwner("mallory"), &AlertCommandRequest{AlertID: alertID})
	requireCode(t, err, codes.PermissionDenied)

	resolved, err := client.ResolveAlert(asOwner("alice"), &AlertCommandRequest{AlertID: alertID})
	require.NoError(t, err)
	assert.True(t, resolved.Applied)

	_, err = client.ResolveAlert(asOwner("alice"), &AlertCommandRequest{AlertID: alertID})
	requireCode(t, err, codes.FailedPrecondition)
}

func TestIngestEdgeCases(t *testing.T) {
	core := newCore(t)
	client := startTestServer(t, &IOTServer{Core: core})

	_, err := client.Ingest(context.Background(), &IngestRequest{SensorID: "  ", CO2: common.Ptr(500.0)})
	requireCode(t, err, codes.InvalidArgument)

	_, err = client.Ingest(context.Background(), &IngestRequest{SensorID: "missing", CO2: common.Ptr(500.0)})
	requireCode(t, err, codes.NotFound)

	sensor, err := core.CreateSensor(context.Background(), "alice", iot.SensorSpec{Name: "Office", Type: "scd30"})
	require.NoError(t, err)

	_, err = client.Ingest(context.Background(), &IngestRequest{SensorID: sensor.ID})
	requireCode(t, err, codes.InvalidArgument)

	_, err = client.Ingest(context.Background(), &IngestRequest{SensorID: sensor.ID, Humidity: common.Ptr(140.0)})
	requireCode(t, err, codes.InvalidArgument)

	_, err = client.ListAlerts(context.Background(), &AlertsRequest{})
	requireCode(t, err, codes.Unauthenticated)

	_, err = client.ListAlerts(asOwner("alice"), &AlertsRequest{Limit: -1})
	requireCode(t, err, codes.InvalidArgument)

	_, err = client.AcknowledgeAlert(asOwner("alice"), &AlertCommandRequest{AlertID: "nope"})
	requireCode(t, err, codes.NotFound)
}

func TestRateLimitInterceptor(t *testing.T) {
	ctrl := gomock.NewController(t)
	core := mocks.NewMockCoreAPI(ctrl)
	core.EXPECT().Ingest(gomock.Any(), gomock.Any()).
		Return(&iot.IngestResult{ReadingID: 1, Transitions: []iot.TransitionEvent{}}, nil).
		Times(3)

	client := startTestServer(t, &IOTServer{Core: core, Limiter: iot.NewIngestLimiter(1, 2)})

	// 3 requests in quick succession; only 2 fit the burst
	for i := range 3 {
		_, err := client.Ingest(context.Background(), &IngestRequest{SensorID: "s1", CO2: common.Ptr(500.0)})
		if i < 2 {
			require.NoError(t, err, "request %d should be allowed", i+1)
		} else {
			requireCode(t, err, codes.ResourceExhausted)
		}
	}

	// limiter admin calls are not themselves throttled
	resp, err := client.SetLimiter(context.Background(), &LimiterRequest{SensorID: "s1", Rate: 50, Burst: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Burst)

	_, err = client.Ingest(context.Background(), &IngestRequest{SensorID: "s1", CO2: common.Ptr(500.0)})
	require.NoError(t, err)
}

func TestSetLimiterEdgeCases(t *testing.T) {
	core := mocks.NewMockCoreAPI(gomock.NewController(t))

	{
		client := startTestServer(t, &IOTServer{Core: core})
		_, err := client.SetLimiter(context.Background(), &LimiterRequest{SensorID: "s1", Rate: 1, Burst: 1})
		requireCode(t, err, codes.FailedPrecondition)
	}

	{
		client := startTestServer(t, &IOTServer{Core: core, Limiter: iot.NewIngestLimiter(1, 1)})
		_, err := client.SetLimiter(context.Background(), &LimiterRequest{SensorID: "s1", Rate: 0, Burst: 1})
		requireCode(t, err, codes.InvalidArgument)

		_, err = client.SetLimiter(context.Background(), &LimiterRequest{Rate: 1, Burst: 1})
		requireCode(t, err, codes.InvalidArgument)
	}
}

func TestErrorKindsMapToCodes(t *testing.T) {
	cases := map[iot.Kind]codes.Code{
		iot.KindUnknownSensor: codes.NotFound,
		iot.KindUnknownAlert:  codes.NotFound,
		iot.KindUnauthorized:  codes.PermissionDenied,
		iot.KindDuplicateName: codes.AlreadyExists,
		iot.KindInvalidInput:  codes.InvalidArgument,
		iot.KindConflict:      codes.FailedPrecondition,
		iot.KindTransient:     codes.Unavailable,
		iot.KindInternal:      codes.Internal,
	}

	ctrl := gomock.NewController(t)
	core := mocks.NewMockCoreAPI(ctrl)
	client := startTestServer(t, &IOTServer{Core: core})

	for kind, code := range cases {
		core.EXPECT().Predict(gomock.Any(), "alice", "s1", 6).Return(nil, &iot.Error{Kind: kind, Message: "boom"})

		_, err := client.Predict(asOwner("alice"), &PredictRequest{SensorID: "s1", HorizonH: 6})
		requireCode(t, err, code)
	}
}

func TestPredict(t *testing.T) {
	ctrl := gomock.NewController(t)
	core := mocks.NewMockCoreAPI(ctrl)
	client := startTestServer(t, &IOTServer{Core: core})

	core.EXPECT().Predict(gomock.Any(), "alice", "", 0).Return(nil, nil)
	resp, err := client.Predict(asOwner("alice"), &PredictRequest{})
	require.NoError(t, err)
	assert.NotNil(t, resp.Predictions)
	assert.Empty(t, resp.Predictions)

	_, err = client.Predict(asOwner("alice"), &PredictRequest{HorizonH: -3})
	requireCode(t, err, codes.InvalidArgument)
}

func TestSetSimulatorRequiresAdminToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	core := mocks.NewMockCoreAPI(ctrl)
	client := startTestServer(t, &IOTServer{Core: core, AdminToken: "s3cret"})

	_, err := client.SetSimulator(context.Background(), &SimulatorRequest{Scenario: "anomaly"})
	requireCode(t, err, codes.PermissionDenied)

	core.EXPECT().SetSimulator(gomock.Any(), iot.SimulatorSettings{Scenario: "anomaly"}).
		Return(&iot.SimulatorStatus{SimulatorSettings: iot.SimulatorSettings{Scenario: "anomaly", CadenceS: 30}}, nil)

	ctx := metadata.AppendToOutgoingContext(context.Background(), MetadataAdminToken, "s3cret")
	st, err := client.SetSimulator(ctx, &SimulatorRequest{Scenario: "anomaly"})
	require.NoError(t, err)
	assert.Equal(t, "anomaly", st.Scenario)
	assert.Equal(t, 30, st.CadenceS)
}
