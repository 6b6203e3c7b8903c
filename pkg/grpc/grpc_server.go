package grpc

import (
	"context"
	"crypto/subtle"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
)

const (
	MetadataOwnerID    = "x-owner-id"
	MetadataAdminToken = "x-admin-token"
)

type IOTServer struct {
	Core    iot.CoreAPI
	Limiter *iot.IngestLimiter
	// empty leaves SetSimulator and SetLimiter open
	AdminToken string
}

var _ TelemetryServer = (*IOTServer)(nil)

func grpcLogger() *zap.Logger {
	return common.GetLoggerWith(common.LoggerNameGrpcServer)
}

func (s *IOTServer) CheckSensorLimiter(sensorID string) bool {
	if s.Limiter == nil {
		return true
	}
	return s.Limiter.Allow(sensorID)
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func ownerFrom(ctx context.Context) (string, error) {
	ownerID := firstMetadata(ctx, MetadataOwnerID)
	if ownerID == "" {
		return "", status.Errorf(codes.Unauthenticated, "%s metadata is required", MetadataOwnerID)
	}
	return ownerID, nil
}

func (s *IOTServer) requireAdmin(ctx context.Context) error {
	if s.AdminToken == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(firstMetadata(ctx, MetadataAdminToken)), []byte(s.AdminToken)) != 1 {
		return status.Error(codes.PermissionDenied, "admin token required")
	}
	return nil
}

// CodeOf maps a core error kind to a gRPC status code.
func CodeOf(err error) codes.Code {
	switch iot.KindOf(err) {
	case iot.KindUnknownSensor, iot.KindUnknownAlert:
		return codes.NotFound
	case iot.KindUnauthorized:
		return codes.PermissionDenied
	case iot.KindDuplicateName:
		return codes.AlreadyExists
	case iot.KindInvalidInput:
		return codes.InvalidArgument
	case iot.KindConflict:
		return codes.FailedPrecondition
	case iot.KindTransient:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

func toStatus(method string, err error) error {
	code := CodeOf(err)
	var e *iot.Error
	if !errors.As(err, &e) {
		grpcLogger().Error("Call failed", zap.String("method", method), zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
	if code == codes.Internal || code == codes.Unavailable {
		grpcLogger().Error("Call failed", zap.String("method", method), zap.Error(err))
	}
	return status.Error(code, e.Error())
}
