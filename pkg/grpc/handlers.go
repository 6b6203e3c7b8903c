package grpc

import (
	"context"
	"fmt"

	z "github.com/Oudwins/zog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

func validateID(name string, id *string) error {
	var idValidator = z.String().Trim().Min(1).Required()
	if issues := idValidator.Validate(id); issues != nil {
		return status.Errorf(codes.InvalidArgument, "validation error: %s: %v", name, issues)
	}
	return nil
}

func (s *IOTServer) Ingest(ctx context.Context, req *IngestRequest) (*IngestResponse, error) {
	if err := validateID("sensor_id", &req.SensorID); err != nil {
		return nil, err
	}

	result, err := s.Core.Ingest(ctx, iot.IngestInput{
		SensorID:    req.SensorID,
		CO2:         req.CO2,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		T:           req.T,
	})
	if err != nil {
		return nil, toStatus("Ingest", err)
	}
	return &IngestResponse{ReadingID: result.ReadingID, Transitions: result.Transitions}, nil
}

var alertsRequestValidator = z.Struct(z.Shape{
	"Limit":  z.Int().GTE(0),
	"Offset": z.Int().GTE(0),
})

func (s *IOTServer) ListAlerts(ctx context.Context, req *AlertsRequest) (*AlertsResponse, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if issues := alertsRequestValidator.Validate(req); issues != nil {
		return nil, status.Errorf(codes.InvalidArgument, "validation error: %v", issues)
	}

	page, err := s.Core.Alerts(ctx, iot.AlertQuery{
		OwnerID:  ownerID,
		Status:   models.AlertStatus(req.Status),
		Kind:     models.AlertKind(req.Kind),
		SensorID: req.SensorID,
		Metric:   models.Metric(req.Metric),
		Since:    req.Since,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		return nil, toStatus("ListAlerts", err)
	}
	if page.Alerts == nil {
		page.Alerts = []models.AlertLive{}
	}
	return &AlertsResponse{Alerts: page.Alerts, NextOffset: page.NextOffset}, nil
}

func (s *IOTServer) alertCommand(
	ctx context.Context,
	method string,
	req *AlertCommandRequest,
	run func(ctx context.Context, ownerID, alertID string) (*iot.CommandResult, error),
) (*AlertCommandResponse, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateID("alert_id", &req.AlertID); err != nil {
		return nil, err
	}

	result, err := run(ctx, ownerID, req.AlertID)
	if err != nil {
		return nil, toStatus(method, err)
	}
	return &AlertCommandResponse{Applied: result.Applied, Alert: result.Alert}, nil
}

func (s *IOTServer) AcknowledgeAlert(ctx context.Context, req *AlertCommandRequest) (*AlertCommandResponse, error) {
	return s.alertCommand(ctx, "AcknowledgeAlert", req, s.Core.AcknowledgeAlert)
}

func (s *IOTServer) ResolveAlert(ctx context.Context, req *AlertCommandRequest) (*AlertCommandResponse, error) {
	return s.alertCommand(ctx, "ResolveAlert", req, s.Core.ResolveAlert)
}

func (s *IOTServer) Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	var horizonValidator = z.Int().GTE(0)
	if issues := horizonValidator.Validate(&req.HorizonH); issues != nil {
		return nil, status.Errorf(codes.InvalidArgument, "validation error: horizon_h: %v", issues)
	}

	predictions, err := s.Core.Predict(ctx, ownerID, req.SensorID, req.HorizonH)
	if err != nil {
		return nil, toStatus("Predict", err)
	}
	if predictions == nil {
		predictions = []iot.Prediction{}
	}
	return &PredictResponse{Predictions: predictions}, nil
}

func (s *IOTServer) SetSimulator(ctx context.Context, req *SimulatorRequest) (*iot.SimulatorStatus, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	st, err := s.Core.SetSimulator(ctx, iot.SimulatorSettings{
		Scenario: req.Scenario,
		CadenceS: req.CadenceS,
		Paused:   req.Paused,
	})
	if err != nil {
		return nil, toStatus("SetSimulator", err)
	}
	return st, nil
}

var limiterRequestValidator = z.Struct(z.Shape{
	"Rate":  z.Float64().Required().GT(0),
	"Burst": z.Int().Required().GT(0),
})

func (s *IOTServer) SetLimiter(ctx context.Context, req *LimiterRequest) (*LimiterResponse, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := validateID("sensor_id", &req.SensorID); err != nil {
		return nil, err
	}
	if issues := limiterRequestValidator.Validate(req); issues != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("validation error: %v", issues))
	}

	if s.Limiter == nil {
		return nil, status.Error(codes.FailedPrecondition, "rate limiter is not enabled")
	}
	settings := iot.LimiterSettings{Rate: req.Rate, Burst: req.Burst}
	if err := s.Limiter.Set(req.SensorID, settings); err != nil {
		return nil, toStatus("SetLimiter", err)
	}
	return &LimiterResponse{Rate: settings.Rate, Burst: settings.Burst}, nil
}
