// Package notify fans alert transitions out to downstream consumers.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
	"liyu1981.xyz/iaq-telemetry-service/pkg/metrics"
)

// Named is a publisher with a stable name for logs and metrics.
type Named interface {
	iot.Publisher
	Name() string
}

func notifyLogger() *zap.Logger {
	return common.GetLoggerWith(common.LoggerNameNotify)
}

// Multi publishes to every publisher in order. One failing publisher does not
// stop the others; the failures are joined into the returned error.
type Multi struct {
	publishers []Named
}

var _ iot.Publisher = (*Multi)(nil)

func NewMulti(publishers ...Named) *Multi {
	return &Multi{publishers: publishers}
}

func (m *Multi) Len() int {
	return len(m.publishers)
}

func (m *Multi) Publish(ctx context.Context, events []iot.TransitionEvent) error {
	if len(events) == 0 {
		return nil
	}
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, events); err != nil {
			metrics.NotifyFailures.WithLabelValues(p.Name()).Inc()
			notifyLogger().Warn("Publisher failed",
				zap.String("publisher", p.Name()),
				zap.Int("events", len(events)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Log writes every transition to the notify logger.
type Log struct{}

var _ Named = Log{}

func (Log) Name() string { return "log" }

func (Log) Publish(_ context.Context, events []iot.TransitionEvent) error {
	logger := notifyLogger()
	for _, e := range events {
		fields := []zap.Field{
			zap.String("sensor_id", e.SensorID),
			zap.String("owner_id", e.OwnerID),
			zap.String("metric", string(e.Metric)),
			zap.String("from", string(e.From)),
			zap.String("to", string(e.To)),
			zap.String("transition", string(e.Transition)),
			zap.String("alert_id", e.AlertID),
			zap.Float64("value", e.Value),
			zap.Time("at", e.At),
		}
		if e.PreviousAlertID != "" {
			fields = append(fields, zap.String("previous_alert_id", e.PreviousAlertID))
		}
		if e.To == iot.StateOpenCrit {
			logger.Warn("Alert transition", fields...)
		} else {
			logger.Info("Alert transition", fields...)
		}
	}
	return nil
}
