// Package mqtt feeds readings published by device agents into the core.
//
// Agents publish JSON to sensors/<sensor_id>/readings:
//
//	{"co2": 812, "temperature": 22.4, "humidity": 41, "t": "2026-03-02T10:00:00Z"}
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	z "github.com/Oudwins/zog"
	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
)

const (
	qosAtLeastOnce   = 1
	disconnectQuiesc = 250 // ms
)

type Ingester interface {
	Ingest(ctx context.Context, in iot.IngestInput) (*iot.IngestResult, error)
}

type Subscriber struct {
	client  paho.Client
	sink    Ingester
	limiter *iot.IngestLimiter
	topic   string
}

type Payload struct {
	CO2         *float64   `json:"co2" zog:"co2"`
	Temperature *float64   `json:"temperature" zog:"temperature"`
	Humidity    *float64   `json:"humidity" zog:"humidity"`
	T           *time.Time `json:"t" zog:"t"`
}

var payloadSchema = z.Struct(z.Shape{
	"CO2":         z.Ptr(z.Float64()),
	"Temperature": z.Ptr(z.Float64()),
	"Humidity":    z.Ptr(z.Float64()),
	"T":           z.Ptr(z.Time()),
})

func mqttLogger() *zap.Logger {
	return common.GetLoggerWith(common.LoggerNameMqttIngest)
}

// NewSubscriber builds a subscriber; nothing connects until Start.
func NewSubscriber(broker, clientID string, sink Ingester, limiter *iot.IngestLimiter) *Subscriber {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetOrderMatters(false).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	s := &Subscriber{
		sink:    sink,
		limiter: limiter,
		topic:   common.DefaultMqttReadingsSubscription,
	}
	// resubscribe on every (re)connect since sessions are clean
	opts.SetOnConnectHandler(func(c paho.Client) {
		token := c.Subscribe(s.topic, qosAtLeastOnce, s.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			mqttLogger().Error("Failed to subscribe", zap.String("topic", s.topic), zap.Error(err))
			return
		}
		mqttLogger().Info("Subscribed", zap.String("topic", s.topic))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		mqttLogger().Warn("Connection lost", zap.Error(err))
	})
	s.client = paho.NewClient(opts)
	return s
}

func (s *Subscriber) Start(ctx context.Context) error {
	token := s.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	return nil
}

func (s *Subscriber) Stop() {
	s.client.Disconnect(disconnectQuiesc)
}

func (s *Subscriber) onMessage(_ paho.Client, msg paho.Message) {
	_ = s.HandleMessage(context.Background(), msg.Topic(), msg.Payload())
}

// SensorFromTopic extracts the id from sensors/<sensor_id>/readings.
func SensorFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "sensors" || parts[2] != "readings" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// HandleMessage decodes and ingests one message. Failures are logged and
// returned; the message is never redelivered by us.
func (s *Subscriber) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	logger := mqttLogger().With(zap.String("topic", topic))

	sensorID, ok := SensorFromTopic(topic)
	if !ok {
		logger.Error("Dropped message on unexpected topic")
		return iot.NewInvalidInput("unexpected topic %q", topic)
	}
	logger = logger.With(zap.String("sensor_id", sensorID))

	if s.limiter != nil && !s.limiter.Allow(sensorID) {
		logger.Warn("Dropped reading over rate limit")
		return iot.NewInvalidInput("rate limit exceeded for sensor %s", sensorID)
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		logger.Error("Dropped malformed reading", zap.Error(err))
		return iot.NewInvalidInput("malformed payload: %v", err)
	}
	var p Payload
	if issues := payloadSchema.Parse(raw, &p); issues != nil {
		logger.Error("Dropped malformed reading", zap.Any("issues", issues))
		return iot.NewInvalidInput("invalid payload: %v", issues)
	}

	result, err := s.sink.Ingest(ctx, iot.IngestInput{
		SensorID:    sensorID,
		CO2:         p.CO2,
		Temperature: p.Temperature,
		Humidity:    p.Humidity,
		T:           p.T,
	})
	if err != nil {
		logger.Error("Ingest failed", zap.String("code", iot.KindOf(err).String()), zap.Error(err))
		return err
	}
	logger.Debug("Reading ingested",
		zap.Uint64("reading_id", result.ReadingID),
		zap.Int("transitions", len(result.Transitions)),
	)
	return nil
}
