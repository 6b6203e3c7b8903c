package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes transitions to one topic keyed by <sensor>-<metric>, so every
// transition of one (sensor, metric) lands on the same partition in order.
type Kafka struct {
	writer messageWriter
}

var _ Named = (*Kafka)(nil)

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

func (k *Kafka) Name() string { return "kafka" }

func MessageKey(e iot.TransitionEvent) string {
	return e.SensorID + "-" + string(e.Metric)
}

func (k *Kafka) Publish(ctx context.Context, events []iot.TransitionEvent) error {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode transition: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(MessageKey(e)),
			Value: value,
			Time:  e.At,
		})
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write transitions: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
