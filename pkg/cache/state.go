// Package cache mirrors the in-process alert machine into Redis so other
// processes can read current alert states without touching the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

const (
	KeyPrefix = "alert_state:"
	// refreshed by every transition; stale entries of deleted sensors age out
	DefaultTTL = 7 * 24 * time.Hour
)

// State is the mirrored view of one (sensor, metric).
type State struct {
	State   iot.MachineState `json:"state"`
	AlertID string           `json:"alert_id,omitempty"`
	Value   float64          `json:"value"`
	At      time.Time        `json:"at"`
}

type StateMirror struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStateMirror(client *redis.Client) *StateMirror {
	return &StateMirror{redis: client, ttl: DefaultTTL}
}

// Connect opens a client and checks it with PING.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func Key(sensorID string, metric models.Metric) string {
	return KeyPrefix + sensorID + ":" + string(metric)
}

func cacheLogger() *zap.Logger {
	return common.GetLoggerWith(common.LoggerNameStateCache)
}

func (m *StateMirror) Name() string { return "redis" }

// Publish applies transitions in order within one pipeline. A transition to
// clear deletes the key.
func (m *StateMirror) Publish(ctx context.Context, events []iot.TransitionEvent) error {
	if len(events) == 0 {
		return nil
	}
	pipe := m.redis.TxPipeline()
	for _, e := range events {
		key := Key(e.SensorID, e.Metric)
		if e.To == iot.StateClear {
			pipe.Del(ctx, key)
			continue
		}
		data, err := json.Marshal(State{State: e.To, AlertID: e.AlertID, Value: e.Value, At: e.At})
		if err != nil {
			return fmt.Errorf("failed to marshal state: %w", err)
		}
		pipe.Set(ctx, key, data, m.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mirror states: %w", err)
	}
	return nil
}

// Get returns the mirrored state, or clear when there is none.
func (m *StateMirror) Get(ctx context.Context, sensorID string, metric models.Metric) (*State, error) {
	data, err := m.redis.Get(ctx, Key(sensorID, metric)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &State{State: iot.StateClear}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state from Redis: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &st, nil
}

// Forget drops every mirrored metric of a deleted sensor.
func (m *StateMirror) Forget(ctx context.Context, sensorID string) error {
	keys := common.Mapper(models.Metrics, func(metric models.Metric) string {
		return Key(sensorID, metric)
	})
	return m.redis.Del(ctx, keys...).Err()
}

// Seed overwrites the mirror from the machine's snapshots, e.g. after a
// rebuild on start.
func (m *StateMirror) Seed(ctx context.Context, snapshots map[string]map[models.Metric]iot.MachineSnapshot, at time.Time) error {
	var events []iot.TransitionEvent
	for sensorID, byMetric := range snapshots {
		for metric, snap := range byMetric {
			events = append(events, iot.TransitionEvent{
				SensorID: sensorID,
				Metric:   metric,
				To:       snap.State,
				AlertID:  snap.AlertID,
				Value:    snap.LastSeen,
				At:       at,
			})
		}
	}
	if err := m.Publish(ctx, events); err != nil {
		return err
	}
	cacheLogger().Info("State mirror seeded", zap.Int("entries", len(events)))
	return nil
}
