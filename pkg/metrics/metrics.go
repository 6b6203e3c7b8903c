// Package metrics exports the telemetry core's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "iaq"

var (
	// ReadingsIngested counts durably appended readings by sensor kind.
	ReadingsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_ingested_total",
			Help:      "Total number of readings appended",
		},
		[]string{"kind"},
	)

	// IngestRejected counts ingests that failed, by error code.
	IngestRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rejected_total",
			Help:      "Total number of rejected ingests",
		},
		[]string{"code"},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Ingest latency from validation to last transition",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	AlertTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_transitions_total",
			Help:      "Alert state machine transitions",
		},
		[]string{"metric", "from", "to"},
	)

	AlertCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_commands_total",
			Help:      "Acknowledge and resolve commands by outcome",
		},
		[]string{"command", "outcome"},
	)

	PredictionsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_emitted_total",
			Help:      "Predictive alerts returned to callers",
		},
		[]string{"metric", "model"},
	)

	ForecastTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_timeouts_total",
			Help:      "Per-sensor forecasts abandoned after the time bound",
		},
	)

	SimulatorTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulator_ticks_total",
			Help:      "Simulator ticks executed",
		},
	)

	SimulatorReadings = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulator_readings_total",
			Help:      "Synthetic readings produced",
		},
	)

	RetentionDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_deleted_total",
			Help:      "Rows removed by the retention sweeper",
		},
		[]string{"target"},
	)

	RetentionPaused = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_paused_total",
			Help:      "Sweeps that stopped on the wall-clock budget",
		},
	)

	RetentionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retention_sweep_duration_seconds",
			Help:      "Wall-clock duration of one retention sweep",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2.5, 5, 10},
		},
	)

	// NotifyFailures counts transition fan-out errors per publisher.
	NotifyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Transition publish failures",
		},
		[]string{"publisher"},
	)
)
