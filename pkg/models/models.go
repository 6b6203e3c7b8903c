package models

import (
	"time"

	"gorm.io/datatypes"
)

type SensorStatus string

const (
	SensorStatusOnline  SensorStatus = "online"
	SensorStatusOffline SensorStatus = "offline"
	SensorStatusWarning SensorStatus = "warning"
)

type SensorKind string

const (
	SensorKindReal       SensorKind = "real"
	SensorKindSimulation SensorKind = "simulation"
)

// Known hardware types. Other values are accepted as-is.
const (
	SensorTypeSCD30      = "scd30"
	SensorTypeMHZ19      = "mhz19"
	SensorTypeBME680     = "bme680"
	SensorTypeSimulation = "simulation"
)

type Metric string

const (
	MetricCO2         Metric = "co2"
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
)

// Metrics lists every evaluated metric in a stable order.
var Metrics = []Metric{MetricCO2, MetricTemperature, MetricHumidity}

type AlertKind string

const (
	AlertKindInfo     AlertKind = "info"
	AlertKindWarning  AlertKind = "warning"
	AlertKindCritical AlertKind = "critical"
)

type AlertStatus string

const (
	AlertStatusOpen         AlertStatus = "open"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

type Transition string

const (
	TransitionOpen          Transition = "open"
	TransitionEscalate      Transition = "escalate"
	TransitionDeescalate    Transition = "deescalate"
	TransitionResolve       Transition = "resolve"
	TransitionAcknowledge   Transition = "acknowledge"
	TransitionManualResolve Transition = "manual_resolve"
)

// Thresholds holds per-sensor overrides. A nil field inherits the global default.
type Thresholds struct {
	CO2Warn      *float64 `gorm:"column:co2_warn" json:"co2_warn,omitempty"`
	CO2Crit      *float64 `gorm:"column:co2_crit" json:"co2_crit,omitempty"`
	TempMin      *float64 `gorm:"column:temp_min" json:"temp_min,omitempty"`
	TempMax      *float64 `gorm:"column:temp_max" json:"temp_max,omitempty"`
	HumidityWarn *float64 `gorm:"column:humidity_warn" json:"humidity_warn,omitempty"`
	HumidityMin  *float64 `gorm:"column:humidity_min" json:"humidity_min,omitempty"`
}

type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"size:320;not null;uniqueIndex" json:"email"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Sensor struct {
	ID         string            `gorm:"primaryKey;size:36" json:"id"`
	OwnerID    string            `gorm:"size:64;not null;uniqueIndex:idx_sensors_owner_name,priority:1" json:"owner_id"`
	Name       string            `gorm:"size:200;not null;uniqueIndex:idx_sensors_owner_name,priority:2" json:"name"`
	Type       string            `gorm:"size:32;not null" json:"type"`
	Interface  string            `gorm:"size:32" json:"interface"`
	Config     datatypes.JSONMap `gorm:"type:json" json:"config,omitempty"`
	Status     SensorStatus      `gorm:"size:16;not null;default:offline" json:"status"`
	Kind       SensorKind        `gorm:"size:16;not null;index" json:"kind"`
	Battery    float64           `gorm:"not null" json:"battery"`
	IsLive     bool              `gorm:"not null;index" json:"is_live"`
	Thresholds Thresholds        `gorm:"embedded;embeddedPrefix:threshold_" json:"thresholds"`
	LastReadAt *time.Time        `json:"last_read_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Reading is append-only. Absent metrics are stored as NULL.
type Reading struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SensorID    string    `gorm:"size:36;not null;index:idx_readings_sensor_t,priority:1" json:"sensor_id"`
	T           time.Time `gorm:"column:t;not null;index:idx_readings_sensor_t,priority:2,sort:desc;index:idx_readings_t" json:"t"`
	CO2         *float64  `gorm:"column:co2" json:"co2,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
}

// Value returns the reading's value for metric, if present.
func (r Reading) Value(metric Metric) (float64, bool) {
	var v *float64
	switch metric {
	case MetricCO2:
		v = r.CO2
	case MetricTemperature:
		v = r.Temperature
	case MetricHumidity:
		v = r.Humidity
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// AlertLive is the mutable row for an alert; it is upserted in place on every transition.
type AlertLive struct {
	ID             string      `gorm:"primaryKey;size:36" json:"id"`
	SensorID       string      `gorm:"size:36;not null;index:idx_alerts_live_dedup,priority:1" json:"sensor_id"`
	OwnerID        string      `gorm:"size:64;not null;index" json:"owner_id"`
	Metric         Metric      `gorm:"size:16;not null;index:idx_alerts_live_dedup,priority:2" json:"metric"`
	Kind           AlertKind   `gorm:"size:16;not null;index:idx_alerts_live_dedup,priority:3" json:"kind"`
	Status         AlertStatus `gorm:"size:16;not null;index:idx_alerts_live_dedup,priority:4" json:"status"`
	Value          float64     `json:"value"`
	LastValue      float64     `json:"last_value"`
	Threshold      float64     `json:"threshold"`
	Message        string      `gorm:"size:500" json:"message"`
	OpenedAt       time.Time   `gorm:"not null;index" json:"opened_at"`
	AcknowledgedAt *time.Time  `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string      `gorm:"size:64" json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time  `gorm:"index" json:"resolved_at,omitempty"`
	ResolvedBy     string      `gorm:"size:64" json:"resolved_by,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (AlertLive) TableName() string { return "alerts_live" }

// AlertHistory is an immutable snapshot written once per transition.
type AlertHistory struct {
	ID              uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AlertID         string      `gorm:"size:36;not null;index" json:"alert_id"`
	PreviousAlertID string      `gorm:"size:36" json:"previous_alert_id,omitempty"`
	Transition      Transition  `gorm:"size:24;not null" json:"transition"`
	Actor           string      `gorm:"size:64" json:"actor,omitempty"`
	SensorID        string      `gorm:"size:36;not null;index" json:"sensor_id"`
	OwnerID         string      `gorm:"size:64;not null" json:"owner_id"`
	Metric          Metric      `gorm:"size:16;not null" json:"metric"`
	Kind            AlertKind   `gorm:"size:16;not null" json:"kind"`
	Status          AlertStatus `gorm:"size:16;not null" json:"status"`
	Value           float64     `json:"value"`
	Threshold       float64     `json:"threshold"`
	Message         string      `gorm:"size:500" json:"message"`
	OpenedAt        time.Time   `json:"opened_at"`
	AcknowledgedAt  *time.Time  `json:"acknowledged_at,omitempty"`
	ResolvedAt      *time.Time  `json:"resolved_at,omitempty"`
	RecordedAt      time.Time   `gorm:"not null;index" json:"recorded_at"`
}

func (AlertHistory) TableName() string { return "alerts_history" }

// RetentionState keeps the sweeper's resume cursor per target table. Cursor
// is the last deleted primary key in text form; empty means start over.
type RetentionState struct {
	Target    string    `gorm:"primaryKey;size:32" json:"target"`
	Cursor    string    `gorm:"size:64;not null" json:"cursor"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RetentionState) TableName() string { return "retention_state" }

// SimulatorState is a single-row table (ID is always 1).
type SimulatorState struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	Scenario       string    `gorm:"size:32;not null" json:"scenario"`
	CadenceSeconds int       `gorm:"not null" json:"cadence_s"`
	Paused         bool      `gorm:"not null" json:"paused"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (SimulatorState) TableName() string { return "simulator_state" }

// AllModels is the AutoMigrate set.
func AllModels() []any {
	return []any{
		&User{},
		&Sensor{},
		&Reading{},
		&AlertLive{},
		&AlertHistory{},
		&RetentionState{},
		&SimulatorState{},
	}
}
