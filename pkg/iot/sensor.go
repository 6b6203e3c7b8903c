package iot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

const maxSensorNameLength = 200

// sensorConfig gives a config map the shape it has after a round trip through
// the store, numbers included, so cached and reloaded sensors compare equal.
func sensorConfig(cfg map[string]any) (datatypes.JSONMap, error) {
	if cfg == nil {
		return nil, nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, invalidInput("config is not valid JSON: %v", err)
	}
	var m datatypes.JSONMap
	if err := m.Scan(raw); err != nil {
		return nil, invalidInput("config is not a JSON object: %v", err)
	}
	return m, nil
}

type SensorSpec struct {
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Interface  string            `json:"interface"`
	Config     map[string]any    `json:"config,omitempty"`
	Kind       models.SensorKind `json:"kind,omitempty"`
	Battery    *float64          `json:"battery,omitempty"`
	IsLive     *bool             `json:"is_live,omitempty"`
	Thresholds models.Thresholds `json:"thresholds"`
}

// SensorPatch changes only the fields that are set. A nil Config keeps the
// current map; an empty one clears it.
type SensorPatch struct {
	Name       *string            `json:"name,omitempty"`
	Config     map[string]any     `json:"config,omitempty"`
	Thresholds *models.Thresholds `json:"thresholds,omitempty"`
	Active     *bool              `json:"active,omitempty"`
}

func sensorLogger() *zap.Logger {
	return common.GetCoreLogger(common.LoggerCategoryIOTSensor)
}

func normaliseName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidInput("sensor name is required")
	}
	if len(name) > maxSensorNameLength {
		return "", invalidInput("sensor name longer than %d characters", maxSensorNameLength)
	}
	return name, nil
}

func (i *IOT) createSensor(ctx context.Context, ownerID string, spec SensorSpec) (*models.Sensor, error) {
	logger := sensorLogger()

	if ownerID == "" {
		return nil, invalidInput("owner id is required")
	}
	name, err := normaliseName(spec.Name)
	if err != nil {
		return nil, err
	}
	sensorType := strings.ToLower(strings.TrimSpace(spec.Type))
	if sensorType == "" {
		return nil, invalidInput("sensor type is required")
	}

	kind := spec.Kind
	if kind == "" {
		kind = models.SensorKindReal
		if sensorType == models.SensorTypeSimulation {
			kind = models.SensorKindSimulation
		}
	}
	if kind != models.SensorKindReal && kind != models.SensorKindSimulation {
		return nil, invalidInput("unknown sensor kind %q", kind)
	}

	battery := 100.0
	if spec.Battery != nil {
		battery = *spec.Battery
		if !common.IsFinite(battery) || battery < 0 || battery > 100 {
			return nil, invalidInput("battery %v outside [0,100]", battery)
		}
	}
	isLive := true
	if spec.IsLive != nil {
		isLive = *spec.IsLive
	}

	if err := EffectiveThresholds(i.Config.Thresholds, spec.Thresholds).Validate(); err != nil {
		return nil, err
	}
	config, err := sensorConfig(spec.Config)
	if err != nil {
		return nil, err
	}

	sensor := models.Sensor{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Name:       name,
		Type:       sensorType,
		Interface:  strings.TrimSpace(spec.Interface),
		Config:     config,
		Status:     models.SensorStatusOffline,
		Kind:       kind,
		Battery:    battery,
		IsLive:     isLive,
		Thresholds: spec.Thresholds,
	}

	i.warnOnSoftQuota(ctx, ownerID)

	if err := i.Db.Conn.WithContext(ctx).Create(&sensor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateName(name, err)
		}
		return nil, classifyStoreError(logger, "create sensor", err)
	}

	i.sensors.Store(sensor.ID, sensor)
	logger.Info("Sensor created",
		zap.String("sensor_id", sensor.ID),
		zap.String("owner_id", ownerID),
		zap.String("name", name),
		zap.String("kind", string(kind)),
	)
	return &sensor, nil
}

func (i *IOT) warnOnSoftQuota(ctx context.Context, ownerID string) {
	limit := i.Config.MaxSensorsPerOwner
	if limit <= 0 {
		return
	}
	var count int64
	if err := i.Db.Conn.WithContext(ctx).Model(&models.Sensor{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return
	}
	if count >= int64(limit) {
		sensorLogger().Warn("Owner is over the soft sensor quota",
			zap.String("owner_id", ownerID),
			zap.Int64("sensors", count),
			zap.Int("quota", limit),
		)
	}
}

// lookupSensor reads through the snapshot cache and does not check ownership.
func (i *IOT) lookupSensor(ctx context.Context, sensorID string) (*models.Sensor, error) {
	if sensorID == "" {
		return nil, unknownSensor(sensorID)
	}
	if v, ok := i.sensors.Load(sensorID); ok {
		s := v.(models.Sensor)
		return &s, nil
	}
	var s models.Sensor
	if err := i.Db.Conn.WithContext(ctx).First(&s, "id = ?", sensorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unknownSensor(sensorID)
		}
		return nil, classifyStoreError(sensorLogger(), "lookup sensor", err)
	}
	if !i.cacheSensor(s) {
		return nil, unknownSensor(sensorID)
	}
	return &s, nil
}

// cacheSensor stores a snapshot read outside the sensor lock. A delete that
// committed after the read wins: the snapshot is dropped and false returned.
func (i *IOT) cacheSensor(s models.Sensor) bool {
	i.sensors.Store(s.ID, s)
	if _, gone := i.deleted.Load(s.ID); gone {
		i.sensors.Delete(s.ID)
		return false
	}
	return true
}

// getSensor hides sensors of other owners behind UnknownSensor.
func (i *IOT) getSensor(ctx context.Context, ownerID, sensorID string) (*models.Sensor, error) {
	s, err := i.lookupSensor(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	if s.OwnerID != ownerID {
		return nil, unknownSensor(sensorID)
	}
	return s, nil
}

// ownedForMutation reloads from the store; the caller holds the sensor lock.
func (i *IOT) ownedForMutation(ctx context.Context, ownerID, sensorID string) (*models.Sensor, error) {
	var s models.Sensor
	if err := i.Db.Conn.WithContext(ctx).First(&s, "id = ?", sensorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unknownSensor(sensorID)
		}
		return nil, classifyStoreError(sensorLogger(), "load sensor", err)
	}
	if s.OwnerID != ownerID {
		return nil, unauthorized(sensorID)
	}
	return &s, nil
}

func (i *IOT) listSensors(ctx context.Context, ownerID string) ([]models.Sensor, error) {
	if ownerID == "" {
		return nil, invalidInput("owner id is required")
	}
	var sensors []models.Sensor
	err := i.Db.Conn.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at asc").Order("id asc").
		Find(&sensors).Error
	if err != nil {
		return nil, classifyStoreError(sensorLogger(), "list sensors", err)
	}
	return sensors, nil
}

func (i *IOT) listSimulatedSensors(ctx context.Context) ([]models.Sensor, error) {
	var sensors []models.Sensor
	err := i.Db.Conn.WithContext(ctx).
		Where("kind = ? AND is_live = ?", models.SensorKindSimulation, true).
		Order("id asc").
		Find(&sensors).Error
	if err != nil {
		return nil, classifyStoreError(sensorLogger(), "list simulated sensors", err)
	}
	return sensors, nil
}

func (i *IOT) updateSensor(ctx context.Context, ownerID, sensorID string, patch SensorPatch) (*models.Sensor, error) {
	logger := sensorLogger()

	unlock := i.locks.Lock(sensorID)
	defer unlock()

	s, err := i.ownedForMutation(ctx, ownerID, sensorID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if s.Name, err = normaliseName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Config != nil {
		if s.Config, err = sensorConfig(patch.Config); err != nil {
			return nil, err
		}
	}
	if patch.Thresholds != nil {
		if err := EffectiveThresholds(i.Config.Thresholds, *patch.Thresholds).Validate(); err != nil {
			return nil, err
		}
		s.Thresholds = *patch.Thresholds
	}
	if patch.Active != nil {
		s.IsLive = *patch.Active
	}

	if err := i.Db.Conn.WithContext(ctx).Select("*").Updates(s).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateName(s.Name, err)
		}
		return nil, classifyStoreError(logger, "update sensor", err)
	}

	i.sensors.Store(s.ID, *s)
	logger.Info("Sensor updated", zap.String("sensor_id", sensorID), zap.Reflect("patch", patch))
	return s, nil
}

func (i *IOT) toggleAvailability(ctx context.Context, ownerID, sensorID string) (*models.Sensor, error) {
	unlock := i.locks.Lock(sensorID)
	defer unlock()

	s, err := i.ownedForMutation(ctx, ownerID, sensorID)
	if err != nil {
		return nil, err
	}
	s.IsLive = !s.IsLive
	if err := i.Db.Conn.WithContext(ctx).Model(s).Update("is_live", s.IsLive).Error; err != nil {
		return nil, classifyStoreError(sensorLogger(), "toggle availability", err)
	}
	i.sensors.Store(s.ID, *s)
	sensorLogger().Info("Sensor availability toggled", zap.String("sensor_id", sensorID), zap.Bool("is_live", s.IsLive))
	return s, nil
}

// deleteSensor removes the sensor with its readings and alerts.
func (i *IOT) deleteSensor(ctx context.Context, ownerID, sensorID string) error {
	unlock := i.locks.Lock(sensorID)
	defer unlock()

	if _, err := i.ownedForMutation(ctx, ownerID, sensorID); err != nil {
		return err
	}

	err := i.Db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.Reading{}, &models.AlertHistory{}, &models.AlertLive{}} {
			if err := tx.Where("sensor_id = ?", sensorID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Sensor{}, "id = ?", sensorID).Error
	})
	if err != nil {
		return classifyStoreError(sensorLogger(), "delete sensor", err)
	}

	i.deleted.Store(sensorID, struct{}{})
	i.sensors.Delete(sensorID)
	if i.Alert != nil {
		i.Alert.ForgetSensor(sensorID)
	}
	sensorLogger().Info("Sensor deleted", zap.String("sensor_id", sensorID), zap.String("owner_id", ownerID))
	return nil
}

// setLastRead records a reading taken at t whose evaluation gave status. It
// never moves last_read_at backwards, and a reading older than the last one
// only brings an offline sensor online. The caller holds the sensor lock.
func (i *IOT) setLastRead(ctx context.Context, sensorID string, t time.Time, status models.SensorStatus) error {
	s, err := i.lookupSensor(ctx, sensorID)
	if err != nil {
		return err
	}
	if s.LastReadAt != nil && t.Before(*s.LastReadAt) {
		if s.Status != models.SensorStatusOffline {
			return nil
		}
		status = models.SensorStatusOnline
	}
	if s.LastReadAt != nil && !t.After(*s.LastReadAt) && s.Status == status {
		return nil
	}
	if s.LastReadAt == nil || t.After(*s.LastReadAt) {
		s.LastReadAt = &t
	}
	s.Status = status

	err = i.Db.Conn.WithContext(ctx).
		Model(&models.Sensor{}).
		Where("id = ?", sensorID).
		Updates(map[string]any{"last_read_at": *s.LastReadAt, "status": s.Status}).Error
	if err != nil {
		return classifyStoreError(sensorLogger(), "set last read", err)
	}
	i.sensors.Store(s.ID, *s)
	return nil
}

type ISensorImpl struct {
	iot *IOT
}

func (is *ISensorImpl) CreateSensor(ctx context.Context, ownerID string, spec SensorSpec) (*models.Sensor, error) {
	return is.iot.createSensor(ctx, ownerID, spec)
}

func (is *ISensorImpl) ListSensors(ctx context.Context, ownerID string) ([]models.Sensor, error) {
	return is.iot.listSensors(ctx, ownerID)
}

func (is *ISensorImpl) GetSensor(ctx context.Context, ownerID, sensorID string) (*models.Sensor, error) {
	return is.iot.getSensor(ctx, ownerID, sensorID)
}

func (is *ISensorImpl) UpdateSensor(ctx context.Context, ownerID, sensorID string, patch SensorPatch) (*models.Sensor, error) {
	return is.iot.updateSensor(ctx, ownerID, sensorID, patch)
}

func (is *ISensorImpl) DeleteSensor(ctx context.Context, ownerID, sensorID string) error {
	return is.iot.deleteSensor(ctx, ownerID, sensorID)
}

func (is *ISensorImpl) ToggleAvailability(ctx context.Context, ownerID, sensorID string) (*models.Sensor, error) {
	return is.iot.toggleAvailability(ctx, ownerID, sensorID)
}

func (is *ISensorImpl) SetLastRead(ctx context.Context, sensorID string, t time.Time, status models.SensorStatus) error {
	return is.iot.setLastRead(ctx, sensorID, t, status)
}

func (is *ISensorImpl) LookupSensor(ctx context.Context, sensorID string) (*models.Sensor, error) {
	return is.iot.lookupSensor(ctx, sensorID)
}

func (is *ISensorImpl) ListSimulatedSensors(ctx context.Context) ([]models.Sensor, error) {
	return is.iot.listSimulatedSensors(ctx)
}

func (i *IOT) GetISensor() ISensor {
	return &ISensorImpl{iot: i}
}
