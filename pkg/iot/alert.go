package iot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/metrics"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

const (
	actorSystem = "system"

	defaultAlertPageSize = 50
	maxAlertPageSize     = 500
)

// TransitionEvent is one change of the alert state machine for a (sensor, metric).
type TransitionEvent struct {
	SensorID        string            `json:"sensor_id"`
	OwnerID         string            `json:"owner_id"`
	Metric          models.Metric     `json:"metric"`
	From            MachineState      `json:"from"`
	To              MachineState      `json:"to"`
	Transition      models.Transition `json:"transition"`
	AlertID         string            `json:"alert_id,omitempty"`
	PreviousAlertID string            `json:"previous_alert_id,omitempty"`
	Value           float64           `json:"value"`
	At              time.Time         `json:"at"`
}

// CommandResult is returned by acknowledge and resolve. Applied is false for
// a no-op; Transition is set when the command moved the machine.
type CommandResult struct {
	Alert      *models.AlertLive `json:"alert"`
	Applied    bool              `json:"applied"`
	Transition *TransitionEvent  `json:"transition,omitempty"`
}

type AlertQuery struct {
	OwnerID  string
	Status   models.AlertStatus
	Kind     models.AlertKind
	SensorID string
	Metric   models.Metric
	Since    *time.Time
	Limit    int
	Offset   int
}

type AlertPage struct {
	Alerts     []models.AlertLive `json:"alerts"`
	NextOffset *int               `json:"next_offset,omitempty"`
}

func alertLogger() *zap.Logger {
	return common.GetCoreLogger(common.LoggerCategoryIOTAlert)
}

func laterOf(t time.Time, others ...*time.Time) time.Time {
	for _, o := range others {
		if o != nil && o.After(t) {
			t = *o
		}
	}
	return t
}

func (i *IOT) processReading(ctx context.Context, sensor *models.Sensor, reading *models.Reading) []TransitionEvent {
	logger := alertLogger()

	eval := Evaluate(*reading, EffectiveThresholds(i.Config.Thresholds, sensor.Thresholds))

	var events []TransitionEvent
	for _, mv := range eval.Verdicts {
		key := machineKey{sensorID: sensor.ID, metric: mv.Metric}
		cur := i.machine.get(key)

		to, transition, changed := decide(cur.State, mv.Verdict)
		if !changed {
			if cur.State != StateClear {
				cur.LastSeen = mv.Value
				cur.dirty = true
				i.machine.set(key, cur)
			}
			continue
		}

		next, event, err := i.applyTransition(ctx, sensor, reading, mv, cur, to, transition)
		if err != nil {
			logger.Error("Failed to apply alert transition",
				zap.String("sensor_id", sensor.ID),
				zap.String("metric", string(mv.Metric)),
				zap.String("from", string(cur.State)),
				zap.String("to", string(to)),
				zap.Error(err),
			)
			continue
		}
		i.machine.set(key, next)
		metrics.AlertTransitions.WithLabelValues(string(mv.Metric), string(cur.State), string(to)).Inc()
		logger.Info("Alert transition", zap.Reflect("transition", event))
		events = append(events, event)
	}
	return events
}

// applyTransition writes the live rows and exactly one history row for a
// machine transition in one store transaction.
func (i *IOT) applyTransition(
	ctx context.Context,
	sensor *models.Sensor,
	reading *models.Reading,
	mv MetricVerdict,
	cur MachineSnapshot,
	to MachineState,
	transition models.Transition,
) (MachineSnapshot, TransitionEvent, error) {
	at := reading.T
	event := TransitionEvent{
		SensorID:   sensor.ID,
		OwnerID:    sensor.OwnerID,
		Metric:     mv.Metric,
		From:       cur.State,
		To:         to,
		Transition: transition,
		Value:      mv.Value,
		At:         at,
	}

	var opened *models.AlertLive
	err := i.Db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var closed *models.AlertLive
		if cur.State != StateClear && cur.AlertID != "" {
			var err error
			if closed, err = resolveLive(tx, cur.AlertID, at, actorSystem, mv.Value); err != nil {
				return err
			}
		}

		if to == StateClear {
			event.AlertID = cur.AlertID
			if closed == nil {
				return nil
			}
			return appendHistory(tx, closed, transition, "", actorSystem, at)
		}

		opened = &models.AlertLive{
			ID:        uuid.NewString(),
			SensorID:  sensor.ID,
			OwnerID:   sensor.OwnerID,
			Metric:    mv.Metric,
			Kind:      to.alertKind(),
			Status:    models.AlertStatusOpen,
			Value:     mv.Value,
			LastValue: mv.Value,
			Threshold: mv.Threshold,
			Message:   mv.Message(),
			OpenedAt:  at,
		}
		if err := tx.Create(opened).Error; err != nil {
			return err
		}
		event.AlertID = opened.ID
		event.PreviousAlertID = cur.AlertID
		return appendHistory(tx, opened, transition, cur.AlertID, actorSystem, at)
	})
	if err != nil {
		return cur, TransitionEvent{}, classifyStoreError(alertLogger(), "alert transition", err)
	}

	next := MachineSnapshot{State: to}
	if opened != nil {
		next.AlertID = opened.ID
		next.LastSeen = mv.Value
	}
	return next, event, nil
}

// resolveLive closes a live row. A row already gone (swept or deleted) is not
// an error; nil is returned.
func resolveLive(tx *gorm.DB, alertID string, at time.Time, actor string, lastValue float64) (*models.AlertLive, error) {
	var a models.AlertLive
	if err := tx.First(&a, "id = ?", alertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if a.Status == models.AlertStatusResolved {
		return &a, nil
	}
	resolvedAt := laterOf(at, &a.OpenedAt, a.AcknowledgedAt)
	a.Status = models.AlertStatusResolved
	a.ResolvedAt = &resolvedAt
	a.ResolvedBy = actor
	a.LastValue = lastValue
	if err := tx.Save(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func appendHistory(tx *gorm.DB, a *models.AlertLive, transition models.Transition, previousID, actor string, at time.Time) error {
	h := models.AlertHistory{
		AlertID:         a.ID,
		PreviousAlertID: previousID,
		Transition:      transition,
		Actor:           actor,
		SensorID:        a.SensorID,
		OwnerID:         a.OwnerID,
		Metric:          a.Metric,
		Kind:            a.Kind,
		Status:          a.Status,
		Value:           a.Value,
		Threshold:       a.Threshold,
		Message:         a.Message,
		OpenedAt:        a.OpenedAt,
		AcknowledgedAt:  a.AcknowledgedAt,
		ResolvedAt:      a.ResolvedAt,
		RecordedAt:      at,
	}
	return tx.Create(&h).Error
}

func (i *IOT) loadOwnedAlert(ctx context.Context, ownerID, alertID string) (*models.AlertLive, error) {
	if alertID == "" {
		return nil, invalidInput("alert id is required")
	}
	var a models.AlertLive
	if err := i.Db.Conn.WithContext(ctx).First(&a, "id = ?", alertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unknownAlert(alertID)
		}
		return nil, classifyStoreError(alertLogger(), "load alert", err)
	}
	if a.OwnerID != ownerID {
		e := unauthorized(a.SensorID)
		e.AlertID = alertID
		return nil, e
	}
	return &a, nil
}

// alertCommand runs fn on the freshly reloaded alert under the sensor lock.
// fn returns whether it changed the row; after, if set, runs once the change
// is committed and before the lock is released.
func (i *IOT) alertCommand(
	ctx context.Context,
	ownerID, alertID string,
	fn func(tx *gorm.DB, a *models.AlertLive) (bool, error),
	after func(result *CommandResult),
) (*CommandResult, error) {
	a, err := i.loadOwnedAlert(ctx, ownerID, alertID)
	if err != nil {
		return nil, err
	}

	unlock := i.locks.Lock(a.SensorID)
	defer unlock()

	result := &CommandResult{}
	err = i.Db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fresh models.AlertLive
		if err := tx.First(&fresh, "id = ?", alertID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return unknownAlert(alertID)
			}
			return err
		}
		result.Alert = &fresh
		applied, err := fn(tx, &fresh)
		result.Applied = applied
		return err
	})
	if err != nil {
		if KindOf(err) == KindConflict {
			return result, err
		}
		return nil, classifyStoreError(alertLogger(), "alert command", err)
	}
	if result.Applied && after != nil {
		after(result)
	}
	return result, nil
}

func (i *IOT) acknowledgeAlert(ctx context.Context, ownerID, alertID, actor string) (*CommandResult, error) {
	if actor == "" {
		actor = ownerID
	}
	result, err := i.alertCommand(ctx, ownerID, alertID, func(tx *gorm.DB, a *models.AlertLive) (bool, error) {
		switch a.Status {
		case models.AlertStatusResolved:
			return false, conflict(a.ID, string(a.Status), "cannot acknowledge a resolved alert")
		case models.AlertStatusAcknowledged:
			return false, nil
		}
		ackAt := laterOf(i.Clock.Now(), &a.OpenedAt)
		a.Status = models.AlertStatusAcknowledged
		a.AcknowledgedAt = &ackAt
		a.AcknowledgedBy = actor
		if err := tx.Save(a).Error; err != nil {
			return false, err
		}
		return true, appendHistory(tx, a, models.TransitionAcknowledge, "", actor, ackAt)
	}, nil)
	recordCommand("acknowledge", result, err)
	if err == nil && result.Applied {
		alertLogger().Info("Alert acknowledged", zap.String("alert_id", alertID), zap.String("actor", actor))
	}
	return result, err
}

func (i *IOT) resolveAlert(ctx context.Context, ownerID, alertID, actor string) (*CommandResult, error) {
	if actor == "" {
		actor = ownerID
	}
	result, err := i.alertCommand(ctx, ownerID, alertID, func(tx *gorm.DB, a *models.AlertLive) (bool, error) {
		if a.Status == models.AlertStatusResolved {
			return false, conflict(a.ID, string(a.Status), "alert is already resolved")
		}
		resolvedAt := laterOf(i.Clock.Now(), &a.OpenedAt, a.AcknowledgedAt)
		a.Status = models.AlertStatusResolved
		a.ResolvedAt = &resolvedAt
		a.ResolvedBy = actor
		if err := tx.Save(a).Error; err != nil {
			return false, err
		}
		return true, appendHistory(tx, a, models.TransitionManualResolve, "", actor, resolvedAt)
	}, func(result *CommandResult) {
		a := result.Alert
		key := machineKey{sensorID: a.SensorID, metric: a.Metric}
		snap := i.machine.get(key)
		if snap.AlertID != a.ID {
			return
		}
		i.machine.set(key, MachineSnapshot{State: StateClear})
		result.Transition = &TransitionEvent{
			SensorID:   a.SensorID,
			OwnerID:    a.OwnerID,
			Metric:     a.Metric,
			From:       snap.State,
			To:         StateClear,
			Transition: models.TransitionManualResolve,
			AlertID:    a.ID,
			Value:      snap.LastSeen,
			At:         *a.ResolvedAt,
		}
		metrics.AlertTransitions.WithLabelValues(string(a.Metric), string(snap.State), string(StateClear)).Inc()
	})
	recordCommand("resolve", result, err)
	if err != nil || !result.Applied {
		return result, err
	}

	alertLogger().Info("Alert resolved", zap.String("alert_id", alertID), zap.String("actor", actor))
	return result, nil
}

func recordCommand(command string, result *CommandResult, err error) {
	outcome := "applied"
	switch {
	case err != nil:
		outcome = KindOf(err).String()
	case result != nil && !result.Applied:
		outcome = "noop"
	}
	metrics.AlertCommands.WithLabelValues(command, outcome).Inc()
}

func (i *IOT) queryAlerts(ctx context.Context, q AlertQuery) (*AlertPage, error) {
	if q.OwnerID == "" {
		return nil, invalidInput("owner id is required")
	}
	switch q.Status {
	case "", models.AlertStatusOpen, models.AlertStatusAcknowledged, models.AlertStatusResolved:
	default:
		return nil, invalidInput("unknown alert status %q", q.Status)
	}
	switch q.Kind {
	case "", models.AlertKindInfo, models.AlertKindWarning, models.AlertKindCritical:
	default:
		return nil, invalidInput("unknown alert kind %q", q.Kind)
	}
	switch q.Metric {
	case "", models.MetricCO2, models.MetricTemperature, models.MetricHumidity:
	default:
		return nil, invalidInput("unknown metric %q", q.Metric)
	}
	if q.Offset < 0 {
		return nil, invalidInput("offset must not be negative")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultAlertPageSize
	}
	limit = min(limit, maxAlertPageSize)

	tx := i.Db.Conn.WithContext(ctx).Where("owner_id = ?", q.OwnerID)
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Kind != "" {
		tx = tx.Where("kind = ?", q.Kind)
	}
	if q.SensorID != "" {
		tx = tx.Where("sensor_id = ?", q.SensorID)
	}
	if q.Metric != "" {
		tx = tx.Where("metric = ?", q.Metric)
	}
	if q.Since != nil {
		tx = tx.Where("opened_at >= ?", q.Since.UTC())
	}

	var rows []models.AlertLive
	err := tx.Order("opened_at desc").Order("id desc").Offset(q.Offset).Limit(limit + 1).Find(&rows).Error
	if err != nil {
		return nil, classifyStoreError(alertLogger(), "query alerts", err)
	}

	page := &AlertPage{Alerts: rows}
	if len(rows) > limit {
		page.Alerts = rows[:limit]
		next := q.Offset + limit
		page.NextOffset = &next
	}
	return page, nil
}

// rebuildMachine restores machine state from the non-resolved live rows.
func (i *IOT) rebuildMachine(ctx context.Context) error {
	var live []models.AlertLive
	err := i.Db.Conn.WithContext(ctx).
		Where("status <> ?", models.AlertStatusResolved).
		Order("opened_at asc").
		Find(&live).Error
	if err != nil {
		return classifyStoreError(alertLogger(), "rebuild alert machine", err)
	}
	for _, a := range live {
		i.machine.set(machineKey{sensorID: a.SensorID, metric: a.Metric}, MachineSnapshot{
			State:    stateForKind(a.Kind),
			AlertID:  a.ID,
			LastSeen: a.LastValue,
		})
	}
	alertLogger().Info("Alert machine rebuilt", zap.Int("open_alerts", len(live)))
	return nil
}

// OpenStates lists the machine's non-clear entries by sensor and metric.
func (i *IOT) OpenStates() map[string]map[models.Metric]MachineSnapshot {
	out := map[string]map[models.Metric]MachineSnapshot{}
	i.machine.entries.Range(func(k, v any) bool {
		key := k.(machineKey)
		if out[key.sensorID] == nil {
			out[key.sensorID] = map[models.Metric]MachineSnapshot{}
		}
		out[key.sensorID][key.metric] = v.(MachineSnapshot)
		return true
	})
	return out
}

// flushLastSeen writes dirty last_seen_value entries to alerts_live.last_value.
func (i *IOT) flushLastSeen(ctx context.Context) (int, error) {
	flushed := 0
	for key, snap := range i.machine.dirtyEntries() {
		if snap.AlertID == "" {
			continue
		}
		err := i.Db.Conn.WithContext(ctx).
			Model(&models.AlertLive{}).
			Where("id = ? AND status <> ?", snap.AlertID, models.AlertStatusResolved).
			Update("last_value", snap.LastSeen).Error
		if err != nil {
			return flushed, classifyStoreError(alertLogger(), "flush last seen", err)
		}
		i.machine.markClean(key, snap)
		flushed++
	}
	return flushed, nil
}

// RunLastSeenFlush flushes on the configured interval until ctx ends, then once more.
func (i *IOT) RunLastSeenFlush(ctx context.Context) {
	logger := alertLogger()
	ticker := time.NewTicker(i.Config.LastSeenFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if _, err := i.Alert.FlushLastSeen(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("Final last seen flush failed", zap.Error(err))
			}
			return
		case <-ticker.C:
			if n, err := i.Alert.FlushLastSeen(ctx); err != nil {
				logger.Warn("Last seen flush failed", zap.Error(err))
			} else if n > 0 {
				logger.Debug("Flushed last seen values", zap.Int("count", n))
			}
		}
	}
}

type IAlertImpl struct {
	iot *IOT
}

func (ia *IAlertImpl) ProcessReading(ctx context.Context, sensor *models.Sensor, reading *models.Reading) []TransitionEvent {
	return ia.iot.processReading(ctx, sensor, reading)
}

func (ia *IAlertImpl) AcknowledgeAlert(ctx context.Context, ownerID, alertID, actor string) (*CommandResult, error) {
	return ia.iot.acknowledgeAlert(ctx, ownerID, alertID, actor)
}

func (ia *IAlertImpl) ResolveAlert(ctx context.Context, ownerID, alertID, actor string) (*CommandResult, error) {
	return ia.iot.resolveAlert(ctx, ownerID, alertID, actor)
}

func (ia *IAlertImpl) QueryAlerts(ctx context.Context, q AlertQuery) (*AlertPage, error) {
	return ia.iot.queryAlerts(ctx, q)
}

func (ia *IAlertImpl) MachineState(sensorID string, metric models.Metric) MachineSnapshot {
	return ia.iot.machine.get(machineKey{sensorID: sensorID, metric: metric})
}

func (ia *IAlertImpl) ForgetSensor(sensorID string) {
	ia.iot.machine.forget(sensorID)
}

func (ia *IAlertImpl) RebuildMachine(ctx context.Context) error {
	return ia.iot.rebuildMachine(ctx)
}

func (ia *IAlertImpl) FlushLastSeen(ctx context.Context) (int, error) {
	return ia.iot.flushLastSeen(ctx)
}

func (i *IOT) GetIAlert() IAlert {
	return &IAlertImpl{iot: i}
}
