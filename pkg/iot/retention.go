package iot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/metrics"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

const (
	RetentionTargetReadings      = "readings"
	RetentionTargetAlertsHistory = "alerts_history"
	RetentionTargetAlertsLive    = "alerts_live"
)

// ErrCorruptCursor is the only error a sweep surfaces besides cancellation.
var ErrCorruptCursor = errors.New("retention cursor is corrupt")

type RetentionReport struct {
	Deleted  map[string]int64 `json:"deleted"`
	Paused   bool             `json:"paused"`
	Duration time.Duration    `json:"duration"`
}

func (r *RetentionReport) Total() int64 {
	var n int64
	for _, v := range r.Deleted {
		n += v
	}
	return n
}

// sweepTarget is one table and the predicate selecting expired rows.
// Rows are visited in primary key order so a cursor can resume a pass.
type sweepTarget struct {
	name      string
	model     any
	where     string
	args      []any
	numericID bool
}

func readingsTarget(cutoff time.Time) sweepTarget {
	return sweepTarget{
		name:      RetentionTargetReadings,
		model:     &models.Reading{},
		where:     "t < ?",
		args:      []any{cutoff.UTC()},
		numericID: true,
	}
}

func historyTarget(cutoff time.Time) sweepTarget {
	return sweepTarget{
		name:      RetentionTargetAlertsHistory,
		model:     &models.AlertHistory{},
		where:     "recorded_at < ?",
		args:      []any{cutoff.UTC()},
		numericID: true,
	}
}

func resolvedLiveTarget(cutoff time.Time) sweepTarget {
	return sweepTarget{
		name:  RetentionTargetAlertsLive,
		model: &models.AlertLive{},
		where: "status = ? AND resolved_at < ?",
		args:  []any{models.AlertStatusResolved, cutoff.UTC()},
	}
}

func (t sweepTarget) cursorArg(cursor string) (any, error) {
	if !t.numericID {
		return cursor, nil
	}
	if cursor == "" {
		return uint64(0), nil
	}
	n, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s cursor %q: %v", ErrCorruptCursor, t.name, cursor, err)
	}
	return n, nil
}

// nextBatch returns the ids of the next batch and the cursor after it.
func (t sweepTarget) nextBatch(tx *gorm.DB, after any, batch int) (any, string, int, error) {
	q := tx.Model(t.model).Where(t.where, t.args...).Where("id > ?", after).Order("id asc").Limit(batch)
	if t.numericID {
		var ids []uint64
		if err := q.Pluck("id", &ids).Error; err != nil || len(ids) == 0 {
			return nil, "", 0, err
		}
		return ids, strconv.FormatUint(ids[len(ids)-1], 10), len(ids), nil
	}
	var ids []string
	if err := q.Pluck("id", &ids).Error; err != nil || len(ids) == 0 {
		return nil, "", 0, err
	}
	return ids, ids[len(ids)-1], len(ids), nil
}

// deleteInBatches deletes expired rows of target starting after cursor. Each
// batch commits on its own together with save, if given. The returned cursor
// is empty once the pass reached the end of the table; otherwise it is where
// the next call should resume.
func deleteInBatches(
	ctx context.Context,
	conn *gorm.DB,
	target sweepTarget,
	cursor string,
	batch int,
	save func(tx *gorm.DB, cursor string) error,
) (int64, string, error) {
	if batch <= 0 {
		batch = 500
	}
	var deleted int64
	for {
		after, err := target.cursorArg(cursor)
		if err != nil {
			return deleted, cursor, err
		}
		if err := ctx.Err(); err != nil {
			return deleted, cursor, err
		}

		var n int64
		next := cursor
		done := false
		err = conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ids, last, count, err := target.nextBatch(tx, after, batch)
			if err != nil {
				return err
			}
			if count < batch {
				done = true
			}
			if count > 0 {
				res := tx.Where(target.where, target.args...).Where("id IN ?", ids).Delete(target.model)
				if res.Error != nil {
					return res.Error
				}
				n = res.RowsAffected
				next = last
			}
			if done {
				next = ""
			}
			if save != nil {
				return save(tx, next)
			}
			return nil
		})
		if err != nil {
			return deleted, cursor, err
		}
		deleted += n
		cursor = next
		if done {
			return deleted, "", nil
		}
	}
}

func retentionLogger() *zap.Logger {
	return common.GetCoreLogger(common.LoggerCategoryIOTRetention)
}

func (i *IOT) retentionTargets(now time.Time) []sweepTarget {
	day := 24 * time.Hour
	return []sweepTarget{
		readingsTarget(now.Add(-time.Duration(i.Config.ReadingRetentionDays) * day)),
		historyTarget(now.Add(-time.Duration(i.Config.AlertRetentionDays) * day)),
		resolvedLiveTarget(now.Add(-time.Duration(i.Config.ResolvedAlertRetentionDays) * day)),
	}
}

func (i *IOT) loadCursor(ctx context.Context, target string) (string, error) {
	var state models.RetentionState
	err := i.Db.Conn.WithContext(ctx).Where("target = ?", target).Limit(1).Find(&state).Error
	return state.Cursor, err
}

func saveCursor(target string, at time.Time) func(tx *gorm.DB, cursor string) error {
	return func(tx *gorm.DB, cursor string) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "target"}},
			DoUpdates: clause.AssignmentColumns([]string{"cursor", "updated_at"}),
		}).Create(&models.RetentionState{Target: target, Cursor: cursor, UpdatedAt: at}).Error
	}
}

// sweep runs one bounded pass over every target. Store failures are logged
// and the target skipped; the pass pauses when the budget runs out and the
// next pass resumes from the saved cursors.
func (i *IOT) sweep(ctx context.Context) (*RetentionReport, error) {
	logger := retentionLogger()
	started := time.Now()
	now := i.Clock.Now()

	budgetCtx, cancel := context.WithTimeout(ctx, i.Config.RetentionBudget)
	defer cancel()

	report := &RetentionReport{Deleted: map[string]int64{}}
	defer func() {
		report.Duration = time.Since(started)
		metrics.RetentionDuration.Observe(report.Duration.Seconds())
	}()

	for _, target := range i.retentionTargets(now) {
		if budgetCtx.Err() != nil {
			report.Paused = true
			break
		}
		cursor, err := i.loadCursor(budgetCtx, target.name)
		if err != nil {
			if budgetCtx.Err() != nil {
				report.Paused = true
				break
			}
			logger.Error("Failed to load retention cursor", zap.String("target", target.name), zap.Error(err))
			continue
		}

		deleted, next, err := deleteInBatches(budgetCtx, i.Db.Conn, target, cursor, i.Config.RetentionBatchSize, saveCursor(target.name, now))
		report.Deleted[target.name] = deleted
		metrics.RetentionDeleted.WithLabelValues(target.name).Add(float64(deleted))
		switch {
		case err == nil:
			logger.Debug("Retention target swept", zap.String("target", target.name), zap.Int64("deleted", deleted))
		case errors.Is(err, ErrCorruptCursor):
			logger.Error("Retention cursor is corrupt", zap.String("target", target.name), zap.Error(err))
			return report, err
		case budgetCtx.Err() != nil:
			report.Paused = true
			logger.Debug("Retention target interrupted", zap.String("target", target.name), zap.String("cursor", next))
		default:
			logger.Error("Retention target failed", zap.String("target", target.name), zap.Error(err))
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if report.Paused {
		metrics.RetentionPaused.Inc()
		logger.Info("Retention pass paused at budget", zap.Duration("budget", i.Config.RetentionBudget))
	}
	logger.Info("Retention pass finished",
		zap.Reflect("deleted", report.Deleted),
		zap.Bool("paused", report.Paused),
	)
	return report, nil
}

// RunRetention sweeps on the configured interval until ctx ends. It returns
// early only when a cursor is corrupt.
func (i *IOT) RunRetention(ctx context.Context) error {
	ticker := time.NewTicker(i.Config.RetentionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := i.Retention.Sweep(ctx); errors.Is(err, ErrCorruptCursor) {
				return err
			}
		}
	}
}

type IRetentionImpl struct {
	iot *IOT
}

func (ir *IRetentionImpl) Sweep(ctx context.Context) (*RetentionReport, error) {
	return ir.iot.sweep(ctx)
}

func (i *IOT) GetIRetention() IRetention {
	return &IRetentionImpl{iot: i}
}
