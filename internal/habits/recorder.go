package habits

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errMissingCatalog = errors.New("habit catalog is required")

const (
	opRecorderNew = "habits.recorder.new"
	opRecordLog   = "habits.record_log"
)

// RecorderConfig describes the dependencies of the log recorder.
type RecorderConfig struct {
	Database *gorm.DB
	Catalog  *Catalog
	Logger   *zap.Logger
}

// Recorder validates a daily observation against the owning habit's type
// contract and upserts it. At most one log row exists per (habit, date).
type Recorder struct {
	db      *gorm.DB
	catalog *Catalog
	logger  *zap.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opRecorderNew, "missing_database", errMissingDatabase)
	}
	if cfg.Catalog == nil {
		return nil, newServiceError(opRecorderNew, "missing_catalog", errMissingCatalog)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Recorder{db: cfg.Database, catalog: cfg.Catalog, logger: logger}, nil
}

// RecordResult reports the surviving log row and whether the call created it.
type RecordResult struct {
	LogID   uint64
	Created bool
}

// Record validates the raw values against the owning habit's type and
// upserts the day's observation. Ownership is checked before the payload so
// a non-owner is rejected regardless of payload validity.
func (r *Recorder) Record(ctx context.Context, callerID, habitID uint64, date string, boolValue *bool, numericValue *float64, note string) (RecordResult, error) {
	habit, err := r.catalog.Get(ctx, habitID)
	if err != nil {
		return RecordResult{}, err
	}
	// Ownership, not role, governs recording. Non-owners are rejected even
	// when they hold elevated roles elsewhere in the product.
	if habit.OwnerID != callerID {
		return RecordResult{}, ErrNotOwner
	}

	observation, err := ObservationForType(habit.Type, boolValue, numericValue)
	if err != nil {
		return RecordResult{}, err
	}
	return r.upsert(ctx, habit, date, observation, note)
}

// RecordObservation is the typed entry point for callers that already hold
// an Observation variant.
func (r *Recorder) RecordObservation(ctx context.Context, callerID, habitID uint64, date string, observation Observation, note string) (RecordResult, error) {
	habit, err := r.catalog.Get(ctx, habitID)
	if err != nil {
		return RecordResult{}, err
	}
	if habit.OwnerID != callerID {
		return RecordResult{}, ErrNotOwner
	}
	if observation == nil {
		return RecordResult{}, newValidationError("", "an observation value is required")
	}
	if !observation.conformsTo(habit.Type) {
		return RecordResult{}, newValidationError("", "observation does not match the habit type")
	}
	return r.upsert(ctx, habit, date, observation, note)
}

// upsert persists one row for (habit, date). Recording again for an
// already-logged day overwrites the existing row; concurrent recordings for
// the same day converge to the last writer via the store's ON CONFLICT
// clause, never a duplicate-key failure.
func (r *Recorder) upsert(ctx context.Context, habit Habit, date string, observation Observation, note string) (RecordResult, error) {
	parsedDate, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return RecordResult{}, newValidationError("date", "date must use the YYYY-MM-DD format")
	}

	row := HabitLog{
		HabitID: habit.ID,
		LogDate: parsedDate.Format(DateLayout),
		Note:    strings.TrimSpace(note),
	}
	observation.apply(&row)

	// The created flag only shapes the boundary status code; a lost race
	// here still resolves to an update through the conflict clause below.
	var existing HabitLog
	created := false
	err = r.db.WithContext(ctx).
		Select("id").
		Where("habit_id = ? AND log_date = ?", row.HabitID, row.LogDate).
		Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created = true
	} else if err != nil {
		r.logError(opRecordLog, "lookup_failed", err, zap.Uint64("habit_id", habit.ID))
		return RecordResult{}, newServiceError(opRecordLog, "lookup_failed", err)
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "habit_id"}, {Name: "log_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"bool_value", "numeric_value", "note"}),
		}).
		Create(&row).Error; err != nil {
		r.logError(opRecordLog, "upsert_failed", err,
			zap.Uint64("habit_id", habit.ID),
			zap.String("log_date", row.LogDate))
		return RecordResult{}, newServiceError(opRecordLog, "upsert_failed", err)
	}

	// On the update path the driver's last-insert id is meaningless, so the
	// pre-looked-up identity wins; the reload covers the insert-lost-race.
	logID := existing.ID
	if logID == 0 {
		logID = row.ID
	}
	if logID == 0 {
		var stored HabitLog
		if err := r.db.WithContext(ctx).
			Select("id").
			Where("habit_id = ? AND log_date = ?", row.HabitID, row.LogDate).
			Take(&stored).Error; err != nil {
			r.logError(opRecordLog, "reload_failed", err, zap.Uint64("habit_id", habit.ID))
			return RecordResult{}, newServiceError(opRecordLog, "reload_failed", err)
		}
		logID = stored.ID
	}

	return RecordResult{LogID: logID, Created: created}, nil
}

func (r *Recorder) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.Error(err),
	}
	attrs = append(attrs, fields...)
	r.logger.Error("log recorder error", attrs...)
}
