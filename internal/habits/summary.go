package habits

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opSummaryNew     = "habits.summary.new"
	opComputeStreaks = "habits.compute_streaks"
)

// SummaryConfig describes the dependencies of the streak summary reader.
type SummaryConfig struct {
	Database *gorm.DB
	Catalog  *Catalog
	Logger   *zap.Logger
}

// Summary produces the dashboard view: every habit a user owns with its
// current streak.
type Summary struct {
	db      *gorm.DB
	catalog *Catalog
	logger  *zap.Logger
}

// NewSummary constructs a Summary.
func NewSummary(cfg SummaryConfig) (*Summary, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opSummaryNew, "missing_database", errMissingDatabase)
	}
	if cfg.Catalog == nil {
		return nil, newServiceError(opSummaryNew, "missing_catalog", errMissingCatalog)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Summary{db: cfg.Database, catalog: cfg.Catalog, logger: logger}, nil
}

// HabitStreak pairs a habit with its derived current streak.
type HabitStreak struct {
	Habit         Habit
	CurrentStreak int
}

// ComputeStreaks loads all habits for ownerID, reads their logs in one
// batched query, and derives each habit's streak. A habit with anomalous log
// data degrades to streak zero without aborting the rest of the batch.
func (s *Summary) ComputeStreaks(ctx context.Context, ownerID uint64, today time.Time) ([]HabitStreak, error) {
	owned, err := s.catalog.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return []HabitStreak{}, nil
	}

	habitIDs := make([]uint64, 0, len(owned))
	for _, habit := range owned {
		habitIDs = append(habitIDs, habit.ID)
	}

	var logs []HabitLog
	if err := s.db.WithContext(ctx).
		Where("habit_id IN ?", habitIDs).
		Order("log_date DESC").
		Find(&logs).Error; err != nil {
		s.logger.Error("streak summary error",
			zap.String("operation", opComputeStreaks),
			zap.String("reason", "log_query_failed"),
			zap.Error(err),
			zap.Uint64("owner_id", ownerID))
		return nil, newServiceError(opComputeStreaks, "log_query_failed", err)
	}

	logsByHabit := make(map[uint64][]HabitLog, len(owned))
	for _, log := range logs {
		logsByHabit[log.HabitID] = append(logsByHabit[log.HabitID], log)
	}

	streaks := make([]HabitStreak, 0, len(owned))
	for _, habit := range owned {
		streak, err := CurrentStreak(habit, logsByHabit[habit.ID], today)
		if err != nil {
			s.logger.Warn("streak computation degraded",
				zap.String("operation", opComputeStreaks),
				zap.Uint64("habit_id", habit.ID),
				zap.Error(err))
			streak = 0
		}
		streaks = append(streaks, HabitStreak{Habit: habit, CurrentStreak: streak})
	}
	return streaks, nil
}
