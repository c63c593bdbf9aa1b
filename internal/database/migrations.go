package database

import (
	"errors"
	"time"

	"github.com/rutina-app/backend/internal/habits"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationTruncateLogDates = "2026-07-18_truncate_log_dates"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationTruncateLogDates, apply: truncateLogDates},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// truncateLogDates repairs rows imported with a trailing time component so
// every log date satisfies the day-granularity key.
func truncateLogDates(db *gorm.DB) error {
	return db.Model(&habits.HabitLog{}).
		Where("length(log_date) > 10").
		Update("log_date", gorm.Expr("substr(log_date, 1, 10)")).Error
}
