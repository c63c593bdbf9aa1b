package habits

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:habits_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Habit{}, &HabitLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestCatalog(t *testing.T, db *gorm.DB, clock func() time.Time) *Catalog {
	t.Helper()

	catalog, err := NewCatalog(CatalogConfig{Database: db, Clock: clock})
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	return catalog
}

func newTestRecorder(t *testing.T, db *gorm.DB, catalog *Catalog) *Recorder {
	t.Helper()

	recorder, err := NewRecorder(RecorderConfig{Database: db, Catalog: catalog})
	if err != nil {
		t.Fatalf("failed to build recorder: %v", err)
	}
	return recorder
}

func newTestSummary(t *testing.T, db *gorm.DB, catalog *Catalog) *Summary {
	t.Helper()

	summary, err := NewSummary(SummaryConfig{Database: db, Catalog: catalog})
	if err != nil {
		t.Fatalf("failed to build summary: %v", err)
	}
	return summary
}

func boolPtr(value bool) *bool {
	return &value
}

func floatPtr(value float64) *float64 {
	return &value
}

func dayString(today time.Time, offsetDays int) string {
	return today.AddDate(0, 0, offsetDays).Format(DateLayout)
}

func trueLog(habitID uint64, date string) HabitLog {
	return HabitLog{HabitID: habitID, LogDate: date, BoolValue: boolPtr(true)}
}
