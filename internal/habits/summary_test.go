package habits

import (
	"context"
	"testing"
	"time"
)

func TestComputeStreaksReturnsOneEntryPerHabit(t *testing.T) {
	db := newTestDB(t)
	clock := func() time.Time { return streakToday.AddDate(0, 0, -30) }
	catalog := newTestCatalog(t, db, clock)
	recorder := newTestRecorder(t, db, catalog)
	summary := newTestSummary(t, db, catalog)

	yesNo := seedHabit(t, catalog, 7, HabitTypeYesNo, nil)
	quit := seedHabit(t, catalog, 7, HabitTypeQuit, nil)
	other := seedHabit(t, catalog, 8, HabitTypeYesNo, nil)

	for offset := -3; offset <= -1; offset++ {
		if _, err := recorder.Record(context.Background(), 7, yesNo.ID, dayString(streakToday, offset), boolPtr(true), nil, ""); err != nil {
			t.Fatalf("failed to record log: %v", err)
		}
	}
	if _, err := recorder.Record(context.Background(), 7, quit.ID, dayString(streakToday, -5), boolPtr(true), nil, "relapsed"); err != nil {
		t.Fatalf("failed to record relapse: %v", err)
	}
	if _, err := recorder.Record(context.Background(), 8, other.ID, dayString(streakToday, -1), boolPtr(true), nil, ""); err != nil {
		t.Fatalf("failed to record log: %v", err)
	}

	streaks, err := summary.ComputeStreaks(context.Background(), 7, streakToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(streaks) != 2 {
		t.Fatalf("expected one entry per owned habit, got %d", len(streaks))
	}

	byID := make(map[uint64]int, len(streaks))
	for _, entry := range streaks {
		byID[entry.Habit.ID] = entry.CurrentStreak
	}
	if byID[yesNo.ID] != 3 {
		t.Fatalf("expected yes/no streak of 3, got %d", byID[yesNo.ID])
	}
	if byID[quit.ID] != 5 {
		t.Fatalf("expected abstinence streak of 5, got %d", byID[quit.ID])
	}
	if _, found := byID[other.ID]; found {
		t.Fatalf("another owner's habit leaked into the batch")
	}
}

func TestComputeStreaksMatchesDirectComputation(t *testing.T) {
	db := newTestDB(t)
	clock := func() time.Time { return streakToday.AddDate(0, 0, -30) }
	catalog := newTestCatalog(t, db, clock)
	recorder := newTestRecorder(t, db, catalog)
	summary := newTestSummary(t, db, catalog)

	habit := seedHabit(t, catalog, 7, HabitTypeMeasurable, floatPtr(10))
	amounts := map[int]float64{-1: 15, -2: 10, -3: 4}
	for offset, amount := range amounts {
		if _, err := recorder.Record(context.Background(), 7, habit.ID, dayString(streakToday, offset), nil, floatPtr(amount), ""); err != nil {
			t.Fatalf("failed to record log: %v", err)
		}
	}

	var logs []HabitLog
	if err := db.Where("habit_id = ?", habit.ID).Order("log_date DESC").Find(&logs).Error; err != nil {
		t.Fatalf("failed to load logs: %v", err)
	}
	direct, err := CurrentStreak(habit, logs, streakToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	streaks, err := summary.ComputeStreaks(context.Background(), 7, streakToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(streaks) != 1 {
		t.Fatalf("expected a single entry, got %d", len(streaks))
	}
	if streaks[0].CurrentStreak != direct {
		t.Fatalf("batch result %d differs from direct computation %d", streaks[0].CurrentStreak, direct)
	}
	if direct != 2 {
		t.Fatalf("expected two goal-meeting days ending yesterday, got %d", direct)
	}
}

func TestComputeStreaksEmptyOwner(t *testing.T) {
	db := newTestDB(t)
	catalog := newTestCatalog(t, db, catalogClock)
	summary := newTestSummary(t, db, catalog)

	streaks, err := summary.ComputeStreaks(context.Background(), 42, streakToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(streaks) != 0 {
		t.Fatalf("expected no entries, got %d", len(streaks))
	}
}

func TestComputeStreaksDegradesBadRowToZero(t *testing.T) {
	db := newTestDB(t)
	clock := func() time.Time { return streakToday.AddDate(0, 0, -10) }
	catalog := newTestCatalog(t, db, clock)
	summary := newTestSummary(t, db, catalog)

	quit := seedHabit(t, catalog, 7, HabitTypeQuit, nil)
	healthy := seedHabit(t, catalog, 7, HabitTypeYesNo, nil)

	bad := HabitLog{HabitID: quit.ID, LogDate: "garbage", BoolValue: boolPtr(true)}
	if err := db.Create(&bad).Error; err != nil {
		t.Fatalf("failed to seed bad row: %v", err)
	}
	good := trueLog(healthy.ID, dayString(streakToday, -1))
	if err := db.Create(&good).Error; err != nil {
		t.Fatalf("failed to seed log: %v", err)
	}

	streaks, err := summary.ComputeStreaks(context.Background(), 7, streakToday)
	if err != nil {
		t.Fatalf("expected the batch to survive a bad row, got %v", err)
	}
	if len(streaks) != 2 {
		t.Fatalf("expected both habits in the batch, got %d", len(streaks))
	}
	byID := make(map[uint64]int, len(streaks))
	for _, entry := range streaks {
		byID[entry.Habit.ID] = entry.CurrentStreak
	}
	if byID[quit.ID] != 0 {
		t.Fatalf("expected the anomalous habit to degrade to 0, got %d", byID[quit.ID])
	}
	if byID[healthy.ID] != 1 {
		t.Fatalf("expected the healthy habit to keep its streak, got %d", byID[healthy.ID])
	}
}
