package habits

import "time"

// CurrentStreak derives the habit's current streak from its log history.
// "today" is supplied by the caller so the computation stays a pure function
// of its inputs. Quit habits count whole days since the last relapse; the
// other types count the unbroken run of completed days ending today or
// yesterday.
func CurrentStreak(habit Habit, logs []HabitLog, today time.Time) (int, error) {
	if habit.Type == HabitTypeQuit {
		return abstinenceStreak(habit.CreatedAt, logs, today)
	}
	return completionStreak(habit, logs, today), nil
}

// abstinenceStreak counts whole calendar days between the most recent log
// (any log is a relapse; absence is the success signal) and today. With no
// logs the habit's creation date anchors the count.
func abstinenceStreak(createdAt time.Time, logs []HabitLog, today time.Time) (int, error) {
	anchor := dayFloor(createdAt)
	for _, log := range logs {
		logged, err := log.Date()
		if err != nil {
			return 0, newValidationError("log_date", "stored log date is not a calendar date")
		}
		if floored := dayFloor(logged); floored.After(anchor) {
			anchor = floored
		}
	}
	return daysBetween(anchor, dayFloor(today)), nil
}

// completionStreak walks backward from today (or yesterday, when today has
// not been logged yet) while each day is in the completed set. A logged
// false is indistinguishable from no log at all. A measurable day is
// complete when its amount meets the goal; the original product only
// credited boolean-true rows here, which left measurable streaks pinned at
// zero, and that gap is deliberately closed.
func completionStreak(habit Habit, logs []HabitLog, today time.Time) int {
	completed := make(map[string]struct{}, len(logs))
	for _, log := range logs {
		if isCompletedDay(habit, log) {
			completed[log.LogDate] = struct{}{}
		}
	}

	cursor := dayFloor(today)
	if _, ok := completed[cursor.Format(DateLayout)]; !ok {
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := completed[cursor.Format(DateLayout)]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

func isCompletedDay(habit Habit, log HabitLog) bool {
	if log.BoolValue != nil && *log.BoolValue {
		return true
	}
	if habit.Type == HabitTypeMeasurable && log.NumericValue != nil && habit.Goal != nil {
		return *log.NumericValue >= *habit.Goal
	}
	return false
}

func dayFloor(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysBetween(start, end time.Time) int {
	days := int(end.Sub(start).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
