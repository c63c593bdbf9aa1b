package habits

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// HabitType enumerates the supported habit semantics.
type HabitType string

const (
	// HabitTypeYesNo tracks binary daily completion.
	HabitTypeYesNo HabitType = "yes_no"
	// HabitTypeMeasurable tracks a numeric daily amount against a goal.
	HabitTypeMeasurable HabitType = "measurable"
	// HabitTypeQuit tracks abstinence; a log entry records a relapse.
	HabitTypeQuit HabitType = "quit"
)

const maxHabitNameLength = 255

// DateLayout is the canonical calendar-date encoding for habit logs.
const DateLayout = time.DateOnly

var (
	// ErrHabitNotFound indicates the referenced habit does not exist.
	ErrHabitNotFound = errors.New("habits: habit not found")
	// ErrNotOwner indicates the caller does not own the referenced habit.
	ErrNotOwner = errors.New("habits: caller is not the habit owner")
)

// ValidationError reports malformed or type-inconsistent input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("habits: invalid input: %s", e.Message)
	}
	return fmt.Sprintf("habits: invalid %s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether the error is a ValidationError.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// ParseHabitType validates raw input and returns a HabitType.
func ParseHabitType(rawInput string) (HabitType, error) {
	switch HabitType(strings.TrimSpace(rawInput)) {
	case HabitTypeYesNo:
		return HabitTypeYesNo, nil
	case HabitTypeMeasurable:
		return HabitTypeMeasurable, nil
	case HabitTypeQuit:
		return HabitTypeQuit, nil
	default:
		return "", newValidationError("type", fmt.Sprintf("unknown habit type %q", rawInput))
	}
}

// Habit models a user-owned tracked behavior.
type Habit struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	OwnerID     uint64    `gorm:"column:owner_id;not null;index:idx_habits_owner"`
	Name        string    `gorm:"column:name;size:255;not null"`
	Description string    `gorm:"column:description;type:text"`
	Type        HabitType `gorm:"column:habit_type;size:32;not null"`
	Goal        *float64  `gorm:"column:goal"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Habit) TableName() string {
	return "habits"
}

// HabitLog models one calendar-day observation for a habit.
// (habit_id, log_date) is the natural key; the unique index backs the
// ON CONFLICT upsert in the recorder.
type HabitLog struct {
	ID           uint64   `gorm:"column:id;primaryKey;autoIncrement"`
	HabitID      uint64   `gorm:"column:habit_id;not null;uniqueIndex:idx_logs_habit_date,priority:1"`
	LogDate      string   `gorm:"column:log_date;size:10;not null;uniqueIndex:idx_logs_habit_date,priority:2"`
	BoolValue    *bool    `gorm:"column:bool_value"`
	NumericValue *float64 `gorm:"column:numeric_value"`
	Note         string   `gorm:"column:note;type:text"`
}

// TableName provides the explicit table binding for GORM.
func (HabitLog) TableName() string {
	return "habit_logs"
}

// Date parses the stored calendar date.
func (l HabitLog) Date() (time.Time, error) {
	return time.Parse(DateLayout, l.LogDate)
}
