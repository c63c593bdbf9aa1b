package habits

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

const (
	opCatalogNew  = "habits.catalog.new"
	opCreateHabit = "habits.create_habit"
	opUpdateHabit = "habits.update_habit"
	opDeleteHabit = "habits.delete_habit"
	opGetHabit    = "habits.get_habit"
	opListHabits  = "habits.list_habits"
)

// CatalogConfig describes the dependencies of the habit catalog.
type CatalogConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Catalog owns habit definitions and answers the ownership and type queries
// the recorder and streak computation rely on.
type Catalog struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewCatalog constructs a Catalog.
func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opCatalogNew, "missing_database", errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Catalog{db: cfg.Database, clock: clock, logger: logger}, nil
}

// CreateHabitInput carries the fields accepted at habit creation.
type CreateHabitInput struct {
	Name        string
	Description string
	Type        HabitType
	Goal        *float64
}

// Create validates the input and persists a new habit owned by ownerID.
func (c *Catalog) Create(ctx context.Context, ownerID uint64, input CreateHabitInput) (Habit, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Habit{}, newValidationError("name", "name is required")
	}
	if len(name) > maxHabitNameLength {
		return Habit{}, newValidationError("name", "name exceeds maximum length")
	}
	if _, err := ParseHabitType(string(input.Type)); err != nil {
		return Habit{}, err
	}

	var goal *float64
	if input.Type == HabitTypeMeasurable {
		if input.Goal == nil || *input.Goal <= 0 {
			return Habit{}, newValidationError("goal", "a measurable habit requires a goal greater than zero")
		}
		value := *input.Goal
		goal = &value
	}

	habit := Habit{
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Type:        input.Type,
		Goal:        goal,
		CreatedAt:   c.clock().UTC(),
	}
	if err := c.db.WithContext(ctx).Create(&habit).Error; err != nil {
		c.logError(opCreateHabit, "insert_failed", err, zap.Uint64("owner_id", ownerID))
		return Habit{}, newServiceError(opCreateHabit, "insert_failed", err)
	}
	return habit, nil
}

// UpdateHabitInput carries the optional fields of a partial habit update.
// Nil fields are left unchanged.
type UpdateHabitInput struct {
	Name        *string
	Description *string
	Goal        *float64
}

// Update applies a partial update to a habit after ownership checks.
func (c *Catalog) Update(ctx context.Context, habitID, callerID uint64, input UpdateHabitInput) error {
	if input.Name == nil && input.Description == nil && input.Goal == nil {
		return newValidationError("", "at least one field must be supplied")
	}

	habit, err := c.Get(ctx, habitID)
	if err != nil {
		return err
	}
	if habit.OwnerID != callerID {
		return ErrNotOwner
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return newValidationError("name", "name is required")
		}
		if len(name) > maxHabitNameLength {
			return newValidationError("name", "name exceeds maximum length")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Goal != nil {
		if habit.Type == HabitTypeMeasurable && *input.Goal <= 0 {
			return newValidationError("goal", "a measurable habit requires a goal greater than zero")
		}
		updates["goal"] = *input.Goal
	}

	if err := c.db.WithContext(ctx).
		Model(&Habit{}).
		Where("id = ?", habitID).
		Updates(updates).Error; err != nil {
		c.logError(opUpdateHabit, "update_failed", err, zap.Uint64("habit_id", habitID))
		return newServiceError(opUpdateHabit, "update_failed", err)
	}
	return nil
}

// Delete removes a habit and all of its logs in one transaction. No orphan
// log may survive the habit.
func (c *Catalog) Delete(ctx context.Context, habitID, callerID uint64) error {
	habit, err := c.Get(ctx, habitID)
	if err != nil {
		return err
	}
	if habit.OwnerID != callerID {
		return ErrNotOwner
	}

	txErr := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("habit_id = ?", habitID).Delete(&HabitLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Habit{}, habitID).Error
	})
	if txErr != nil {
		c.logError(opDeleteHabit, "delete_failed", txErr, zap.Uint64("habit_id", habitID))
		return newServiceError(opDeleteHabit, "delete_failed", txErr)
	}
	return nil
}

// Get loads one habit by id.
func (c *Catalog) Get(ctx context.Context, habitID uint64) (Habit, error) {
	var habit Habit
	err := c.db.WithContext(ctx).Take(&habit, habitID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Habit{}, ErrHabitNotFound
	}
	if err != nil {
		c.logError(opGetHabit, "query_failed", err, zap.Uint64("habit_id", habitID))
		return Habit{}, newServiceError(opGetHabit, "query_failed", err)
	}
	return habit, nil
}

// ListByOwner returns all habits owned by ownerID, newest first.
func (c *Catalog) ListByOwner(ctx context.Context, ownerID uint64) ([]Habit, error) {
	var owned []Habit
	if err := c.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&owned).Error; err != nil {
		c.logError(opListHabits, "query_failed", err, zap.Uint64("owner_id", ownerID))
		return nil, newServiceError(opListHabits, "query_failed", err)
	}
	return owned, nil
}

func (c *Catalog) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.Error(err),
	}
	attrs = append(attrs, fields...)
	c.logger.Error("habit catalog error", attrs...)
}
