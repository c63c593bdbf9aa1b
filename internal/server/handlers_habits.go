package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rutina-app/backend/internal/habits"
	"go.uber.org/zap"
)

type habitPayload struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type"`
	Goal        *float64 `json:"goal,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

func habitToPayload(habit habits.Habit) habitPayload {
	return habitPayload{
		ID:          habit.ID,
		Name:        habit.Name,
		Description: habit.Description,
		Type:        string(habit.Type),
		Goal:        habit.Goal,
		CreatedAt:   habit.CreatedAt.UTC().Format(habits.DateLayout),
	}
}

func (h *httpHandler) writeHabitError(c *gin.Context, err error) {
	var validationErr *habits.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": validationErr.Message})
	case errors.Is(err, habits.ErrHabitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "habit_not_found"})
	case errors.Is(err, habits.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		payload := gin.H{"error": "internal_error"}
		var serviceErr *habits.ServiceError
		if errors.As(err, &serviceErr) {
			payload["code"] = serviceErr.Code()
		}
		h.logger.Error("habit operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, payload)
	}
}

func (h *httpHandler) handleListHabits(c *gin.Context) {
	callerID, ok := h.callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	owned, err := h.catalog.ListByOwner(c.Request.Context(), callerID)
	if err != nil {
		h.writeHabitError(c, err)
		return
	}

	payloads := make([]habitPayload, 0, len(owned))
	for _, habit := range owned {
		payloads = append(payloads, habitToPayload(habit))
	}
	c.JSON(http.StatusOK, gin.H{"habits": payloads})
}

type createHabitRequestPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Goal        *float64 `json:"goal"`
}

func (h *httpHandler) handleCreateHabit(c *gin.Context) {
	callerID, ok := h.callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request createHabitRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	habitType, err := habits.ParseHabitType(request.Type)
	if err != nil {
		h.writeHabitError(c, err)
		return
	}

	habit, err := h.catalog.Create(c.Request.Context(), callerID, habits.CreateHabitInput{
		Name:        request.Name,
		Description: request.Description,
		Type:        habitType,
		Goal:        request.Goal,
	})
	if err != nil {
		h.writeHabitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"habit": habitToPayload(habit)})
}

type updateHabitRequestPayload struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Goal        *float64 `json:"goal"`
}

func (h *httpHandler) handleUpdateHabit(c *gin.Context) {
	callerID, ok := h.callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	habitID, ok := parseHabitID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_habit_id"})
		return
	}

	var request updateHabitRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	err := h.catalog.Update(c.Request.Context(), habitID, callerID, habits.UpdateHabitInput{
		Name:        request.Name,
		Description: request.Description,
		Goal:        request.Goal,
	})
	if err != nil {
		h.writeHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *httpHandler) handleDeleteHabit(c *gin.Context) {
	callerID, ok := h.callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	habitID, ok := parseHabitID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_habit_id"})
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), habitID, callerID); err != nil {
		h.writeHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type recordLogRequestPayload struct {
	Date         string   `json:"date"`
	BoolValue    *bool    `json:"bool_value"`
	NumericValue *float64 `json:"numeric_value"`
	Note         string   `json:"note"`
}

func (h *httpHandler) handleRecordLog(c *gin.Context) {
	callerID, ok := h.callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	habitID, ok := parseHabitID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_habit_id"})
		return
	}

	var request recordLogRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	result, err := h.recorder.Record(c.Request.Context(), callerID, habitID, request.Date, request.BoolValue, request.NumericValue, request.Note)
	if err != nil {
		h.writeHabitError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"log_id": result.LogID, "created": result.Created})
}

type dashboardEntryPayload struct {
	Habit         habitPayload `json:"habit"`
	CurrentStreak int          `json:"current_streak"`
}

func (h *httpHandler) handleDashboard(c *gin.Context) {
	callerID, ok := h.callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	streaks, err := h.summary.ComputeStreaks(c.Request.Context(), callerID, h.clock())
	if err != nil {
		h.writeHabitError(c, err)
		return
	}

	entries := make([]dashboardEntryPayload, 0, len(streaks))
	for _, entry := range streaks {
		entries = append(entries, dashboardEntryPayload{
			Habit:         habitToPayload(entry.Habit),
			CurrentStreak: entry.CurrentStreak,
		})
	}
	c.JSON(http.StatusOK, gin.H{"habits": entries})
}
