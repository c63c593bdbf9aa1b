package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rutina-app/backend/internal/habits"
	"github.com/rutina-app/backend/internal/users"
	"go.uber.org/zap"
)

const (
	userIDContextKey = "rutina_user_id"
	roleContextKey   = "rutina_user_role"
)

var (
	errMissingTokenManager = errors.New("token manager dependency required")
	errMissingUserService  = errors.New("user service dependency required")
	errMissingCatalog      = errors.New("habit catalog dependency required")
	errMissingRecorder     = errors.New("log recorder dependency required")
	errMissingSummary      = errors.New("streak summary dependency required")
)

// TokenManager issues and validates session tokens.
type TokenManager interface {
	IssueToken(ctx context.Context, userID uint64, role string) (string, int64, error)
	ValidateToken(token string) (uint64, string, error)
}

// Dependencies wires the services the HTTP boundary exposes.
type Dependencies struct {
	TokenManager TokenManager
	UserService  *users.Service
	Catalog      *habits.Catalog
	Recorder     *habits.Recorder
	Summary      *habits.Summary
	Clock        func() time.Time
	Logger       *zap.Logger
}

// NewHTTPHandler builds the Gin router for the API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.UserService == nil {
		return nil, errMissingUserService
	}
	if deps.Catalog == nil {
		return nil, errMissingCatalog
	}
	if deps.Recorder == nil {
		return nil, errMissingRecorder
	}
	if deps.Summary == nil {
		return nil, errMissingSummary
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:   deps.TokenManager,
		accounts: deps.UserService,
		catalog:  deps.Catalog,
		recorder: deps.Recorder,
		summary:  deps.Summary,
		clock:    clock,
		logger:   logger,
	}

	router.POST("/auth/register", handler.handleRegister)
	router.POST("/auth/login", handler.handleLogin)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/habits", handler.handleListHabits)
	protected.POST("/habits", handler.handleCreateHabit)
	protected.PUT("/habits/:habitID", handler.handleUpdateHabit)
	protected.DELETE("/habits/:habitID", handler.handleDeleteHabit)
	protected.POST("/habits/:habitID/logs", handler.handleRecordLog)
	protected.GET("/dashboard", handler.handleDashboard)
	protected.GET("/profile", handler.handleGetProfile)
	protected.PUT("/profile", handler.handleUpdateProfile)

	return router, nil
}

type httpHandler struct {
	tokens   TokenManager
	accounts *users.Service
	catalog  *habits.Catalog
	recorder *habits.Recorder
	summary  *habits.Summary
	clock    func() time.Time
	logger   *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	userID, role, err := h.tokens.ValidateToken(strings.TrimSpace(token))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.Set(userIDContextKey, userID)
	c.Set(roleContextKey, role)
	c.Next()
}

func (h *httpHandler) callerID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(userIDContextKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint64)
	return userID, ok && userID != 0
}

func parseHabitID(c *gin.Context) (uint64, bool) {
	habitID, err := strconv.ParseUint(c.Param("habitID"), 10, 64)
	if err != nil || habitID == 0 {
		return 0, false
	}
	return habitID, true
}
