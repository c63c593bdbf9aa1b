package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minNameLength     = 3
	maxNameLength     = 100
	minPasswordLength = 8
)

var (
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("users: email already registered")
	// ErrInvalidCredentials indicates the email/password pair did not match
	// an active account.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrUserNotFound indicates the referenced account does not exist.
	ErrUserNotFound = errors.New("users: user not found")

	errMissingDatabase = errors.New("users: database connection required")
)

// ValidationError reports malformed registration or profile input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("users: invalid %s: %s", e.Field, e.Message)
}

// ServiceConfig describes the dependencies of the account service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages registered accounts and credential checks.
type Service struct {
	db     *gorm.DB
	now    func() time.Time
	logger *zap.Logger
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, now: clock, logger: logger}, nil
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a new active account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	name := strings.TrimSpace(input.Name)
	if len(name) < minNameLength {
		return User{}, &ValidationError{Field: "name", Message: fmt.Sprintf("name must have at least %d characters", minNameLength)}
	}
	if len(name) > maxNameLength {
		return User{}, &ValidationError{Field: "name", Message: fmt.Sprintf("name must not exceed %d characters", maxNameLength)}
	}
	email := normalizeEmail(input.Email)
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return User{}, &ValidationError{Field: "email", Message: "email address is malformed"}
	}
	if len(input.Password) < minPasswordLength {
		return User{}, &ValidationError{Field: "password", Message: fmt.Sprintf("password must have at least %d characters", minPasswordLength)}
	}

	var existing User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&existing).Error
	if err == nil {
		return User{}, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("user lookup failed", zap.Error(err))
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	account := User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         RoleUser,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		s.logger.Error("user insert failed", zap.Error(err))
		return User{}, err
	}
	return account, nil
}

// Authenticate verifies an email/password pair against an active account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	var account User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("user lookup failed", zap.Error(err))
		return User{}, err
	}
	if !account.Active {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return account, nil
}

// Get loads one account by id.
func (s *Service) Get(ctx context.Context, userID uint64) (User, error) {
	var account User
	err := s.db.WithContext(ctx).Take(&account, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		s.logger.Error("user lookup failed", zap.Error(err), zap.Uint64("user_id", userID))
		return User{}, err
	}
	return account, nil
}

// UpdateProfile applies a partial profile update. Nil fields are unchanged.
func (s *Service) UpdateProfile(ctx context.Context, userID uint64, name *string) (User, error) {
	account, err := s.Get(ctx, userID)
	if err != nil {
		return User{}, err
	}

	updates := map[string]interface{}{}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if len(trimmed) < minNameLength {
			return User{}, &ValidationError{Field: "name", Message: fmt.Sprintf("name must have at least %d characters", minNameLength)}
		}
		if len(trimmed) > maxNameLength {
			return User{}, &ValidationError{Field: "name", Message: fmt.Sprintf("name must not exceed %d characters", maxNameLength)}
		}
		updates["name"] = trimmed
		account.Name = trimmed
	}
	if len(updates) == 0 {
		return User{}, &ValidationError{Field: "profile", Message: "at least one field must be supplied"}
	}
	updates["updated_at"] = s.now().UTC()

	if err := s.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", userID).
		Updates(updates).Error; err != nil {
		s.logger.Error("profile update failed", zap.Error(err), zap.Uint64("user_id", userID))
		return User{}, err
	}
	return account, nil
}
