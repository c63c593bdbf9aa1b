package users

import (
	"strings"
	"time"
)

// Role labels a user's product-wide role. Roles never grant habit access;
// habit operations are gated by ownership alone.
type Role string

const (
	// RoleUser is the default role for registered accounts.
	RoleUser Role = "user"
	// RoleAdmin marks accounts with access to the administrative surface.
	RoleAdmin Role = "admin"
)

// User models a registered account.
type User struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:100;not null"`
	Name         string    `gorm:"column:name;size:100;not null"`
	Role         Role      `gorm:"column:role;size:32;not null;default:'user'"`
	Active       bool      `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing user accounts.
func (User) TableName() string {
	return "users"
}

// normalizeEmail lowers and trims an email for the unique index.
func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
