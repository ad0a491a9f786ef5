package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserRole controls what a user may reach.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleChild UserRole = "child"
)

// User represents a household member.
type User struct {
	Base
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Username         string     `gorm:"uniqueIndex;not null" json:"username"`
	Password         string     `json:"-"`
	FullName         string     `json:"full_name"`
	Role             UserRole   `gorm:"not null;default:'user'" json:"role"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	PasswordSet      bool       `gorm:"default:false" json:"password_set"`
	RefreshTokenHash string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	// MonthlyBudget is the default allowance used for months without a
	// budget record. Only meaningful for children.
	MonthlyBudget *decimal.Decimal `gorm:"type:decimal(12,2)" json:"monthly_budget"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
