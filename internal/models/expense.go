package models

import (
	"time"

	"github.com/shopspring/decimal"

	"duobudget/internal/budget"
)

// Expense is a shared household expense.
type Expense struct {
	Base
	Label       string           `gorm:"not null" json:"label"`
	Description string           `json:"description"`
	Amount      decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"amount"`
	Date        time.Time        `gorm:"type:date;not null;index" json:"date"`
	Frequency   budget.Frequency `gorm:"not null;default:'one_time'" json:"frequency"`
	SplitType   budget.SplitType `gorm:"not null;default:'50_50'" json:"split_type"`
	CategoryID  uint             `gorm:"not null;index" json:"category_id"`
	AccountID   uint             `gorm:"not null;index" json:"account_id"`
	// AssignedTo is the adult who paid; nil marks a common expense.
	AssignedTo  *uint `gorm:"index" json:"assigned_to"`
	CreatedBy   uint  `gorm:"not null" json:"created_by"`
	ProjectID   *uint `gorm:"index" json:"project_id"`
	IsRecurring bool  `gorm:"default:false" json:"is_recurring"`
	IsActive    bool  `gorm:"default:true" json:"is_active"`
}
