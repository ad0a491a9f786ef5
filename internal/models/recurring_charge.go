package models

import (
	"github.com/shopspring/decimal"

	"duobudget/internal/budget"
)

// RecurringCharge is a fixed bill used for budget planning.
type RecurringCharge struct {
	Base
	Name        string                 `gorm:"not null" json:"name"`
	Description string                 `json:"description"`
	Amount      decimal.Decimal        `gorm:"type:decimal(12,2);not null" json:"amount"`
	Frequency   budget.ChargeFrequency `gorm:"size:20;not null;default:'monthly'" json:"frequency"`
	CategoryID  uint                   `gorm:"not null;index" json:"category_id"`
	IsActive    bool                   `gorm:"default:true" json:"is_active"`
}
