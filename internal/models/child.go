package models

import (
	"time"

	"github.com/shopspring/decimal"

	"duobudget/internal/budget"
)

// ChildMonthlyBudget is a child's allowance for one calendar month. Version
// increases on every write and guards updates against lost races.
type ChildMonthlyBudget struct {
	Base
	UserID          uint            `gorm:"not null;uniqueIndex:uq_user_month_budget" json:"user_id"`
	Year            int             `gorm:"not null;uniqueIndex:uq_user_month_budget" json:"year"`
	Month           int             `gorm:"not null;uniqueIndex:uq_user_month_budget" json:"month"`
	BaseAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"base_amount"`
	CarryoverAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"carryover_amount"`
	IsExceptional   bool            `gorm:"not null;default:false" json:"is_exceptional"`
	Notes           string          `json:"notes"`
	Version         int             `gorm:"not null;default:1" json:"version"`
}

// Period is the month the budget covers.
func (b *ChildMonthlyBudget) Period() budget.Period {
	return budget.Period{Year: b.Year, Month: b.Month}
}

// ChildExpense is a purchase recorded against a child's allowance. BudgetID
// is a weak link to the month's budget, resolved from PurchaseDate on create.
type ChildExpense struct {
	Base
	UserID       uint            `gorm:"not null;index" json:"user_id"`
	Description  string          `gorm:"not null" json:"description"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PurchaseDate time.Time       `gorm:"type:date;not null;index" json:"purchase_date"`
	Notes        string          `json:"notes"`
	ProductURL   string          `json:"product_url"`
	BudgetID     *uint           `gorm:"index" json:"budget_id"`
}
