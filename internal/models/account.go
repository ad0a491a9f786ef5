package models

import "github.com/shopspring/decimal"

// AccountType represents the type of bank account
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

// Account is a bank account. Accounts without an owner are joint and
// visible to every adult; personal accounts are visible to their owner only.
type Account struct {
	Base
	Name        string          `gorm:"not null" json:"name"`
	Type        AccountType     `gorm:"not null" json:"account_type"`
	Description string          `json:"description"`
	Balance     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	OwnerID     *uint           `gorm:"index" json:"owner_id"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
}

// IsJoint reports whether the account is shared by the household.
func (a *Account) IsJoint() bool { return a.OwnerID == nil }

// VisibleTo reports whether userID may see the account.
func (a *Account) VisibleTo(userID uint) bool {
	return a.OwnerID == nil || *a.OwnerID == userID
}
