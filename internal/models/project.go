package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project is a savings goal funded by contributions.
type Project struct {
	Base
	Name          string          `gorm:"not null" json:"name"`
	Description   string          `json:"description"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"current_amount"`
	Deadline      *time.Time      `json:"deadline"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	IsCompleted   bool            `gorm:"default:false" json:"is_completed"`
}

// ProgressPercentage is current over target as a percentage, 0 for a zero target.
func (p *Project) ProgressPercentage() float64 {
	if p.TargetAmount.IsZero() {
		return 0
	}
	pct, _ := p.CurrentAmount.Div(p.TargetAmount).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return pct
}

// ProjectContribution is money put toward a project by a user.
type ProjectContribution struct {
	Base
	ProjectID uint            `gorm:"not null;index" json:"project_id"`
	UserID    uint            `gorm:"not null" json:"user_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Note      string          `json:"note"`
}
