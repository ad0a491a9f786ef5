package budget

import "github.com/shopspring/decimal"

// Allocation is the stored budget for one user and month.
type Allocation struct {
	Base        decimal.Decimal
	Carryover   decimal.Decimal
	Exceptional bool
}

// SummaryInput is everything BuildSummary needs, already loaded.
type SummaryInput struct {
	Period Period
	// Record is nil when no budget row exists for the period.
	Record *Allocation
	// DefaultBudget is the user's account-level allowance, nil when unset.
	DefaultBudget *decimal.Decimal
	Spent         decimal.Decimal
	ExpenseCount  int64
}

// Summary reports budget against spend for a month. Pointer fields are null
// when the user has no budget for the month.
type Summary struct {
	MonthlyBudget        *decimal.Decimal `json:"monthly_budget"`
	CarryoverAmount      decimal.Decimal  `json:"carryover_amount"`
	TotalAvailableBudget *decimal.Decimal `json:"total_available_budget"`
	TotalSpent           decimal.Decimal  `json:"total_spent"`
	RemainingBudget      *decimal.Decimal `json:"remaining_budget"`
	CarryoverToNext      *decimal.Decimal `json:"carryover_to_next"`
	IsExceptional        bool             `json:"is_exceptional"`
	ExpenseCount         int64            `json:"expense_count"`
	CurrentMonth         string           `json:"current_month"`
}

// BuildSummary resolves the month's budget (stored record, then the user
// default, then none) and derives availability, remainder and the amount
// that could be carried into the next month. Carryover is never applied here.
func BuildSummary(in SummaryInput) Summary {
	s := Summary{
		CarryoverAmount: decimal.Zero,
		TotalSpent:      in.Spent.Round(2),
		ExpenseCount:    in.ExpenseCount,
		CurrentMonth:    in.Period.String(),
	}

	var monthly *decimal.Decimal
	switch {
	case in.Record != nil:
		base := in.Record.Base
		monthly = &base
		s.CarryoverAmount = in.Record.Carryover.Round(2)
		s.IsExceptional = in.Record.Exceptional
	case in.DefaultBudget != nil:
		def := *in.DefaultBudget
		monthly = &def
	}
	if monthly == nil {
		return s
	}

	m := monthly.Round(2)
	available := m.Add(s.CarryoverAmount)
	remaining := available.Sub(s.TotalSpent)
	s.MonthlyBudget = &m
	s.TotalAvailableBudget = &available
	s.RemainingBudget = &remaining
	if remaining.IsPositive() {
		next := remaining
		s.CarryoverToNext = &next
	}
	return s
}

// Carryover is what remains of base plus carried after spent, floored at zero.
func Carryover(base, carried, spent decimal.Decimal) decimal.Decimal {
	remaining := base.Add(carried).Sub(spent)
	if remaining.IsPositive() {
		return remaining.Round(2)
	}
	return decimal.Zero
}
