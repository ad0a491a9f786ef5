package budget

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SplitType decides how a shared expense is divided between the two adults.
// The first party is the household's first adult, the second party the other.
type SplitType string

const (
	SplitEqual          SplitType = "50_50"
	SplitThirdFirst     SplitType = "33_67"
	SplitTwoThirdsFirst SplitType = "67_33"
	SplitAllSecond      SplitType = "100_marie"
	SplitAllFirst       SplitType = "100_seb"
)

// SplitTypes lists every accepted variant.
var SplitTypes = []SplitType{SplitEqual, SplitThirdFirst, SplitTwoThirdsFirst, SplitAllSecond, SplitAllFirst}

// Valid reports whether s is a known variant.
func (s SplitType) Valid() bool {
	switch s {
	case SplitEqual, SplitThirdFirst, SplitTwoThirdsFirst, SplitAllSecond, SplitAllFirst:
		return true
	}
	return false
}

// ParseSplitType rejects unknown strings.
func ParseSplitType(v string) (SplitType, error) {
	s := SplitType(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown split type %q", v)
	}
	return s, nil
}

var (
	two   = decimal.NewFromInt(2)
	three = decimal.NewFromInt(3)
)

// Shares divides amount into what the first and second party should pay.
// Thirds are not reconciled: the two shares may differ from amount in the
// last digits of the division precision.
func (s SplitType) Shares(amount decimal.Decimal) (first, second decimal.Decimal) {
	switch s {
	case SplitEqual:
		half := amount.Div(two)
		return half, half
	case SplitThirdFirst:
		return amount.Div(three), amount.Mul(two).Div(three)
	case SplitTwoThirdsFirst:
		return amount.Mul(two).Div(three), amount.Div(three)
	case SplitAllFirst:
		return amount, decimal.Zero
	case SplitAllSecond:
		return decimal.Zero, amount
	}
	return decimal.Zero, decimal.Zero
}

// SharedCharge is one shared expense as seen by the splitter.
type SharedCharge struct {
	Amount decimal.Decimal
	Split  SplitType
	// PaidBy is nil for a common expense nobody fronted.
	PaidBy *uint
}

// Balance is the running two-party position. A positive balance means the
// party owes the pool; a negative one means the party is owed.
type Balance struct {
	User1ID        uint            `json:"user1_id"`
	User2ID        uint            `json:"user2_id"`
	User1Paid      decimal.Decimal `json:"user1_paid"`
	User1ShouldPay decimal.Decimal `json:"user1_should_pay"`
	User1Balance   decimal.Decimal `json:"user1_balance"`
	User2Paid      decimal.Decimal `json:"user2_paid"`
	User2ShouldPay decimal.Decimal `json:"user2_should_pay"`
	User2Balance   decimal.Decimal `json:"user2_balance"`
}

// SplitBalance accumulates paid and owed amounts for the two parties.
// Charges paid by someone else are ignored. Common charges count toward what
// each party should pay but not toward what either paid. Amounts are
// accumulated at full precision and rounded to cents only on output, so the
// two balances may be off by up to a cent.
func SplitBalance(user1, user2 uint, charges []SharedCharge) Balance {
	var paid1, paid2, owe1, owe2 decimal.Decimal
	for _, c := range charges {
		switch {
		case c.PaidBy == nil:
		case *c.PaidBy == user1:
			paid1 = paid1.Add(c.Amount)
		case *c.PaidBy == user2:
			paid2 = paid2.Add(c.Amount)
		default:
			continue
		}
		f, s := c.Split.Shares(c.Amount)
		owe1 = owe1.Add(f)
		owe2 = owe2.Add(s)
	}

	return Balance{
		User1ID:        user1,
		User2ID:        user2,
		User1Paid:      paid1.Round(2),
		User1ShouldPay: owe1.Round(2),
		User1Balance:   owe1.Sub(paid1).Round(2),
		User2Paid:      paid2.Round(2),
		User2ShouldPay: owe2.Round(2),
		User2Balance:   owe2.Sub(paid2).Round(2),
	}
}
