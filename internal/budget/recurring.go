package budget

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Frequency is how often a shared expense recurs.
type Frequency string

const (
	FrequencyOneTime   Frequency = "one_time"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
)

// Valid reports whether f is a known variant.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOneTime, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnual:
		return true
	}
	return false
}

// ChargeFrequency is the billing cycle of a recurring charge.
type ChargeFrequency string

const (
	ChargeMonthly   ChargeFrequency = "monthly"
	ChargeQuarterly ChargeFrequency = "quarterly"
	ChargeAnnual    ChargeFrequency = "annual"
)

// Valid reports whether f is a known variant.
func (f ChargeFrequency) Valid() bool {
	switch f {
	case ChargeMonthly, ChargeQuarterly, ChargeAnnual:
		return true
	}
	return false
}

var twelve = decimal.NewFromInt(12)

// MonthlyEquivalent converts one billing-cycle amount to its monthly share.
func (f ChargeFrequency) MonthlyEquivalent(amount decimal.Decimal) decimal.Decimal {
	switch f {
	case ChargeQuarterly:
		return amount.Div(three)
	case ChargeAnnual:
		return amount.Div(twelve)
	}
	return amount
}

// UncategorizedLabel names the bucket for charges without a category.
const UncategorizedLabel = "Sans catégorie"

// Charge is a recurring charge as loaded for normalization.
type Charge struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency ChargeFrequency `json:"frequency"`
	// Category is empty when the charge has none.
	Category string `json:"category"`
}

// NormalizedCharge is a charge with its monthly equivalent.
type NormalizedCharge struct {
	Charge
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
}

// CategoryTotal is the monthly total for one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// RecurringSummary is the normalized view over all active charges.
type RecurringSummary struct {
	TotalMonthly decimal.Decimal    `json:"total_monthly"`
	TotalAnnual  decimal.Decimal    `json:"total_annual"`
	Charges      []NormalizedCharge `json:"charges"`
	ByCategory   []CategoryTotal    `json:"by_category"`
}

// NormalizeCharges computes monthly equivalents, totals and a per-category
// breakdown sorted by descending monthly total. Ties keep first-seen order.
func NormalizeCharges(charges []Charge) RecurringSummary {
	total := decimal.Zero
	perCategory := make(map[string]decimal.Decimal)
	var order []string
	out := make([]NormalizedCharge, 0, len(charges))

	for _, c := range charges {
		monthly := c.Frequency.MonthlyEquivalent(c.Amount)
		total = total.Add(monthly)

		name := c.Category
		if name == "" {
			name = UncategorizedLabel
		}
		if _, ok := perCategory[name]; !ok {
			order = append(order, name)
		}
		perCategory[name] = perCategory[name].Add(monthly)

		out = append(out, NormalizedCharge{Charge: c, MonthlyAmount: monthly.Round(2)})
	}

	byCategory := make([]CategoryTotal, 0, len(order))
	for _, name := range order {
		byCategory = append(byCategory, CategoryTotal{Category: name, Total: perCategory[name]})
	}
	sort.SliceStable(byCategory, func(i, j int) bool {
		return byCategory[i].Total.GreaterThan(byCategory[j].Total)
	})
	for i := range byCategory {
		byCategory[i].Total = byCategory[i].Total.Round(2)
	}

	return RecurringSummary{
		TotalMonthly: total.Round(2),
		TotalAnnual:  total.Mul(twelve).Round(2),
		Charges:      out,
		ByCategory:   byCategory,
	}
}
