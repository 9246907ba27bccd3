package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO-ish currency code. The ledger core is scoped to the
// two currencies the business actually operates in.
type Currency string

const (
	USD Currency = "USD"
	VES Currency = "VES"
)

// Valid reports whether the currency is one the ledger accepts.
func (c Currency) Valid() bool {
	return c == USD || c == VES
}

// RateKind selects which USD/VES quote a conversion uses.
type RateKind string

const (
	RateOfficial RateKind = "official" // BCV
	RateParallel RateKind = "parallel"
)

// SumTolerance is the system-wide absolute tolerance for currency sum
// reconciliation (split-transfer sums, cross-currency rounding).
var SumTolerance = decimal.NewFromFloat(0.01)

// DefaultUSDVESRate is the last-resort rate when neither a historical
// snapshot nor a current quote is available.
var DefaultUSDVESRate = decimal.NewFromInt(40)

// USDToVES converts a USD amount to VES at the given rate.
func USDToVES(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate)
}

// VESToUSD converts a VES amount to USD at the given rate.
// A zero or negative rate yields zero rather than a division blow-up.
func VESToUSD(amount, rate decimal.Decimal) decimal.Decimal {
	if rate.Sign() <= 0 {
		return decimal.Zero
	}
	return amount.Div(rate)
}

// RoundMoney rounds to 2 decimal places for display. Internal arithmetic
// stays exact; only edges of the system round.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// WithinTolerance reports whether |a-b| < SumTolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(SumTolerance)
}

// validDenominations is the closed set of USD bill values a cash
// transaction may carry.
var validDenominations = map[int]bool{1: true, 2: true, 5: true, 10: true, 20: true, 50: true, 100: true}

// Denominations maps a bill value to how many of that bill were counted.
// Only cash transactions carry denominations.
type Denominations map[int]int

// Validate rejects unknown bill values and negative counts.
func (d Denominations) Validate() error {
	for bill, count := range d {
		if !validDenominations[bill] {
			return &ErrValidation{Field: "denominations", Message: fmt.Sprintf("unknown bill value %d", bill)}
		}
		if count < 0 {
			return &ErrValidation{Field: "denominations", Message: fmt.Sprintf("negative count for bill %d", bill)}
		}
	}
	return nil
}

// Total returns the cash total represented by the counted bills.
func (d Denominations) Total() decimal.Decimal {
	total := decimal.Zero
	for bill, count := range d {
		total = total.Add(decimal.NewFromInt(int64(bill)).Mul(decimal.NewFromInt(int64(count))))
	}
	return total
}
