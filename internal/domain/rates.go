package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Exchange rates
// ============================================================

// ExchangeRateSnapshot is one observation of the USD/VES rate.
// Snapshots are append-only: new observations create new rows, existing
// rows are never edited.
type ExchangeRateSnapshot struct {
	ID            string          `json:"id"`
	USDToVESBCV   decimal.Decimal `json:"usd_to_ves_bcv"`
	USDToVESParal decimal.Decimal `json:"usd_to_ves_parallel"`
	LastUpdated   time.Time       `json:"last_updated"`
}

// Rate returns the quote for the given kind.
func (s *ExchangeRateSnapshot) Rate(kind RateKind) decimal.Decimal {
	if kind == RateParallel {
		return s.USDToVESParal
	}
	return s.USDToVESBCV
}

// RateSource says where a resolved rate came from.
type RateSource string

const (
	RateSourceHistorical RateSource = "historical" // snapshot linked to the payment
	RateSourceCurrent    RateSource = "current"    // caller-supplied fallback
	RateSourceDefault    RateSource = "default"    // hard-coded last resort
)

// ResolvedRate is the outcome of rate resolution for a payment.
// Historical is false whenever the value is an approximation, so
// downstream consumers can disclose it.
type ResolvedRate struct {
	Rate       decimal.Decimal `json:"rate"`
	Historical bool            `json:"historical"`
	Source     RateSource      `json:"source"`
}

// RateResolutionCounts tallies resolutions per tier since startup.
type RateResolutionCounts struct {
	Historical float64 `json:"historical"`
	Current    float64 `json:"current"`
	Default    float64 `json:"default"`
}

// RateStatus is the operational view of the rate subsystem.
type RateStatus struct {
	Current     *ExchangeRateSnapshot `json:"current"`
	Resolutions RateResolutionCounts  `json:"resolutions"`
}
