package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Debts & Receivables
// ============================================================

// ObligationKind distinguishes money the business owes from money it is
// owed.
type ObligationKind string

const (
	KindDebt       ObligationKind = "debt"
	KindReceivable ObligationKind = "receivable"
)

// ObligationStatus is the settlement state of a debt or receivable.
// The stored value is only a seed; the derived status from the
// settlement calculator always wins when displayed.
type ObligationStatus string

const (
	ObligationPending ObligationStatus = "pending"
	ObligationOverdue ObligationStatus = "overdue"
	ObligationPaid    ObligationStatus = "paid"
)

// Obligation is a debt or receivable. AmountUSD is the USD value fixed
// at creation time; it is immutable historical truth and only the
// explicit update-exchange-rate operation may recompute it.
type Obligation struct {
	ID           string           `json:"id"`
	Kind         ObligationKind   `json:"kind"`
	Amount       decimal.Decimal  `json:"amount"`
	Currency     Currency         `json:"currency"`
	AmountUSD    decimal.Decimal  `json:"amount_usd"`
	ExchangeRate decimal.Decimal  `json:"exchange_rate,omitempty"` // VES obligations: rate at creation
	DueDate      time.Time        `json:"due_date"`
	Status       ObligationStatus `json:"status"`
	ClientID     string           `json:"client_id,omitempty"`
	Description  string           `json:"description,omitempty"`
	Liquidated   bool             `json:"liquidated"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ObligationRequest is the payload to create a debt or receivable.
type ObligationRequest struct {
	Kind         ObligationKind  `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     Currency        `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate,omitempty"`
	DueDate      time.Time       `json:"due_date"`
	ClientID     string          `json:"client_id,omitempty"`
	Description  string          `json:"description,omitempty"`
}

// Settlement is the computed payment state of an obligation.
// Approximate is true when any contributing payment was converted with a
// non-historical rate, so the UI can disclose the approximation.
type Settlement struct {
	ObligationID string           `json:"obligation_id"`
	Kind         ObligationKind   `json:"kind"`
	AmountUSD    decimal.Decimal  `json:"amount_usd"`
	TotalPaidUSD decimal.Decimal  `json:"total_paid_usd"`
	TotalPaidVES decimal.Decimal  `json:"total_paid_ves"`
	RemainingUSD decimal.Decimal  `json:"remaining_usd"`
	Status       ObligationStatus `json:"status"`
	Approximate  bool             `json:"approximate"`
	PaymentCount int              `json:"payment_count"`
}
