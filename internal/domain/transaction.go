package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Transactions
// ============================================================

// TransactionType classifies a money event. The sign rule below is part
// of the balance contract: additive types increase an account, all
// others decrease it.
type TransactionType string

const (
	TypePurchase      TransactionType = "purchase"
	TypeSale          TransactionType = "sale"
	TypeCash          TransactionType = "cash"
	TypeExpense       TransactionType = "expense"
	TypePayment       TransactionType = "payment"
	TypeBalanceChange TransactionType = "balance_change"
	TypeIngreso       TransactionType = "ingreso"
)

// additiveTypes is the exact set of transaction types that credit an
// account. Everything else debits.
var additiveTypes = map[TransactionType]bool{
	TypeSale:          true,
	TypePayment:       true,
	TypeCash:          true,
	TypeIngreso:       true,
	TypeBalanceChange: true,
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TypePurchase, TypeSale, TypeCash, TypeExpense, TypePayment, TypeBalanceChange, TypeIngreso:
		return true
	}
	return false
}

// Additive reports whether the type credits an account balance.
func (t TransactionType) Additive() bool {
	return additiveTypes[t]
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"
)

// Transaction is a single money event. A "split" transaction
// (HasMultipleTransfers) owns one or more Transfers and carries no bank
// account of its own; a simple transaction points at most at one account.
type Transaction struct {
	ID                   string            `json:"id"`
	Type                 TransactionType   `json:"type"`
	Amount               decimal.Decimal   `json:"amount"`
	Currency             Currency          `json:"currency"`
	Date                 time.Time         `json:"date"`
	Status               TransactionStatus `json:"status"`
	Description          string            `json:"description,omitempty"`
	Notes                string            `json:"notes,omitempty"`
	Category             string            `json:"category,omitempty"`
	BankAccountID        string            `json:"bank_account_id,omitempty"`
	ClientID             string            `json:"client_id,omitempty"`
	DebtID               string            `json:"debt_id,omitempty"`
	ReceivableID         string            `json:"receivable_id,omitempty"`
	HasMultipleTransfers bool              `json:"has_multiple_transfers"`
	Commission           decimal.Decimal   `json:"commission,omitempty"` // percentage
	Denominations        Denominations     `json:"denominations,omitempty"`
	ExchangeRateID       string            `json:"exchange_rate_id,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
}

// Transfer is one leg of a split transaction.
type Transfer struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	BankAccountID string          `json:"bank_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	OrderIndex    int             `json:"order_index"`
	ReceiptRef    string          `json:"receipt_ref,omitempty"`
}

// TransactionPatch carries partial-update semantics for a transaction.
// Nil fields are left untouched.
type TransactionPatch struct {
	Type          *TransactionType   `json:"type,omitempty"`
	Amount        *decimal.Decimal   `json:"amount,omitempty"`
	Currency      *Currency          `json:"currency,omitempty"`
	Date          *time.Time         `json:"date,omitempty"`
	Status        *TransactionStatus `json:"status,omitempty"`
	Description   *string            `json:"description,omitempty"`
	Notes         *string            `json:"notes,omitempty"`
	Category      *string            `json:"category,omitempty"`
	BankAccountID *string            `json:"bank_account_id,omitempty"`
	ClientID      *string            `json:"client_id,omitempty"`
	Commission    *decimal.Decimal   `json:"commission,omitempty"`
}

// TransactionFilter is a conjunctive (AND) filter over transactions.
// Zero-valued fields are ignored.
type TransactionFilter struct {
	Type          TransactionType   `json:"type,omitempty"`
	Status        TransactionStatus `json:"status,omitempty"`
	ClientID      string            `json:"client_id,omitempty"`
	BankAccountID string            `json:"bank_account_id,omitempty"`
	Category      string            `json:"category,omitempty"`
	DateFrom      *time.Time        `json:"date_from,omitempty"`
	DateTo        *time.Time        `json:"date_to,omitempty"`
	AmountMin     *decimal.Decimal  `json:"amount_min,omitempty"`
	AmountMax     *decimal.Decimal  `json:"amount_max,omitempty"`
}

// Matches applies the filter to a transaction.
func (f TransactionFilter) Matches(tx *Transaction) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.Status != "" && tx.Status != f.Status {
		return false
	}
	if f.ClientID != "" && tx.ClientID != f.ClientID {
		return false
	}
	if f.BankAccountID != "" && tx.BankAccountID != f.BankAccountID {
		return false
	}
	if f.Category != "" && tx.Category != f.Category {
		return false
	}
	if f.DateFrom != nil && tx.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && tx.Date.After(*f.DateTo) {
		return false
	}
	if f.AmountMin != nil && tx.Amount.LessThan(*f.AmountMin) {
		return false
	}
	if f.AmountMax != nil && tx.Amount.GreaterThan(*f.AmountMax) {
		return false
	}
	return true
}
