package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount is a real-world account the business moves money through.
// Amount is owned exclusively by the balance maintainer: nothing else
// writes it, and recalculation replays history to repair it.
type BankAccount struct {
	ID            string          `json:"id"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	Currency      Currency        `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BankAccountRequest is the payload to create a bank account.
type BankAccountRequest struct {
	BankName       string          `json:"bank_name"`
	AccountNumber  string          `json:"account_number"`
	Currency       Currency        `json:"currency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// AccountBalance pairs an account with a recomputed balance, returned by
// the recalculate operations.
type AccountBalance struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}
