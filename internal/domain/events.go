package domain

// ============================================================
// Event payloads (published on the in-process bus, consumed by UI)
// ============================================================

// EventAction says what happened to a transaction.
type EventAction string

const (
	ActionCreated EventAction = "created"
	ActionUpdated EventAction = "updated"
	ActionDeleted EventAction = "deleted"
)

// TransactionChanged is published whenever a transaction is created,
// updated or deleted.
type TransactionChanged struct {
	Action      EventAction  `json:"action"`
	Transaction *Transaction `json:"transaction"`
}

// BalanceChanged is published whenever a bank account balance moves.
type BalanceChanged struct {
	AccountID string `json:"account_id"`
}

// RateRefreshed is published when a new exchange rate snapshot is
// appended.
type RateRefreshed struct {
	Snapshot *ExchangeRateSnapshot `json:"snapshot"`
}
