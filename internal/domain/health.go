package domain

import "github.com/shopspring/decimal"

// ============================================================
// Health & aggregate API responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// NetWorth is the rolled-up financial position: account balances in USD
// plus pending receivables minus pending debts.
type NetWorth struct {
	AccountsUSD    decimal.Decimal `json:"accounts_usd"`
	ReceivablesUSD decimal.Decimal `json:"receivables_usd"`
	DebtsUSD       decimal.Decimal `json:"debts_usd"`
	TotalUSD       decimal.Decimal `json:"total_usd"`
	Approximate    bool            `json:"approximate"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
