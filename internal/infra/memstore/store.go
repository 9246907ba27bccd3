// Package memstore is an in-memory LedgerStore used in dev mode and tests.
// All methods copy on read and write so callers never alias internal state.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/veconta/contable-go/internal/domain"
)

// Store holds all ledger entities behind a single mutex.
type Store struct {
	mu           sync.RWMutex
	transactions map[string]domain.Transaction
	transfers    map[string]domain.Transfer
	accounts     map[string]domain.BankAccount
	obligations  map[string]domain.Obligation
	snapshots    []domain.ExchangeRateSnapshot
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		transactions: make(map[string]domain.Transaction),
		transfers:    make(map[string]domain.Transfer),
		accounts:     make(map[string]domain.BankAccount),
		obligations:  make(map[string]domain.Obligation),
	}
}

// ------------------------------------------------------------
// Transactions
// ------------------------------------------------------------

func (s *Store) InsertTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[tx.ID]; exists {
		return nil, &domain.ErrConflict{Message: "transaction already exists: " + tx.ID}
	}
	s.transactions[tx.ID] = *tx
	out := *tx
	return &out, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[tx.ID]; !exists {
		return &domain.ErrNotFound{Resource: "transaction", ID: tx.ID}
	}
	s.transactions[tx.ID] = *tx
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[txID]; !exists {
		return &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	delete(s.transactions, txID)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, txID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.transactions[txID]
	if !exists {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	return &tx, nil
}

func (s *Store) ListTransactionsByAccount(_ context.Context, accountID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transaction
	for _, tx := range s.transactions {
		if tx.BankAccountID == accountID {
			out = append(out, tx)
		}
	}
	sortTransactions(out)
	return out, nil
}

func (s *Store) ListTransactionsByClient(_ context.Context, clientID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transaction
	for _, tx := range s.transactions {
		if tx.ClientID == clientID {
			out = append(out, tx)
		}
	}
	sortTransactions(out)
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		out = append(out, tx)
	}
	sortTransactions(out)
	return out, nil
}

// sortTransactions orders newest first, ties broken by ID for stability.
func sortTransactions(txs []domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
}

// ------------------------------------------------------------
// Transfers
// ------------------------------------------------------------

func (s *Store) InsertTransfer(_ context.Context, tr *domain.Transfer) (*domain.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transfers[tr.ID]; exists {
		return nil, &domain.ErrConflict{Message: "transfer already exists: " + tr.ID}
	}
	s.transfers[tr.ID] = *tr
	out := *tr
	return &out, nil
}

func (s *Store) UpdateTransfer(_ context.Context, tr *domain.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transfers[tr.ID]; !exists {
		return &domain.ErrNotFound{Resource: "transfer", ID: tr.ID}
	}
	s.transfers[tr.ID] = *tr
	return nil
}

func (s *Store) DeleteTransfer(_ context.Context, transferID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transfers[transferID]; !exists {
		return &domain.ErrNotFound{Resource: "transfer", ID: transferID}
	}
	delete(s.transfers, transferID)
	return nil
}

func (s *Store) GetTransfer(_ context.Context, transferID string) (*domain.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tr, exists := s.transfers[transferID]
	if !exists {
		return nil, &domain.ErrNotFound{Resource: "transfer", ID: transferID}
	}
	return &tr, nil
}

func (s *Store) ListTransfersByTransaction(_ context.Context, txID string) ([]domain.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transfer
	for _, tr := range s.transfers {
		if tr.TransactionID == txID {
			out = append(out, tr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (s *Store) ListTransfersByAccount(_ context.Context, accountID string) ([]domain.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transfer
	for _, tr := range s.transfers {
		if tr.BankAccountID == accountID {
			out = append(out, tr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteTransfersByTransaction(_ context.Context, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, tr := range s.transfers {
		if tr.TransactionID == txID {
			delete(s.transfers, id)
		}
	}
	return nil
}

// ------------------------------------------------------------
// Bank accounts
// ------------------------------------------------------------

func (s *Store) InsertAccount(_ context.Context, acct *domain.BankAccount) (*domain.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acct.ID]; exists {
		return nil, &domain.ErrConflict{Message: "account already exists: " + acct.ID}
	}
	s.accounts[acct.ID] = *acct
	out := *acct
	return &out, nil
}

func (s *Store) GetAccount(_ context.Context, accountID string) (*domain.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, exists := s.accounts[accountID]
	if !exists {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	return &acct, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]domain.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.BankAccount, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BankName < out[j].BankName })
	return out, nil
}

func (s *Store) DeleteAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[accountID]; !exists {
		return &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	delete(s.accounts, accountID)
	return nil
}

func (s *Store) SetAccountBalance(_ context.Context, accountID string, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, exists := s.accounts[accountID]
	if !exists {
		return &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	acct.Amount = balance
	s.accounts[accountID] = acct
	return nil
}

// ------------------------------------------------------------
// Obligations
// ------------------------------------------------------------

func (s *Store) InsertObligation(_ context.Context, ob *domain.Obligation) (*domain.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.obligations[ob.ID]; exists {
		return nil, &domain.ErrConflict{Message: "obligation already exists: " + ob.ID}
	}
	s.obligations[ob.ID] = *ob
	out := *ob
	return &out, nil
}

func (s *Store) UpdateObligation(_ context.Context, ob *domain.Obligation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.obligations[ob.ID]; !exists {
		return &domain.ErrNotFound{Resource: "obligation", ID: ob.ID}
	}
	s.obligations[ob.ID] = *ob
	return nil
}

func (s *Store) GetObligation(_ context.Context, obligationID string) (*domain.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ob, exists := s.obligations[obligationID]
	if !exists {
		return nil, &domain.ErrNotFound{Resource: "obligation", ID: obligationID}
	}
	return &ob, nil
}

func (s *Store) ListObligations(_ context.Context, kind domain.ObligationKind) ([]domain.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Obligation
	for _, ob := range s.obligations {
		if kind == "" || ob.Kind == kind {
			out = append(out, ob)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteObligation(_ context.Context, obligationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.obligations[obligationID]; !exists {
		return &domain.ErrNotFound{Resource: "obligation", ID: obligationID}
	}
	delete(s.obligations, obligationID)
	return nil
}

func (s *Store) ListPaymentsForObligation(_ context.Context, obligationID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transaction
	for _, tx := range s.transactions {
		if tx.Type != domain.TypePayment {
			continue
		}
		if tx.DebtID == obligationID || tx.ReceivableID == obligationID {
			out = append(out, tx)
		}
	}
	sortTransactions(out)
	return out, nil
}

// ------------------------------------------------------------
// Exchange rate snapshots
// ------------------------------------------------------------

func (s *Store) InsertRateSnapshot(_ context.Context, snap *domain.ExchangeRateSnapshot) (*domain.ExchangeRateSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = append(s.snapshots, *snap)
	out := *snap
	return &out, nil
}

func (s *Store) GetRateSnapshot(_ context.Context, snapshotID string) (*domain.ExchangeRateSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.snapshots {
		if s.snapshots[i].ID == snapshotID {
			snap := s.snapshots[i]
			return &snap, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "exchange_rate", ID: snapshotID}
}

func (s *Store) LatestRateSnapshot(_ context.Context) (*domain.ExchangeRateSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snapshots) == 0 {
		return nil, &domain.ErrNotFound{Resource: "exchange_rate", ID: "latest"}
	}
	latest := s.snapshots[0]
	for _, snap := range s.snapshots[1:] {
		if snap.LastUpdated.After(latest.LastUpdated) {
			latest = snap
		}
	}
	return &latest, nil
}

func (s *Store) ListRateSnapshots(_ context.Context, limit int) ([]domain.ExchangeRateSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ExchangeRateSnapshot, len(s.snapshots))
	copy(out, s.snapshots)
	sort.Slice(out, func(i, j int) bool { return out[i].LastUpdated.After(out[j].LastUpdated) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
