package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/veconta/contable-go/internal/domain"

	"github.com/shopspring/decimal"
)

func TestCreateTransactionAppliesBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedAccount(t, e.store, "acc-1", domain.USD)

	created, err := e.transactions.Create(ctx, &domain.Transaction{
		Type:          domain.TypeSale,
		Amount:        dec("100"),
		Currency:      domain.USD,
		BankAccountID: "acc-1",
	})
	if err != nil {
		t.Fatalf("creating sale: %v", err)
	}
	if created.ID == "" || created.Status != domain.StatusCompleted {
		t.Errorf("expected defaults to be filled, got id=%q status=%q", created.ID, created.Status)
	}

	if got := accountBalance(t, e.store, "acc-1"); !got.Equal(dec("100")) {
		t.Errorf("balance after sale: expected 100, got %s", got)
	}

	_, err = e.transactions.Create(ctx, &domain.Transaction{
		Type:          domain.TypeExpense,
		Amount:        dec("40"),
		Currency:      domain.USD,
		BankAccountID: "acc-1",
	})
	if err != nil {
		t.Fatalf("creating expense: %v", err)
	}
	if got := accountBalance(t, e.store, "acc-1"); !got.Equal(dec("60")) {
		t.Errorf("balance after expense: expected 60, got %s", got)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		tx   domain.Transaction
	}{
		{"unknown type", domain.Transaction{Type: "bogus", Amount: dec("10"), Currency: domain.USD}},
		{"bad currency", domain.Transaction{Type: domain.TypeSale, Amount: dec("10"), Currency: "EUR"}},
		{"zero amount", domain.Transaction{Type: domain.TypeSale, Amount: decimal.Zero, Currency: domain.USD}},
		{"negative commission", domain.Transaction{Type: domain.TypeSale, Amount: dec("10"), Currency: domain.USD, Commission: dec("-1")}},
		{"denominations on sale", domain.Transaction{Type: domain.TypeSale, Amount: dec("10"), Currency: domain.USD, Denominations: domain.Denominations{10: 1}}},
		{"bad denomination", domain.Transaction{Type: domain.TypeCash, Amount: dec("10"), Currency: domain.USD, Denominations: domain.Denominations{3: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.transactions.Create(ctx, &tc.tx)
			var verr *domain.ErrValidation
			if !errors.As(err, &verr) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateTransactionRejectsSplitFlag(t *testing.T) {
	e := newEnv(t)

	_, err := e.transactions.Create(context.Background(), &domain.Transaction{
		Type:                 domain.TypeSale,
		Amount:               dec("100"),
		Currency:             domain.USD,
		HasMultipleTransfers: true,
	})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for split flag, got %v", err)
	}
}

func TestDeleteTransactionReversesBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedAccount(t, e.store, "acc-1", domain.USD)

	created, err := e.transactions.Create(ctx, &domain.Transaction{
		Type:          domain.TypeSale,
		Amount:        dec("75"),
		Currency:      domain.USD,
		BankAccountID: "acc-1",
	})
	if err != nil {
		t.Fatalf("creating sale: %v", err)
	}

	if err := e.transactions.Delete(ctx, created.ID); err != nil {
		t.Fatalf("deleting transaction: %v", err)
	}
	if got := accountBalance(t, e.store, "acc-1"); !got.IsZero() {
		t.Errorf("balance after delete: expected 0, got %s", got)
	}

	var nf *domain.ErrNotFound
	if _, err := e.transactions.Get(ctx, created.ID); !errors.As(err, &nf) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestUpdateTransactionRebalances(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedAccount(t, e.store, "acc-1", domain.USD)
	seedAccount(t, e.store, "acc-2", domain.USD)

	created, err := e.transactions.Create(ctx, &domain.Transaction{
		Type:          domain.TypeSale,
		Amount:        dec("100"),
		Currency:      domain.USD,
		BankAccountID: "acc-1",
	})
	if err != nil {
		t.Fatalf("creating sale: %v", err)
	}

	amount := dec("120")
	account := "acc-2"
	updated, err := e.transactions.Update(ctx, created.ID, &domain.TransactionPatch{
		Amount:        &amount,
		BankAccountID: &account,
	})
	if err != nil {
		t.Fatalf("updating transaction: %v", err)
	}
	if !updated.Amount.Equal(dec("120")) || updated.BankAccountID != "acc-2" {
		t.Errorf("patch not applied: %+v", updated)
	}

	if got := accountBalance(t, e.store, "acc-1"); !got.IsZero() {
		t.Errorf("old account: expected 0, got %s", got)
	}
	if got := accountBalance(t, e.store, "acc-2"); !got.Equal(dec("120")) {
		t.Errorf("new account: expected 120, got %s", got)
	}
}

func TestCancelledTransactionHasNoBalanceEffect(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedAccount(t, e.store, "acc-1", domain.USD)

	created, err := e.transactions.Create(ctx, &domain.Transaction{
		Type:          domain.TypeSale,
		Amount:        dec("100"),
		Currency:      domain.USD,
		BankAccountID: "acc-1",
	})
	if err != nil {
		t.Fatalf("creating sale: %v", err)
	}

	cancelled := domain.StatusCancelled
	if _, err := e.transactions.Update(ctx, created.ID, &domain.TransactionPatch{Status: &cancelled}); err != nil {
		t.Fatalf("cancelling: %v", err)
	}
	if got := accountBalance(t, e.store, "acc-1"); !got.IsZero() {
		t.Errorf("balance after cancel: expected 0, got %s", got)
	}
}

func TestUpdateSplitTransactionRejectsLedgerFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedAccount(t, e.store, "acc-1", domain.USD)
	seedAccount(t, e.store, "acc-2", domain.USD)

	created, _, err := e.transfers.CreateWithTransfers(ctx, &domain.Transaction{
		Type:     domain.TypeSale,
		Amount:   dec("100"),
		Currency: domain.USD,
	}, []domain.Transfer{
		{BankAccountID: "acc-1", Amount: dec("60")},
		{BankAccountID: "acc-2", Amount: dec("40")},
	})
	if err != nil {
		t.Fatalf("creating split: %v", err)
	}

	amount := dec("500")
	expense := domain.TypeExpense
	cancelled := domain.StatusCancelled
	cases := []struct {
		name  string
		patch domain.TransactionPatch
	}{
		{"amount", domain.TransactionPatch{Amount: &amount}},
		{"type", domain.TransactionPatch{Type: &expense}},
		{"status", domain.TransactionPatch{Status: &cancelled}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var conflict *domain.ErrConflict
			if _, err := e.transactions.Update(ctx, created.ID, &tc.patch); !errors.As(err, &conflict) {
				t.Errorf("expected conflict, got %v", err)
			}
		})
	}

	// The owner and its legs stay consistent.
	got, err := e.transactions.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("getting split: %v", err)
	}
	if !got.Amount.Equal(dec("100")) {
		t.Errorf("split amount must be untouched, got %s", got.Amount)
	}
	legs, err := e.transfers.ListForTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("listing legs: %v", err)
	}
	sum := dec("0")
	for _, leg := range legs {
		sum = sum.Add(leg.Amount)
	}
	if !sum.Equal(got.Amount) {
		t.Errorf("leg sum %s does not match amount %s", sum, got.Amount)
	}

	// Descriptive fields stay patchable.
	note := "pago repartido"
	if _, err := e.transactions.Update(ctx, created.ID, &domain.TransactionPatch{Notes: &note}); err != nil {
		t.Errorf("patching notes: %v", err)
	}
}

func TestCreateTransactionRejectsDoubleObligationLink(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.transactions.Create(ctx, &domain.Transaction{
		Type:         domain.TypePayment,
		Amount:       dec("50"),
		Currency:     domain.USD,
		DebtID:       "debt-1",
		ReceivableID: "recv-1",
	})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchTransactions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, tx := range []domain.Transaction{
		{Type: domain.TypeSale, Amount: dec("10"), Currency: domain.USD, Description: "Venta de repuestos"},
		{Type: domain.TypeExpense, Amount: dec("20"), Currency: domain.USD, Notes: "pago de REPUESTOS urgente"},
		{Type: domain.TypeExpense, Amount: dec("30"), Currency: domain.USD, Description: "alquiler"},
	} {
		local := tx
		if _, err := e.transactions.Create(ctx, &local); err != nil {
			t.Fatalf("seeding transaction: %v", err)
		}
	}

	found, err := e.transactions.Search(ctx, "repuestos")
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("expected 2 matches, got %d", len(found))
	}

	all, err := e.transactions.Search(ctx, "")
	if err != nil {
		t.Fatalf("searching empty query: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("empty query: expected all 3, got %d", len(all))
	}
}

func TestFilterTransactions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, tx := range []domain.Transaction{
		{Type: domain.TypeSale, Amount: dec("10"), Currency: domain.USD, ClientID: "client-1"},
		{Type: domain.TypeSale, Amount: dec("200"), Currency: domain.USD, ClientID: "client-1"},
		{Type: domain.TypeExpense, Amount: dec("50"), Currency: domain.USD, ClientID: "client-2"},
	} {
		local := tx
		if _, err := e.transactions.Create(ctx, &local); err != nil {
			t.Fatalf("seeding transaction: %v", err)
		}
	}

	min := dec("100")
	got, err := e.transactions.Filter(ctx, domain.TransactionFilter{
		Type:      domain.TypeSale,
		ClientID:  "client-1",
		AmountMin: &min,
	})
	if err != nil {
		t.Fatalf("filtering: %v", err)
	}
	if len(got) != 1 || !got[0].Amount.Equal(dec("200")) {
		t.Errorf("expected the single 200 sale, got %+v", got)
	}
}

func TestListByAccountIncludesSplitOwners(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedAccount(t, e.store, "acc-1", domain.USD)
	seedAccount(t, e.store, "acc-2", domain.USD)

	if _, err := e.transactions.Create(ctx, &domain.Transaction{
		Type:          domain.TypeSale,
		Amount:        dec("50"),
		Currency:      domain.USD,
		BankAccountID: "acc-1",
	}); err != nil {
		t.Fatalf("creating simple sale: %v", err)
	}

	_, _, err := e.transfers.CreateWithTransfers(ctx,
		&domain.Transaction{Type: domain.TypeSale, Amount: dec("100"), Currency: domain.USD},
		[]domain.Transfer{
			{BankAccountID: "acc-1", Amount: dec("60")},
			{BankAccountID: "acc-2", Amount: dec("40")},
		},
	)
	if err != nil {
		t.Fatalf("creating split sale: %v", err)
	}

	txs, err := e.transactions.ListByAccount(ctx, "acc-1")
	if err != nil {
		t.Fatalf("listing by account: %v", err)
	}
	if len(txs) != 2 {
		t.Errorf("expected simple tx plus split owner, got %d", len(txs))
	}
}
