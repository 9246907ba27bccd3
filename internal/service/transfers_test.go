package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/infra/memstore"
	"github.com/veconta/contable-go/internal/service"
)

func TestValidateTransferSum(t *testing.T) {
	cases := []struct {
		name    string
		total   string
		amounts []string
		wantErr bool
	}{
		{"exact", "300", []string{"100", "100", "100"}, false},
		{"within tolerance", "300", []string{"100", "100", "99.995"}, false},
		{"off by one", "300", []string{"100", "100", "99"}, true},
		{"single leg", "50", []string{"50"}, false},
		{"no legs", "50", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			legs := make([]domain.Transfer, len(tc.amounts))
			for i, a := range tc.amounts {
				legs[i] = domain.Transfer{BankAccountID: "acc-1", Amount: dec(a)}
			}
			err := service.ValidateTransferSum(dec(tc.total), legs)
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateTransferSumLegShape(t *testing.T) {
	err := service.ValidateTransferSum(dec("100"), []domain.Transfer{
		{BankAccountID: "acc-1", Amount: dec("-100")},
	})
	if err == nil {
		t.Error("expected error for negative leg amount")
	}

	err = service.ValidateTransferSum(dec("100"), []domain.Transfer{
		{Amount: dec("100")},
	})
	if err == nil {
		t.Error("expected error for missing bank account")
	}
}

func TestCreateWithTransfersAppliesLegs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedAccount(t, e.store, "acc-1", domain.USD)
	seedAccount(t, e.store, "acc-2", domain.USD)

	tx, legs, err := e.transfers.CreateWithTransfers(ctx,
		&domain.Transaction{Type: domain.TypeSale, Amount: dec("150"), Currency: domain.USD},
		[]domain.Transfer{
			{BankAccountID: "acc-1", Amount: dec("100")},
			{BankAccountID: "acc-2", Amount: dec("50")},
		},
	)
	if err != nil {
		t.Fatalf("creating split: %v", err)
	}
	if !tx.HasMultipleTransfers || tx.BankAccountID != "" {
		t.Errorf("split transaction must carry no account of its own: %+v", tx)
	}
	if len(legs) != 2 || legs[0].OrderIndex != 0 || legs[1].OrderIndex != 1 {
		t.Errorf("expected ordered legs, got %+v", legs)
	}

	if got := accountBalance(t, e.store, "acc-1"); !got.Equal(dec("100")) {
		t.Errorf("acc-1: expected 100, got %s", got)
	}
	if got := accountBalance(t, e.store, "acc-2"); !got.Equal(dec("50")) {
		t.Errorf("acc-2: expected 50, got %s", got)
	}
}

func TestCreateWithTransfersUnknownAccount(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.transfers.CreateWithTransfers(context.Background(),
		&domain.Transaction{Type: domain.TypeSale, Amount: dec("100"), Currency: domain.USD},
		[]domain.Transfer{{BankAccountID: "nope", Amount: dec("100")}},
	)
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found for unknown account, got %v", err)
	}
}

func TestCreateWithTransfersRollsBackOnFailure(t *testing.T) {
	mem := memstore.New()
	flaky := &flakyStore{LedgerStore: mem}
	e := newEnvWithStore(t, flaky)
	ctx := context.Background()
	seedAccount(t, mem, "acc-1", domain.USD)
	seedAccount(t, mem, "acc-2", domain.USD)

	boom := errors.New("insert blew up")
	calls := 0
	flaky.insertTransfer = func(ctx context.Context, tr *domain.Transfer) (*domain.Transfer, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return mem.InsertTransfer(ctx, tr)
	}

	_, _, err := e.transfers.CreateWithTransfers(ctx,
		&domain.Transaction{Type: domain.TypeSale, Amount: dec("150"), Currency: domain.USD},
		[]domain.Transfer{
			{BankAccountID: "acc-1", Amount: dec("100")},
			{BankAccountID: "acc-2", Amount: dec("50")},
		},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected the original cause, got %v", err)
	}

	txs, _ := mem.ListTransactions(ctx)
	if len(txs) != 0 {
		t.Errorf("expected no transaction left after rollback, found %d", len(txs))
	}
	if got := accountBalance(t, mem, "acc-1"); !got.IsZero() {
		t.Errorf("acc-1 balance must be untouched, got %s", got)
	}
}

func TestCreateWithTransfersRollbackFailure(t *testing.T) {
	mem := memstore.New()
	flaky := &flakyStore{LedgerStore: mem}
	e := newEnvWithStore(t, flaky)
	ctx := context.Background()
	seedAccount(t, mem, "acc-1", domain.USD)
	seedAccount(t, mem, "acc-2", domain.USD)

	boom := errors.New("insert blew up")
	deleteBoom := errors.New("delete blew up too")
	calls := 0
	flaky.insertTransfer = func(ctx context.Context, tr *domain.Transfer) (*domain.Transfer, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return mem.InsertTransfer(ctx, tr)
	}
	flaky.deleteTransfer = func(ctx context.Context, transferID string) error {
		return deleteBoom
	}

	_, _, err := e.transfers.CreateWithTransfers(ctx,
		&domain.Transaction{Type: domain.TypeSale, Amount: dec("150"), Currency: domain.USD},
		[]domain.Transfer{
			{BankAccountID: "acc-1", Amount: dec("100")},
			{BankAccountID: "acc-2", Amount: dec("50")},
		},
	)
	var rf *domain.ErrRollbackFailed
	if !errors.As(err, &rf) {
		t.Fatalf("expected rollback failure, got %v", err)
	}
	if rf.Cause != boom {
		t.Errorf("expected original cause to be preserved, got %v", rf.Cause)
	}
}

func TestConvertToSplit(t *testing.T) {
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
		t.Fatalf("creating simple sale: %v", err)
	}

	tx, legs, err := e.transfers.ConvertToSplit(ctx, created.ID, []domain.Transfer{
		{BankAccountID: "acc-1", Amount: dec("60")},
		{BankAccountID: "acc-2", Amount: dec("40")},
	})
	if err != nil {
		t.Fatalf("converting to split: %v", err)
	}
	if !tx.HasMultipleTransfers || tx.BankAccountID != "" {
		t.Errorf("converted transaction must be split: %+v", tx)
	}
	if len(legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(legs))
	}

	// The simple effect on acc-1 (100) must be fully replaced by the legs,
	// not stacked on top of them.
	if got := accountBalance(t, e.store, "acc-1"); !got.Equal(dec("60")) {
		t.Errorf("acc-1: expected 60, got %s", got)
	}
	if got := accountBalance(t, e.store, "acc-2"); !got.Equal(dec("40")) {
		t.Errorf("acc-2: expected 40, got %s", got)
	}
}

func TestConvertToSplitTwiceConflicts(t *testing.T) {
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

	legs := []domain.Transfer{{BankAccountID: "acc-1", Amount: dec("100")}}
	if _, _, err := e.transfers.ConvertToSplit(ctx, created.ID, legs); err != nil {
		t.Fatalf("first conversion: %v", err)
	}

	var conflict *domain.ErrConflict
	if _, _, err := e.transfers.ConvertToSplit(ctx, created.ID, legs); !errors.As(err, &conflict) {
		t.Fatalf("expected conflict on second conversion, got %v", err)
	}
}

func TestUpdateTransferRebalances(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedAccount(t, e.store, "acc-1", domain.USD)
	seedAccount(t, e.store, "acc-2", domain.USD)

	_, legs, err := e.transfers.CreateWithTransfers(ctx,
		&domain.Transaction{Type: domain.TypeSale, Amount: dec("100"), Currency: domain.USD},
		[]domain.Transfer{
			{BankAccountID: "acc-1", Amount: dec("60")},
			{BankAccountID: "acc-2", Amount: dec("40")},
		},
	)
	if err != nil {
		t.Fatalf("creating split: %v", err)
	}

	// Moving value between legs must keep the sum reconciled.
	moved := legs[0]
	moved.Amount = dec("70")
	if _, err := e.transfers.UpdateTransfer(ctx, &moved); err == nil {
		t.Fatal("expected validation error, sum no longer matches the total")
	}

	// Move the leg to another account at the same amount instead.
	moved = legs[0]
	moved.BankAccountID = "acc-2"
	if _, err := e.transfers.UpdateTransfer(ctx, &moved); err != nil {
		t.Fatalf("updating transfer: %v", err)
	}
	if got := accountBalance(t, e.store, "acc-1"); !got.IsZero() {
		t.Errorf("acc-1: expected 0, got %s", got)
	}
	if got := accountBalance(t, e.store, "acc-2"); !got.Equal(dec("100")) {
		t.Errorf("acc-2: expected 100, got %s", got)
	}
}

func TestDeleteTransferReversesLeg(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedAccount(t, e.store, "acc-1", domain.USD)
	seedAccount(t, e.store, "acc-2", domain.USD)

	_, legs, err := e.transfers.CreateWithTransfers(ctx,
		&domain.Transaction{Type: domain.TypeSale, Amount: dec("100"), Currency: domain.USD},
		[]domain.Transfer{
			{BankAccountID: "acc-1", Amount: dec("60")},
			{BankAccountID: "acc-2", Amount: dec("40")},
		},
	)
	if err != nil {
		t.Fatalf("creating split: %v", err)
	}

	if err := e.transfers.DeleteTransfer(ctx, legs[1].ID); err != nil {
		t.Fatalf("deleting transfer: %v", err)
	}
	if got := accountBalance(t, e.store, "acc-2"); !got.IsZero() {
		t.Errorf("acc-2: expected 0 after leg delete, got %s", got)
	}
	if got := accountBalance(t, e.store, "acc-1"); !got.Equal(dec("60")) {
		t.Errorf("acc-1 must be untouched, got %s", got)
	}
}

func TestDeleteSplitTransactionReversesAllLegs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedAccount(t, e.store, "acc-1", domain.USD)
	seedAccount(t, e.store, "acc-2", domain.USD)

	tx, _, err := e.transfers.CreateWithTransfers(ctx,
		&domain.Transaction{Type: domain.TypeSale, Amount: dec("100"), Currency: domain.USD},
		[]domain.Transfer{
			{BankAccountID: "acc-1", Amount: dec("60")},
			{BankAccountID: "acc-2", Amount: dec("40")},
		},
	)
	if err != nil {
		t.Fatalf("creating split: %v", err)
	}

	if err := e.transactions.Delete(ctx, tx.ID); err != nil {
		t.Fatalf("deleting split transaction: %v", err)
	}
	if got := accountBalance(t, e.store, "acc-1"); !got.IsZero() {
		t.Errorf("acc-1: expected 0, got %s", got)
	}
	if got := accountBalance(t, e.store, "acc-2"); !got.IsZero() {
		t.Errorf("acc-2: expected 0, got %s", got)
	}
	legs, _ := e.store.ListTransfersByTransaction(ctx, tx.ID)
	if len(legs) != 0 {
		t.Errorf("expected no legs left, found %d", len(legs))
	}
}
