//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"esengo-membership/internal/domain/model"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func TestWalletRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewWalletRepo(testPool)

	t.Run("should save and find a wallet", func(t *testing.T) {
		cleanup(t)

		memberID := uuid.NewString()
		w := &model.Wallet{
			ID:        uuid.NewString(),
			MemberID:  &memberID,
			Currency:  "USD",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := repo.Save(ctx, nil, w); err != nil {
			t.Fatalf("Failed to save wallet: %v", err)
		}

		found, err := repo.FindByMember(ctx, nil, memberID)
		if err != nil {
			t.Fatalf("FindByMember failed: %v", err)
		}
		if found.ID != w.ID || found.Currency != "USD" {
			t.Fatal("Did not find the correct wallet by member")
		}
	})

	t.Run("EnsureSystem is idempotent", func(t *testing.T) {
		cleanup(t)

		first, err := repo.EnsureSystem(ctx, nil, "USD")
		if err != nil {
			t.Fatalf("EnsureSystem failed: %v", err)
		}
		second, err := repo.EnsureSystem(ctx, nil, "USD")
		if err != nil {
			t.Fatalf("EnsureSystem (second) failed: %v", err)
		}
		if first.ID != second.ID {
			t.Fatalf("expected one system wallet, got %s and %s", first.ID, second.ID)
		}
		if second.MemberID != nil {
			t.Fatal("system wallet must have nil member_id")
		}
	})

	t.Run("flip transaction status only once", func(t *testing.T) {
		cleanup(t)

		w, err := repo.EnsureSystem(ctx, nil, "USD")
		if err != nil {
			t.Fatalf("EnsureSystem failed: %v", err)
		}
		tx, err := model.NewWalletTransaction(ulid.Make().String(), w.ID, model.EffectCredit, 500, model.TxTypeCommission, model.TransactionStatusPending, nil)
		if err != nil {
			t.Fatalf("NewWalletTransaction failed: %v", err)
		}
		if err := repo.InsertTransaction(ctx, nil, tx); err != nil {
			t.Fatalf("InsertTransaction failed: %v", err)
		}

		ok, err := repo.FlipTransactionStatus(ctx, nil, tx.ID, model.TransactionStatusCompleted)
		if err != nil || !ok {
			t.Fatalf("first flip should land: ok=%v err=%v", ok, err)
		}
		ok, err = repo.FlipTransactionStatus(ctx, nil, tx.ID, model.TransactionStatusFailed)
		if err != nil {
			t.Fatalf("second flip errored: %v", err)
		}
		if ok {
			t.Fatal("second flip must be rejected; completed is terminal")
		}

		rows, err := repo.ListTransactions(ctx, nil, w.ID, 10)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(rows) != 1 || rows[0].Status != model.TransactionStatusCompleted {
			t.Fatalf("expected one completed row, got %+v", rows)
		}
	})
}
