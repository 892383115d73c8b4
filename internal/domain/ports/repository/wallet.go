package repository

import (
	"context"

	"esengo-membership/internal/domain/model"
)

// WalletRepository persists wallets and their append-only transaction log.
// Balance mutations happen only inside a transaction, under the per-wallet
// advisory lock taken through AcquireWalletLock.
type WalletRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Wallet, error)
	FindByMember(ctx context.Context, tx Tx, memberID string) (*model.Wallet, error)
	Save(ctx context.Context, tx Tx, w *model.Wallet) error

	// EnsureSystem finds or lazily creates the singleton system wallet.
	// Creation is idempotent, guarded by a partial unique index on
	// (member_id IS NULL).
	EnsureSystem(ctx context.Context, tx Tx, currency string) (*model.Wallet, error)
	// EnsureMember finds or lazily creates a member's wallet.
	EnsureMember(ctx context.Context, tx Tx, memberID, currency string) (*model.Wallet, error)

	// AcquireWalletLock serializes concurrent balance mutations on one wallet
	// for the duration of the enclosing transaction.
	AcquireWalletLock(ctx context.Context, tx Tx, walletID string) error
	// FindByIDForUpdate row-locks the wallet inside the given transaction.
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.Wallet, error)
	// UpdateBalances writes balance, total_credited and total_debited.
	UpdateBalances(ctx context.Context, tx Tx, w *model.Wallet) error

	InsertTransaction(ctx context.Context, tx Tx, t *model.WalletTransaction) error
	// FlipTransactionStatus applies pending -> completed|failed exactly once;
	// returns false when the row was not in pending.
	FlipTransactionStatus(ctx context.Context, tx Tx, id string, to model.TransactionStatus) (bool, error)
	ListTransactions(ctx context.Context, tx Tx, walletID string, limit int) ([]*model.WalletTransaction, error)
}
