// File: internal/usecase/ledger_uc.go
package usecase

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"esengo-membership/internal/domain"
	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/domain/ports/repository"
	"esengo-membership/internal/infra/metrics"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// LedgerUseCase is the single write path for every monetary movement.
// Credit, Debit and Mirror accept an optional transaction handle so callers
// (point conversion, commission posting) can make the ledger posting part of
// their own atomic unit; with tx == nil each call is its own transaction.
type LedgerUseCase interface {
	EnsureSystemWallet(ctx context.Context) (*model.Wallet, error)
	EnsureMemberWallet(ctx context.Context, tx repository.Tx, memberID string) (*model.Wallet, error)
	MemberWallet(ctx context.Context, tx repository.Tx, memberID string) (*model.Wallet, error)

	Credit(ctx context.Context, tx repository.Tx, walletID string, amount int64, txType string, status model.TransactionStatus, meta map[string]interface{}) (*model.WalletTransaction, error)
	Debit(ctx context.Context, tx repository.Tx, walletID string, amount int64, txType string, status model.TransactionStatus, meta map[string]interface{}) (*model.WalletTransaction, error)
	// Mirror appends an audit transaction to the system wallet's log without
	// touching its balance. It is not a second credit.
	Mirror(ctx context.Context, tx repository.Tx, amount int64, txType string, meta map[string]interface{}) (*model.WalletTransaction, error)

	// Withdraw debits a member's wallet for a payout request.
	Withdraw(ctx context.Context, memberID string, amount int64, meta map[string]interface{}) (*model.WalletTransaction, error)
	Statement(ctx context.Context, walletID string, limit int) ([]*model.WalletTransaction, error)
}

type ledgerUC struct {
	wallets  repository.WalletRepository
	tm       repository.TransactionManager
	currency string
	log      *zerolog.Logger
}

func NewLedgerUseCase(wallets repository.WalletRepository, tm repository.TransactionManager, currency string, logger *zerolog.Logger) *ledgerUC {
	l := logger.With().Str("component", "LedgerUC").Logger()
	return &ledgerUC{wallets: wallets, tm: tm, currency: currency, log: &l}
}

func (u *ledgerUC) EnsureSystemWallet(ctx context.Context) (*model.Wallet, error) {
	return u.wallets.EnsureSystem(ctx, repository.NoTX, u.currency)
}

func (u *ledgerUC) EnsureMemberWallet(ctx context.Context, tx repository.Tx, memberID string) (*model.Wallet, error) {
	if memberID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.wallets.EnsureMember(ctx, tx, memberID, u.currency)
}

func (u *ledgerUC) MemberWallet(ctx context.Context, tx repository.Tx, memberID string) (*model.Wallet, error) {
	return u.wallets.FindByMember(ctx, tx, memberID)
}

func (u *ledgerUC) Credit(ctx context.Context, tx repository.Tx, walletID string, amount int64, txType string, status model.TransactionStatus, meta map[string]interface{}) (*model.WalletTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if tx == nil {
		var out *model.WalletTransaction
		err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			var err error
			out, err = u.Credit(ctx, tx, walletID, amount, txType, status, meta)
			return err
		})
		return out, err
	}
	return u.apply(ctx, tx, walletID, model.EffectCredit, amount, txType, status, meta)
}

func (u *ledgerUC) Debit(ctx context.Context, tx repository.Tx, walletID string, amount int64, txType string, status model.TransactionStatus, meta map[string]interface{}) (*model.WalletTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if tx == nil {
		var out *model.WalletTransaction
		err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			var err error
			out, err = u.Debit(ctx, tx, walletID, amount, txType, status, meta)
			return err
		})
		return out, err
	}
	return u.apply(ctx, tx, walletID, model.EffectDebit, amount, txType, status, meta)
}

// apply is the one place balance and transaction row change together.
// The advisory lock serializes concurrent postings on the same wallet so a
// read-modify-write is never lost.
func (u *ledgerUC) apply(ctx context.Context, tx repository.Tx, walletID string, effect model.TransactionEffect, amount int64, txType string, status model.TransactionStatus, meta map[string]interface{}) (*model.WalletTransaction, error) {
	if err := u.wallets.AcquireWalletLock(ctx, tx, walletID); err != nil {
		return nil, err
	}
	w, err := u.wallets.FindByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return nil, err
	}

	if effect == model.EffectDebit && !w.IsSystem() && w.Balance < amount {
		metrics.IncDebitRejected()
		return nil, domain.ErrInsufficientFunds
	}

	txn, err := model.NewWalletTransaction(ulid.Make().String(), w.ID, effect, amount, txType, status, meta)
	if err != nil {
		return nil, err
	}
	if err := u.wallets.InsertTransaction(ctx, tx, txn); err != nil {
		return nil, err
	}

	switch effect {
	case model.EffectCredit:
		w.Balance += amount
		w.TotalCredited += amount
	case model.EffectDebit:
		w.Balance -= amount
		w.TotalDebited += amount
	}
	if err := w.CheckInvariant(); err != nil {
		return nil, err
	}
	if err := u.wallets.UpdateBalances(ctx, tx, w); err != nil {
		return nil, err
	}

	metrics.IncLedgerPosting(string(effect), txType)
	u.log.Debug().Str("wallet_id", w.ID).Str("effect", string(effect)).
		Int64("amount", amount).Str("type", txType).Msg("ledger posting applied")
	return txn, nil
}

func (u *ledgerUC) Mirror(ctx context.Context, tx repository.Tx, amount int64, txType string, meta map[string]interface{}) (*model.WalletTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	sys, err := u.wallets.EnsureSystem(ctx, tx, u.currency)
	if err != nil {
		return nil, err
	}
	txn, err := model.NewWalletTransaction(ulid.Make().String(), sys.ID, model.EffectCredit, amount, txType, model.TransactionStatusCompleted, meta)
	if err != nil {
		return nil, err
	}
	txn.Mirror = true
	if err := u.wallets.InsertTransaction(ctx, tx, txn); err != nil {
		return nil, err
	}
	metrics.IncLedgerPosting("mirror", txType)
	return txn, nil
}

func (u *ledgerUC) Withdraw(ctx context.Context, memberID string, amount int64, meta map[string]interface{}) (*model.WalletTransaction, error) {
	w, err := u.wallets.FindByMember(ctx, repository.NoTX, memberID)
	if err != nil {
		return nil, err
	}
	return u.Debit(ctx, nil, w.ID, amount, model.TxTypeWithdrawal, model.TransactionStatusCompleted, meta)
}

func (u *ledgerUC) Statement(ctx context.Context, walletID string, limit int) ([]*model.WalletTransaction, error) {
	return u.wallets.ListTransactions(ctx, repository.NoTX, walletID, limit)
}
