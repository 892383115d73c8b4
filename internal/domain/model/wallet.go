package model

import (
	"time"

	"esengo-membership/internal/domain"
)

// TransactionEffect tells whether a ledger row moved money into or out of a
// wallet. Mirror rows carry the credit effect but never touch a balance.
type TransactionEffect string

const (
	EffectCredit TransactionEffect = "credit"
	EffectDebit  TransactionEffect = "debit"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction type labels used across the settlement core.
const (
	TxTypeCommission       = "referral commission"
	TxTypeCommissionMirror = "referral commission mirror"
	TxTypeBonusConversion  = "bonus conversion"
	TxTypeWithdrawal       = "withdrawal"
	TxTypeSales            = "sales"
)

// Wallet holds the current balance plus lifetime totals for one member, or
// for the platform-wide system wallet (MemberID nil). Balances are stored in
// minor currency units and are mutated only through the ledger use case.
type Wallet struct {
	ID            string  // UUID
	MemberID      *string // nil for the singleton system wallet
	Currency      string
	Balance       int64
	TotalCredited int64
	TotalDebited  int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (w *Wallet) IsSystem() bool { return w.MemberID == nil }

// CheckInvariant verifies balance == credited - debited and, for member
// wallets, balance >= 0.
func (w *Wallet) CheckInvariant() error {
	if w.Balance != w.TotalCredited-w.TotalDebited {
		return domain.ErrOperationFailed
	}
	if !w.IsSystem() && w.Balance < 0 {
		return domain.ErrInsufficientFunds
	}
	return nil
}

// WalletTransaction is one immutable row of the append-only ledger.
// Only Status may change after creation, pending -> completed|failed, once.
type WalletTransaction struct {
	ID       string // ULID, lexically ordered by creation time
	WalletID string
	Effect   TransactionEffect
	Amount   int64 // always >= 0; Effect carries the sign
	Type     string
	Status   TransactionStatus
	// Mirror marks an audit copy on the system wallet's log that has no
	// balance effect. It must never be summed into a balance.
	Mirror    bool
	Meta      map[string]interface{} // counterpart ids, pack/duration context (JSONB)
	CreatedAt time.Time
}

// CanFlipStatus reports whether a status transition is legal. Completed and
// failed are terminal.
func (t *WalletTransaction) CanFlipStatus(to TransactionStatus) bool {
	return t.Status == TransactionStatusPending &&
		(to == TransactionStatusCompleted || to == TransactionStatusFailed)
}

// NewWalletTransaction validates and constructs a ledger row.
func NewWalletTransaction(id, walletID string, effect TransactionEffect, amount int64, txType string, status TransactionStatus, meta map[string]interface{}) (*WalletTransaction, error) {
	if id == "" || walletID == "" || txType == "" {
		return nil, domain.ErrInvalidArgument
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	return &WalletTransaction{
		ID:        id,
		WalletID:  walletID,
		Effect:    effect,
		Amount:    amount,
		Type:      txType,
		Status:    status,
		Meta:      meta,
		CreatedAt: time.Now(),
	}, nil
}
