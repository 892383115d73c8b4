//go:build !integration

package web

import (
	"context"
	"time"

	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/domain/ports/repository"
	"esengo-membership/internal/usecase"
)

// --- Mock use cases ---
//
// Each mock embeds its interface for forward compatibility and overrides only
// what the handler under test touches.

type mockLedgerUC struct {
	usecase.LedgerUseCase
	wallet       *model.Wallet
	txns         []*model.WalletTransaction
	WalletError  error
	WithdrawErr  error
	withdrawnAmt int64
}

func (m *mockLedgerUC) MemberWallet(ctx context.Context, tx repository.Tx, memberID string) (*model.Wallet, error) {
	if m.WalletError != nil {
		return nil, m.WalletError
	}
	return m.wallet, nil
}

func (m *mockLedgerUC) Statement(ctx context.Context, walletID string, limit int) ([]*model.WalletTransaction, error) {
	return m.txns, nil
}

func (m *mockLedgerUC) Withdraw(ctx context.Context, memberID string, amount int64, meta map[string]interface{}) (*model.WalletTransaction, error) {
	if m.WithdrawErr != nil {
		return nil, m.WithdrawErr
	}
	m.withdrawnAmt = amount
	return &model.WalletTransaction{ID: "t1", WalletID: "w1", Amount: amount}, nil
}

type mockCommissionUC struct {
	usecase.CommissionUseCase
	record   *model.CommissionRecord
	RetryErr error
}

func (m *mockCommissionUC) Retry(ctx context.Context, commissionID string) (*model.CommissionRecord, error) {
	if m.RetryErr != nil {
		return nil, m.RetryErr
	}
	return m.record, nil
}

func (m *mockCommissionUC) ListByEarner(ctx context.Context, memberID string, limit int) ([]*model.CommissionRecord, error) {
	if m.record == nil {
		return nil, nil
	}
	return []*model.CommissionRecord{m.record}, nil
}

type mockBonusUC struct {
	usecase.BonusUseCase
	result     *model.GrantPassResult
	GrantErr   error
	ConvertErr error
	lastFreq   model.BonusFrequency
}

func (m *mockBonusUC) ProcessGrantPass(ctx context.Context, f model.BonusFrequency) (*model.GrantPassResult, error) {
	m.lastFreq = f
	if m.GrantErr != nil {
		return nil, m.GrantErr
	}
	return m.result, nil
}

func (m *mockBonusUC) ConvertPoints(ctx context.Context, memberID, packID string, points int64) (int64, error) {
	if m.ConvertErr != nil {
		return 0, m.ConvertErr
	}
	return points * 100, nil
}

type mockTokenUC struct {
	usecase.TokenUseCase
	token     *model.BonusToken
	RedeemErr error
}

func (m *mockTokenUC) Redeem(ctx context.Context, code string) (*model.BonusToken, error) {
	if m.RedeemErr != nil {
		return nil, m.RedeemErr
	}
	return m.token, nil
}

func (m *mockTokenUC) SweepExpired(ctx context.Context) (int, error) { return 3, nil }

// fakeLimiter allows the first N calls and rejects the rest.
type fakeLimiter struct {
	allowFirst int
	calls      int
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	f.calls++
	return f.calls <= f.allowFirst, nil
}
