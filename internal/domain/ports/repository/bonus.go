package repository

import (
	"context"
	"time"

	"esengo-membership/internal/domain/model"
)

// BonusRepository persists point balances and their append-only history.
type BonusRepository interface {
	// GetPoints returns the (member, pack) balance, or a zero balance when no
	// row exists yet. Inside a transaction the row is locked FOR UPDATE.
	GetPoints(ctx context.Context, tx Tx, memberID, packID string) (*model.UserBonusPoints, error)
	SavePoints(ctx context.Context, tx Tx, b *model.UserBonusPoints) error
	AppendHistory(ctx context.Context, tx Tx, e *model.BonusHistoryEntry) error
	ListHistory(ctx context.Context, tx Tx, memberID, packID string, limit int) ([]*model.BonusHistoryEntry, error)
}

// BonusRateRepository is the per-(pack, frequency) accrual configuration.
// Get returns domain.ErrNotFound for unconfigured pairs.
type BonusRateRepository interface {
	Get(ctx context.Context, tx Tx, packID string, f model.BonusFrequency) (*model.BonusRate, error)
	Upsert(ctx context.Context, tx Tx, r *model.BonusRate) error
}

// TokenRepository persists jetons.
type TokenRepository interface {
	Save(ctx context.Context, tx Tx, t *model.BonusToken) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.BonusToken, error)
	// MarkUsed flips issued -> used exactly once; false when the row was not
	// issued or already past expiry handling.
	MarkUsed(ctx context.Context, tx Tx, id string, redeemedAt time.Time) (bool, error)
	// ExpireDue flips all issued tokens past their expiry to expired and
	// returns them so the caller can append history entries. Running it twice
	// returns nothing the second time.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) ([]*model.BonusToken, error)
}
