package repository

import (
	"context"
	"time"

	"esengo-membership/internal/domain/model"
)

// CommissionRepository persists commission records and their rate table.
type CommissionRepository interface {
	Save(ctx context.Context, tx Tx, c *model.CommissionRecord) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.CommissionRecord, error)
	// UpdateStatusIf applies a guarded status transition: the update only
	// lands when the row is currently in one of the `from` statuses. Returns
	// false when the guard rejected it.
	UpdateStatusIf(ctx context.Context, tx Tx, id string, from []model.CommissionStatus, to model.CommissionStatus, errText string, postedAt *time.Time) (bool, error)
	ListByEarner(ctx context.Context, tx Tx, memberID string, limit int) ([]*model.CommissionRecord, error)
}

// CommissionRateRepository is the per-(pack, level) rate table. Get returns
// domain.ErrNotFound for unconfigured levels.
type CommissionRateRepository interface {
	Get(ctx context.Context, tx Tx, packID string, level int) (*model.CommissionRate, error)
	Upsert(ctx context.Context, tx Tx, r *model.CommissionRate) error
	ListByPack(ctx context.Context, tx Tx, packID string) ([]*model.CommissionRate, error)
}
