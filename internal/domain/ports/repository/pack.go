package repository

import (
	"context"

	"esengo-membership/internal/domain/model"
)

// PackRepository persists the purchasable pack catalogue.
type PackRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Pack, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Pack, error)
	Save(ctx context.Context, tx Tx, p *model.Pack) error
}
