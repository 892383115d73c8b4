package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"esengo-membership/internal/domain"
	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/domain/ports/repository"
)

var _ repository.PackRepository = (*packRepo)(nil)

type packRepo struct{ pool *pgxpool.Pool }

func NewPackRepo(pool *pgxpool.Pool) *packRepo {
	return &packRepo{pool: pool}
}

func scanPack(row pgx.Row) (*model.Pack, error) {
	p := &model.Pack{}
	if err := row.Scan(&p.ID, &p.Name, &p.MonthlyPrice, &p.Currency, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *packRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Pack, error) {
	const q = `SELECT id, name, monthly_price, currency, created_at FROM packs WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPack(row)
}

func (r *packRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Pack, error) {
	const q = `SELECT id, name, monthly_price, currency, created_at FROM packs ORDER BY monthly_price;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Pack
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *packRepo) Save(ctx context.Context, tx repository.Tx, p *model.Pack) error {
	const q = `
INSERT INTO packs (id, name, monthly_price, currency, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET name=$2, monthly_price=$3, currency=$4;`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.MonthlyPrice, p.Currency, p.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
