package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"esengo-membership/internal/domain"
	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/domain/ports/repository"
)

var _ repository.TokenRepository = (*tokenRepo)(nil)

type tokenRepo struct{ pool *pgxpool.Pool }

func NewTokenRepo(pool *pgxpool.Pool) *tokenRepo {
	return &tokenRepo{pool: pool}
}

const tokenCols = `id, member_id, pack_id, code, status, expires_at, redeemed_at, created_at`

func scanToken(row pgx.Row) (*model.BonusToken, error) {
	t := &model.BonusToken{}
	var status string
	if err := row.Scan(&t.ID, &t.MemberID, &t.PackID, &t.Code, &status, &t.ExpiresAt, &t.RedeemedAt, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	t.Status = model.TokenStatus(status)
	return t, nil
}

func (r *tokenRepo) Save(ctx context.Context, tx repository.Tx, t *model.BonusToken) error {
	const q = `
INSERT INTO bonus_tokens (id, member_id, pack_id, code, status, expires_at, redeemed_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET status=$5, redeemed_at=$7;`
	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.MemberID, t.PackID, t.Code, string(t.Status), t.ExpiresAt, t.RedeemedAt, t.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *tokenRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.BonusToken, error) {
	q := `SELECT ` + tokenCols + ` FROM bonus_tokens WHERE code=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanToken(row)
}

// MarkUsed flips issued -> used exactly once; a concurrent redeem loses the
// race and gets false.
func (r *tokenRepo) MarkUsed(ctx context.Context, tx repository.Tx, id string, redeemedAt time.Time) (bool, error) {
	const q = `
UPDATE bonus_tokens
   SET status='used', redeemed_at=$2
 WHERE id=$1 AND status='issued';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, redeemedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() >= 1, nil
}

// ExpireDue flips every overdue issued token to expired and returns the
// flipped rows. A second sweep over the same instant returns nothing.
func (r *tokenRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.BonusToken, error) {
	q := `
UPDATE bonus_tokens
   SET status='expired'
 WHERE status='issued' AND expires_at <= $1
RETURNING ` + tokenCols + `;`
	rows, err := queryRows(ctx, r.pool, tx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.BonusToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
