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

var _ repository.BonusRepository = (*bonusRepo)(nil)

type bonusRepo struct{ pool *pgxpool.Pool }

func NewBonusRepo(pool *pgxpool.Pool) *bonusRepo {
	return &bonusRepo{pool: pool}
}

// GetPoints returns a zero balance when no row exists yet so callers never
// special-case first accrual. Inside a tx the existing row is locked.
func (r *bonusRepo) GetPoints(ctx context.Context, tx repository.Tx, memberID, packID string) (*model.UserBonusPoints, error) {
	q := `SELECT member_id, pack_id, available, used, updated_at FROM user_bonus_points WHERE member_id=$1 AND pack_id=$2`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, memberID, packID)
	if err != nil {
		return nil, err
	}
	b := &model.UserBonusPoints{}
	if err := row.Scan(&b.MemberID, &b.PackID, &b.Available, &b.Used, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.UserBonusPoints{MemberID: memberID, PackID: packID}, nil
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return b, nil
}

func (r *bonusRepo) SavePoints(ctx context.Context, tx repository.Tx, b *model.UserBonusPoints) error {
	const q = `
INSERT INTO user_bonus_points (member_id, pack_id, available, used, updated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (member_id, pack_id) DO UPDATE SET available=$3, used=$4, updated_at=$5;`
	_, err := execSQL(ctx, r.pool, tx, q, b.MemberID, b.PackID, b.Available, b.Used, b.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *bonusRepo) AppendHistory(ctx context.Context, tx repository.Tx, e *model.BonusHistoryEntry) error {
	const q = `
INSERT INTO bonus_point_history (id, member_id, pack_id, delta, type, description, meta, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.MemberID, e.PackID, e.Delta, string(e.Type), e.Description, e.Meta, e.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *bonusRepo) ListHistory(ctx context.Context, tx repository.Tx, memberID, packID string, limit int) ([]*model.BonusHistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, member_id, pack_id, delta, type, description, meta, created_at
  FROM bonus_point_history
 WHERE member_id=$1 AND pack_id=$2
 ORDER BY id DESC
 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, memberID, packID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.BonusHistoryEntry
	for rows.Next() {
		e := &model.BonusHistoryEntry{}
		var htype string
		if err := rows.Scan(&e.ID, &e.MemberID, &e.PackID, &e.Delta, &htype, &e.Description, &e.Meta, &e.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		e.Type = model.BonusHistoryType(htype)
		out = append(out, e)
	}
	return out, nil
}

var _ repository.BonusRateRepository = (*bonusRateRepo)(nil)

type bonusRateRepo struct{ pool *pgxpool.Pool }

func NewBonusRateRepo(pool *pgxpool.Pool) *bonusRateRepo {
	return &bonusRateRepo{pool: pool}
}

func (r *bonusRateRepo) Get(ctx context.Context, tx repository.Tx, packID string, f model.BonusFrequency) (*model.BonusRate, error) {
	const q = `
SELECT pack_id, frequency, referral_threshold, points_per_threshold, point_value, updated_at
  FROM bonus_rates WHERE pack_id=$1 AND frequency=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, packID, string(f))
	if err != nil {
		return nil, err
	}
	br := &model.BonusRate{}
	var freq string
	if err := row.Scan(&br.PackID, &freq, &br.ReferralThreshold, &br.PointsPerThreshold, &br.PointValue, &br.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	br.Frequency = model.BonusFrequency(freq)
	return br, nil
}

func (r *bonusRateRepo) Upsert(ctx context.Context, tx repository.Tx, br *model.BonusRate) error {
	const q = `
INSERT INTO bonus_rates (pack_id, frequency, referral_threshold, points_per_threshold, point_value, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (pack_id, frequency) DO UPDATE SET
  referral_threshold=$3, points_per_threshold=$4, point_value=$5, updated_at=NOW();`
	_, err := execSQL(ctx, r.pool, tx, q, br.PackID, string(br.Frequency), br.ReferralThreshold, br.PointsPerThreshold, br.PointValue)
	return err
}
