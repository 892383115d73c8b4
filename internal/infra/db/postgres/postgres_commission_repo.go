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

var _ repository.CommissionRepository = (*commissionRepo)(nil)

type commissionRepo struct{ pool *pgxpool.Pool }

func NewCommissionRepo(pool *pgxpool.Pool) *commissionRepo {
	return &commissionRepo{pool: pool}
}

const commissionCols = `id, earner_member_id, earner_membership_id, source_member_id, source_membership_id, pack_id, level, amount, currency, duration_months, status, error_text, created_at, updated_at, posted_at`

func scanCommission(row pgx.Row) (*model.CommissionRecord, error) {
	c := &model.CommissionRecord{}
	var status string
	err := row.Scan(&c.ID, &c.EarnerMemberID, &c.EarnerMembershipID, &c.SourceMemberID, &c.SourceMembershipID,
		&c.PackID, &c.Level, &c.Amount, &c.Currency, &c.DurationMonths, &status, &c.ErrorText,
		&c.CreatedAt, &c.UpdatedAt, &c.PostedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	c.Status = model.CommissionStatus(status)
	return c, nil
}

func (r *commissionRepo) Save(ctx context.Context, tx repository.Tx, c *model.CommissionRecord) error {
	const q = `
INSERT INTO commission_records (id, earner_member_id, earner_membership_id, source_member_id, source_membership_id, pack_id, level, amount, currency, duration_months, status, error_text, created_at, updated_at, posted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (id) DO UPDATE SET
  status=$11, error_text=$12, updated_at=$14, posted_at=$15;`
	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.EarnerMemberID, c.EarnerMembershipID, c.SourceMemberID, c.SourceMembershipID,
		c.PackID, c.Level, c.Amount, c.Currency, c.DurationMonths, string(c.Status), c.ErrorText,
		c.CreatedAt, c.UpdatedAt, c.PostedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *commissionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CommissionRecord, error) {
	q := `SELECT ` + commissionCols + ` FROM commission_records WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanCommission(row)
}

// UpdateStatusIf is the guarded transition used by posting and retry: the
// write lands only when the row is still in one of the expected statuses, so
// two concurrent retries cannot both claim the record.
func (r *commissionRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from []model.CommissionStatus, to model.CommissionStatus, errText string, postedAt *time.Time) (bool, error) {
	fromStr := make([]string, 0, len(from))
	for _, s := range from {
		fromStr = append(fromStr, string(s))
	}
	const q = `
UPDATE commission_records
   SET status=$2, error_text=$3, posted_at=$4, updated_at=NOW()
 WHERE id=$1 AND status = ANY($5);`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(to), errText, postedAt, fromStr)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() >= 1, nil
}

func (r *commissionRepo) ListByEarner(ctx context.Context, tx repository.Tx, memberID string, limit int) ([]*model.CommissionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + commissionCols + `
  FROM commission_records
 WHERE earner_member_id=$1
 ORDER BY created_at DESC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CommissionRecord
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

var _ repository.CommissionRateRepository = (*commissionRateRepo)(nil)

type commissionRateRepo struct{ pool *pgxpool.Pool }

func NewCommissionRateRepo(pool *pgxpool.Pool) *commissionRateRepo {
	return &commissionRateRepo{pool: pool}
}

func (r *commissionRateRepo) Get(ctx context.Context, tx repository.Tx, packID string, level int) (*model.CommissionRate, error) {
	const q = `SELECT pack_id, level, rate_basis_points, updated_at FROM commission_rates WHERE pack_id=$1 AND level=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, packID, level)
	if err != nil {
		return nil, err
	}
	cr := &model.CommissionRate{}
	if err := row.Scan(&cr.PackID, &cr.Level, &cr.RateBasisPoints, &cr.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return cr, nil
}

func (r *commissionRateRepo) Upsert(ctx context.Context, tx repository.Tx, cr *model.CommissionRate) error {
	const q = `
INSERT INTO commission_rates (pack_id, level, rate_basis_points, updated_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (pack_id, level) DO UPDATE SET rate_basis_points=$3, updated_at=NOW();`
	_, err := execSQL(ctx, r.pool, tx, q, cr.PackID, cr.Level, cr.RateBasisPoints)
	return err
}

func (r *commissionRateRepo) ListByPack(ctx context.Context, tx repository.Tx, packID string) ([]*model.CommissionRate, error) {
	const q = `SELECT pack_id, level, rate_basis_points, updated_at FROM commission_rates WHERE pack_id=$1 ORDER BY level;`
	rows, err := queryRows(ctx, r.pool, tx, q, packID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CommissionRate
	for rows.Next() {
		cr := &model.CommissionRate{}
		if err := rows.Scan(&cr.PackID, &cr.Level, &cr.RateBasisPoints, &cr.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, cr)
	}
	return out, nil
}
