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

var _ repository.MembershipRepository = (*membershipRepo)(nil)

type membershipRepo struct{ pool *pgxpool.Pool }

func NewMembershipRepo(pool *pgxpool.Pool) *membershipRepo {
	return &membershipRepo{pool: pool}
}

const membershipCols = `id, member_id, pack_id, sponsor_id, status, payment_status, referral_code, operator_owned, purchased_at, expires_at, created_at, updated_at`

func scanMembership(row pgx.Row) (*model.PackMembership, error) {
	m := &model.PackMembership{}
	var status, payStatus string
	err := row.Scan(&m.ID, &m.MemberID, &m.PackID, &m.SponsorID, &status, &payStatus, &m.ReferralCode, &m.OperatorOwned, &m.PurchasedAt, &m.ExpiresAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	m.Status = model.MembershipStatus(status)
	m.PaymentStatus = model.PaymentStatus(payStatus)
	return m, nil
}

func (r *membershipRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PackMembership, error) {
	q := `SELECT ` + membershipCols + ` FROM pack_memberships WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanMembership(row)
}

func (r *membershipRepo) FindByMemberAndPack(ctx context.Context, tx repository.Tx, memberID, packID string) (*model.PackMembership, error) {
	q := `SELECT ` + membershipCols + ` FROM pack_memberships WHERE member_id=$1 AND pack_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, memberID, packID)
	if err != nil {
		return nil, err
	}
	return scanMembership(row)
}

func (r *membershipRepo) Save(ctx context.Context, tx repository.Tx, m *model.PackMembership) error {
	const q = `
INSERT INTO pack_memberships (id, member_id, pack_id, sponsor_id, status, payment_status, referral_code, operator_owned, purchased_at, expires_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  sponsor_id=$4, status=$5, payment_status=$6, referral_code=$7,
  operator_owned=$8, purchased_at=$9, expires_at=$10, updated_at=$12;`
	_, err := execSQL(ctx, r.pool, tx, q,
		m.ID, m.MemberID, m.PackID, m.SponsorID, string(m.Status), string(m.PaymentStatus),
		m.ReferralCode, m.OperatorOwned, m.PurchasedAt, m.ExpiresAt, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *membershipRepo) ListMembersWithActivePack(ctx context.Context, tx repository.Tx) ([]string, error) {
	const q = `
SELECT DISTINCT member_id
  FROM pack_memberships
 WHERE status='active' AND payment_status='completed'
 ORDER BY member_id;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, id)
	}
	return out, nil
}

func (r *membershipRepo) ListActiveByMember(ctx context.Context, tx repository.Tx, memberID string) ([]*model.PackMembership, error) {
	q := `SELECT ` + membershipCols + `
  FROM pack_memberships
 WHERE member_id=$1 AND status='active' AND payment_status='completed'
 ORDER BY created_at;`
	rows, err := queryRows(ctx, r.pool, tx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PackMembership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// CountDirectReferrals counts distinct members whose membership names one of
// this member's memberships as sponsor and was purchased, payment completed,
// inside the window. One generation only.
func (r *membershipRepo) CountDirectReferrals(ctx context.Context, tx repository.Tx, memberID string, start, end time.Time) (int, error) {
	const q = `
SELECT COUNT(DISTINCT child.member_id)
  FROM pack_memberships child
  JOIN pack_memberships parent ON child.sponsor_id = parent.id
 WHERE parent.member_id = $1
   AND child.payment_status = 'completed'
   AND child.purchased_at >= $2
   AND child.purchased_at <= $3;`
	row, err := pickRow(ctx, r.pool, tx, q, memberID, start, end)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *membershipRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `
UPDATE pack_memberships
   SET status='expired', updated_at=NOW()
 WHERE status='active'
   AND operator_owned=FALSE
   AND expires_at IS NOT NULL
   AND expires_at <= $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
