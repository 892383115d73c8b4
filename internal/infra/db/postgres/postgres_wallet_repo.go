package postgres

import (
	"context"
	"errors"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"esengo-membership/internal/domain"
	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/domain/ports/repository"
)

var _ repository.WalletRepository = (*walletRepo)(nil)

type walletRepo struct{ pool *pgxpool.Pool }

func NewWalletRepo(pool *pgxpool.Pool) *walletRepo {
	return &walletRepo{pool: pool}
}

const walletCols = `id, member_id, currency, balance, total_credited, total_debited, created_at, updated_at`

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

func scanWallet(row pgx.Row) (*model.Wallet, error) {
	w := &model.Wallet{}
	if err := row.Scan(&w.ID, &w.MemberID, &w.Currency, &w.Balance, &w.TotalCredited, &w.TotalDebited, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return w, nil
}

func (r *walletRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Wallet, error) {
	q := `SELECT ` + walletCols + ` FROM wallets WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanWallet(row)
}

func (r *walletRepo) FindByMember(ctx context.Context, tx repository.Tx, memberID string) (*model.Wallet, error) {
	q := `SELECT ` + walletCols + ` FROM wallets WHERE member_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, memberID)
	if err != nil {
		return nil, err
	}
	return scanWallet(row)
}

func (r *walletRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Wallet, error) {
	q := `SELECT ` + walletCols + ` FROM wallets WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanWallet(row)
}

func (r *walletRepo) Save(ctx context.Context, tx repository.Tx, w *model.Wallet) error {
	const q = `
INSERT INTO wallets (id, member_id, currency, balance, total_credited, total_debited, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  currency=$3, balance=$4, total_credited=$5, total_debited=$6, updated_at=$8;`
	_, err := execSQL(ctx, r.pool, tx, q, w.ID, w.MemberID, w.Currency, w.Balance, w.TotalCredited, w.TotalDebited, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// EnsureSystem finds or lazily creates the singleton system wallet. The
// partial unique index on (member_id IS NULL) makes concurrent creation
// collapse into one row.
func (r *walletRepo) EnsureSystem(ctx context.Context, tx repository.Tx, currency string) (*model.Wallet, error) {
	const ins = `
INSERT INTO wallets (id, member_id, currency, balance, total_credited, total_debited, created_at, updated_at)
VALUES ($1, NULL, $2, 0, 0, 0, NOW(), NOW())
ON CONFLICT DO NOTHING;`
	if _, err := execSQL(ctx, r.pool, tx, ins, uuid.NewString(), currency); err != nil {
		return nil, err
	}
	q := `SELECT ` + walletCols + ` FROM wallets WHERE member_id IS NULL;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	return scanWallet(row)
}

func (r *walletRepo) EnsureMember(ctx context.Context, tx repository.Tx, memberID, currency string) (*model.Wallet, error) {
	const ins = `
INSERT INTO wallets (id, member_id, currency, balance, total_credited, total_debited, created_at, updated_at)
VALUES ($1, $2, $3, 0, 0, 0, NOW(), NOW())
ON CONFLICT (member_id) DO NOTHING;`
	if _, err := execSQL(ctx, r.pool, tx, ins, uuid.NewString(), memberID, currency); err != nil {
		return nil, err
	}
	return r.FindByMember(ctx, tx, memberID)
}

// AcquireWalletLock serializes balance mutations for one wallet within the
// enclosing transaction. Outside a transaction there is nothing to scope the
// lock to, so the call is rejected.
func (r *walletRepo) AcquireWalletLock(ctx context.Context, tx repository.Tx, walletID string) error {
	if !inTx(tx) {
		return domain.ErrInvalidExecContext
	}
	_, err := execSQL(ctx, r.pool, tx, `SELECT pg_advisory_xact_lock($1);`, hashToInt64(walletID))
	return err
}

func (r *walletRepo) UpdateBalances(ctx context.Context, tx repository.Tx, w *model.Wallet) error {
	const q = `
UPDATE wallets
   SET balance=$2, total_credited=$3, total_debited=$4, updated_at=NOW()
 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, w.ID, w.Balance, w.TotalCredited, w.TotalDebited)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *walletRepo) InsertTransaction(ctx context.Context, tx repository.Tx, t *model.WalletTransaction) error {
	const q = `
INSERT INTO wallet_transactions (id, wallet_id, effect, amount, type, status, mirror, meta, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`
	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.WalletID, string(t.Effect), t.Amount, t.Type, string(t.Status), t.Mirror, t.Meta, t.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// FlipTransactionStatus applies pending -> completed|failed exactly once.
func (r *walletRepo) FlipTransactionStatus(ctx context.Context, tx repository.Tx, id string, to model.TransactionStatus) (bool, error) {
	const q = `
UPDATE wallet_transactions
   SET status=$2
 WHERE id=$1 AND status='pending';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() >= 1, nil
}

func (r *walletRepo) ListTransactions(ctx context.Context, tx repository.Tx, walletID string, limit int) ([]*model.WalletTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, wallet_id, effect, amount, type, status, mirror, meta, created_at
  FROM wallet_transactions
 WHERE wallet_id=$1
 ORDER BY id DESC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, walletID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.WalletTransaction
	for rows.Next() {
		t := new(model.WalletTransaction)
		var effect, status string
		if err := rows.Scan(&t.ID, &t.WalletID, &effect, &t.Amount, &t.Type, &status, &t.Mirror, &t.Meta, &t.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		t.Effect = model.TransactionEffect(effect)
		t.Status = model.TransactionStatus(status)
		out = append(out, t)
	}
	return out, nil
}
